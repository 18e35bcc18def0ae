package fees

import (
	"fmt"

	"fee-backend/internal/models"
)

// InstallmentOption is one selectable installment for the payment UI
type InstallmentOption struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	IsPaid    bool    `json:"is_paid"`
	IsPayable bool    `json:"is_payable"`
}

func balanceOf(rec *models.FeeRecord) float64 {
	bal := RoundPaise(rec.FinalAmount - rec.PaidAmount)
	if bal < 0 {
		return 0
	}
	return bal
}

// NextInstallmentAmount decides what a "pay next installment" action charges.
//
// Fixed plan: walk the brackets in order accumulating a running total and
// charge the first bracket the paid amount has not yet covered; once every
// bracket is covered the last bracket's amount is the fallback.
//
// Auto split: each installment is a stable fraction of the TOTAL final
// amount, not of the shrinking remainder, rounded up to the paisa so the
// plan never undershoots the total.
//
// No plan: pay-in-full is the only option.
func NextInstallmentAmount(rec *models.FeeRecord, st *models.FeeStructure) float64 {
	balance := balanceOf(rec)

	if st == nil || !st.AllowInstallments {
		return balance
	}

	if len(st.InstallmentAmounts) > 0 {
		cumulative := 0.0
		for _, item := range st.InstallmentAmounts {
			cumulative += item.Amount
			if rec.PaidAmount < cumulative-Epsilon {
				return item.Amount
			}
		}
		return st.InstallmentAmounts[len(st.InstallmentAmounts)-1].Amount
	}

	if st.InstallmentCount > 0 {
		total := balance + rec.PaidAmount
		return CeilPaise(total / float64(st.InstallmentCount))
	}

	return balance
}

// AutoSplit divides total into count equal installments, rounded up to the
// paisa, with the last installment absorbing the rounding remainder so the
// amounts sum to total exactly.
func AutoSplit(total float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []float64{RoundPaise(total)}
	}

	per := CeilPaise(total / float64(count))
	amounts := make([]float64, count)
	for i := 0; i < count-1; i++ {
		amounts[i] = per
	}
	amounts[count-1] = RoundPaise(total - per*float64(count-1))
	return amounts
}

// BuildInstallmentOptions produces the ordered installment list for a
// selection UI. An installment already covered by payments is marked paid;
// an unpaid installment larger than the remaining balance is not payable
// (possible after an out-of-sequence custom payment).
func BuildInstallmentOptions(rec *models.FeeRecord, st *models.FeeStructure) []InstallmentOption {
	balance := balanceOf(rec)

	if st == nil || !st.AllowInstallments {
		return []InstallmentOption{{
			Label:     "Full payment",
			Amount:    balance,
			IsPaid:    balance <= Epsilon,
			IsPayable: balance > Epsilon,
		}}
	}

	var options []InstallmentOption

	if len(st.InstallmentAmounts) > 0 {
		cumulative := 0.0
		for _, item := range st.InstallmentAmounts {
			cumulative += item.Amount
			paid := rec.PaidAmount >= cumulative-Epsilon
			options = append(options, InstallmentOption{
				Label:     item.Label,
				Amount:    item.Amount,
				IsPaid:    paid,
				IsPayable: !paid && item.Amount <= balance+Epsilon,
			})
		}
		return options
	}

	if st.InstallmentCount > 0 {
		total := balance + rec.PaidAmount
		amounts := AutoSplit(total, st.InstallmentCount)
		cumulative := 0.0
		for i, amount := range amounts {
			cumulative += amount
			paid := rec.PaidAmount >= cumulative-Epsilon
			options = append(options, InstallmentOption{
				Label:     fmt.Sprintf("Installment %d of %d", i+1, len(amounts)),
				Amount:    amount,
				IsPaid:    paid,
				IsPayable: !paid && amount <= balance+Epsilon,
			})
		}
		return options
	}

	return []InstallmentOption{{
		Label:     "Full payment",
		Amount:    balance,
		IsPaid:    balance <= Epsilon,
		IsPayable: balance > Epsilon,
	}}
}
