package fees

import (
	"testing"

	"fee-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPlan(amounts ...float64) *models.FeeStructure {
	st := &models.FeeStructure{AllowInstallments: true}
	for _, a := range amounts {
		st.InstallmentAmounts = append(st.InstallmentAmounts, models.InstallmentItem{
			Label:  "Installment",
			Amount: a,
		})
	}
	return st
}

func autoPlan(count int) *models.FeeStructure {
	return &models.FeeStructure{AllowInstallments: true, InstallmentCount: count}
}

func recordWithPaid(final, paid float64) *models.FeeRecord {
	return &models.FeeRecord{FinalAmount: final, PaidAmount: paid}
}

func TestNextInstallmentFixedPlan(t *testing.T) {
	st := fixedPlan(500, 500, 1000)

	// Nothing paid: first bracket.
	assert.Equal(t, 500.0, NextInstallmentAmount(recordWithPaid(2000, 0), st))
	// First bracket covered: second.
	assert.Equal(t, 500.0, NextInstallmentAmount(recordWithPaid(2000, 500), st))
	// First two covered: third.
	assert.Equal(t, 1000.0, NextInstallmentAmount(recordWithPaid(2000, 1000), st))
	// Fully covered: last bracket amount is the fallback.
	assert.Equal(t, 1000.0, NextInstallmentAmount(recordWithPaid(2000, 2000), st))
}

func TestNextInstallmentAutoSplitStableFraction(t *testing.T) {
	st := autoPlan(4)
	// Installments are a fraction of the TOTAL, not of what's left, so the
	// amount does not shrink after a payment.
	assert.Equal(t, 250.0, NextInstallmentAmount(recordWithPaid(1000, 0), st))
	assert.Equal(t, 250.0, NextInstallmentAmount(recordWithPaid(1000, 250), st))
	assert.Equal(t, 250.0, NextInstallmentAmount(recordWithPaid(1000, 500), st))
}

func TestNextInstallmentAutoSplitRoundsUp(t *testing.T) {
	st := autoPlan(3)
	assert.Equal(t, 333.34, NextInstallmentAmount(recordWithPaid(1000, 0), st))
}

func TestNextInstallmentNoPlanPaysBalance(t *testing.T) {
	assert.Equal(t, 750.0, NextInstallmentAmount(recordWithPaid(1000, 250), nil))
	assert.Equal(t, 1000.0, NextInstallmentAmount(recordWithPaid(1000, 0), &models.FeeStructure{}))
}

func TestAutoSplitSumsExactly(t *testing.T) {
	totals := []float64{1000, 999.99, 1234.56, 100, 7}
	counts := []int{2, 3, 4, 7}

	for _, total := range totals {
		for _, count := range counts {
			amounts := AutoSplit(total, count)
			require.Len(t, amounts, count)

			sum := 0.0
			for _, a := range amounts {
				sum += a
			}
			assert.InDelta(t, total, RoundPaise(sum), 0.001, "total=%v count=%d", total, count)
		}
	}
}

func TestAutoSplitThirds(t *testing.T) {
	amounts := AutoSplit(1000, 3)
	assert.Equal(t, []float64{333.34, 333.34, 333.32}, amounts)
}

func TestAutoSplitDegenerateCounts(t *testing.T) {
	assert.Nil(t, AutoSplit(1000, 0))
	assert.Equal(t, []float64{1000}, AutoSplit(1000, 1))
}

func TestBuildOptionsFixedPlan(t *testing.T) {
	st := fixedPlan(500, 500, 1000)
	opts := BuildInstallmentOptions(recordWithPaid(2000, 500), st)
	require.Len(t, opts, 3)

	assert.True(t, opts[0].IsPaid)
	assert.False(t, opts[0].IsPayable)
	assert.False(t, opts[1].IsPaid)
	assert.True(t, opts[1].IsPayable)
	assert.False(t, opts[2].IsPaid)
	assert.True(t, opts[2].IsPayable)
}

func TestBuildOptionsUnpayableWhenOverBalance(t *testing.T) {
	// An out-of-sequence custom payment left only 800 outstanding; the
	// 1000 bracket is unpaid but cannot be offered.
	st := fixedPlan(500, 500, 1000)
	opts := BuildInstallmentOptions(recordWithPaid(2000, 1200), st)
	require.Len(t, opts, 3)

	assert.True(t, opts[0].IsPaid)
	assert.True(t, opts[1].IsPaid) // 1200 >= 1000 cumulative
	assert.False(t, opts[2].IsPaid)
	assert.False(t, opts[2].IsPayable)
}

func TestBuildOptionsAutoSplitLabelsAndRemainder(t *testing.T) {
	st := autoPlan(3)
	opts := BuildInstallmentOptions(recordWithPaid(1000, 0), st)
	require.Len(t, opts, 3)

	assert.Equal(t, "Installment 1 of 3", opts[0].Label)
	assert.Equal(t, "Installment 3 of 3", opts[2].Label)
	assert.Equal(t, 333.34, opts[0].Amount)
	assert.Equal(t, 333.32, opts[2].Amount)

	sum := 0.0
	for _, o := range opts {
		sum += o.Amount
	}
	assert.InDelta(t, 1000, sum, 0.001)
}

func TestBuildOptionsNoPlanSingleOption(t *testing.T) {
	opts := BuildInstallmentOptions(recordWithPaid(1000, 250), nil)
	require.Len(t, opts, 1)
	assert.Equal(t, 750.0, opts[0].Amount)
	assert.True(t, opts[0].IsPayable)

	opts = BuildInstallmentOptions(recordWithPaid(1000, 1000), nil)
	require.Len(t, opts, 1)
	assert.True(t, opts[0].IsPaid)
	assert.False(t, opts[0].IsPayable)
}

func TestBuildOptionsEpsilonAbsorbsRounding(t *testing.T) {
	st := fixedPlan(333.34, 333.34, 333.32)
	// Paid 333.335 due to upstream rounding; first bracket must count as paid.
	opts := BuildInstallmentOptions(recordWithPaid(1000, 333.335), st)
	assert.True(t, opts[0].IsPaid)
	assert.False(t, opts[1].IsPaid)
}
