// Package fees is the fee breakdown engine: pure arithmetic over a fee
// record and its originating structure. No I/O, no hidden state; malformed
// but numerically valid input is clamped, never rejected.
package fees

import (
	"math"
	"time"

	"fee-backend/internal/models"
	"fee-backend/internal/timeutil"
)

// Epsilon absorbs floating rounding when comparing money values (0.01 = one paisa).
const Epsilon = 0.01

// RoundPaise rounds to the nearest paisa.
func RoundPaise(v float64) float64 {
	return math.Round(v*100) / 100
}

// CeilPaise rounds up to the next paisa. The tiny bias guards against
// values like 500.0 landing at 50000.000000001 after the multiply.
func CeilPaise(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}

// Whole truncates to whole rupees for display. Internal accumulation
// always keeps paise precision.
func Whole(v float64) int64 {
	return int64(v + 1e-9)
}

// Breakdown holds every derived display value for a fee record.
// Tax sub-amounts are pass-through: the split is frozen at assignment time
// and never re-derived here, so display cannot drift from the stored values.
type Breakdown struct {
	FinalAmount float64 `json:"final_amount"`
	Balance     float64 `json:"balance"`

	TaxAmount  float64 `json:"tax_amount"`
	CGSTAmount float64 `json:"cgst_amount"`
	SGSTAmount float64 `json:"sgst_amount"`
	IGSTAmount float64 `json:"igst_amount"`
	CessAmount float64 `json:"cess_amount"`

	Status      models.FeeStatus `json:"status"`
	IsPaid      bool             `json:"is_paid"`
	IsPartial   bool             `json:"is_partial"`
	IsWaived    bool             `json:"is_waived"`
	IsOverdue   bool             `json:"is_overdue"`
	DaysOverdue int              `json:"days_overdue"`
}

// ComputeTotals derives final amount, balance and status flags from a record.
//
// GST_EXCLUSIVE adds the frozen tax amount on top of (base - discount + fine).
// GST_INCLUSIVE leaves it out: the tax is already embedded in the base amount
// and is shown only as an informational sub-line. NONE behaves like inclusive
// with a zero tax amount.
func ComputeTotals(rec *models.FeeRecord, now time.Time) Breakdown {
	net := rec.BaseAmount - rec.DiscountAmount + rec.FineAmount

	final := net
	if rec.TaxType == models.TaxGSTExclusive {
		final = net + rec.TaxAmount
	}
	final = RoundPaise(final)

	balance := RoundPaise(final - rec.PaidAmount)
	if balance < 0 {
		balance = 0
	}

	b := Breakdown{
		FinalAmount: final,
		Balance:     balance,
		TaxAmount:   rec.TaxAmount,
		CGSTAmount:  rec.CGSTAmount,
		SGSTAmount:  rec.SGSTAmount,
		IGSTAmount:  rec.IGSTAmount,
		CessAmount:  rec.CessAmount,
	}

	b.IsWaived = rec.Status == models.FeeStatusWaived
	b.IsPaid = !b.IsWaived && balance <= Epsilon
	b.IsPartial = !b.IsWaived && rec.PaidAmount > Epsilon && rec.PaidAmount < final-Epsilon

	if !b.IsWaived && !b.IsPaid {
		b.DaysOverdue = DaysOverdue(rec.DueDate, now)
		b.IsOverdue = b.DaysOverdue > 0
	}

	switch {
	case b.IsWaived:
		b.Status = models.FeeStatusWaived
	case b.IsPaid:
		b.Status = models.FeeStatusPaid
	case b.IsPartial:
		b.Status = models.FeeStatusPartiallyPaid
	case b.IsOverdue:
		b.Status = models.FeeStatusOverdue
	default:
		b.Status = models.FeeStatusPending
	}

	return b
}

// DaysOverdue counts whole IST days elapsed since the due date, never negative.
func DaysOverdue(dueDate, now time.Time) int {
	due := timeutil.StartOfDay(dueDate)
	today := timeutil.StartOfDay(now)
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// LateFine is the accrued fine for an unpaid record.
func LateFine(finePerDay float64, daysOverdue int) float64 {
	if finePerDay <= 0 || daysOverdue <= 0 {
		return 0
	}
	return RoundPaise(finePerDay * float64(daysOverdue))
}

// TaxSplit is the GST breakup frozen onto a record at assignment time.
// TaxAmount includes cess; the sub-amounts are for display and invoicing.
type TaxSplit struct {
	TaxAmount  float64
	CGSTAmount float64
	SGSTAmount float64
	IGSTAmount float64
	CessAmount float64
}

// TaxAtAssignment computes the authoritative tax split once, when a structure
// is assigned to a member. Exclusive tax applies the rate to the discounted
// base; inclusive tax is extracted out of it (rate/(100+rate)). Intra-state
// supply halves GST into CGST and SGST, inter-state books it all as IGST.
func TaxAtAssignment(base, discount float64, taxType models.TaxType, gstRate, cessRate float64, supply models.GSTSupplyType) TaxSplit {
	if taxType == models.TaxNone || gstRate <= 0 && cessRate <= 0 {
		return TaxSplit{}
	}

	taxable := base - discount
	if taxable < 0 {
		taxable = 0
	}

	var gst, cess float64
	switch taxType {
	case models.TaxGSTExclusive:
		gst = taxable * gstRate / 100
		cess = taxable * cessRate / 100
	case models.TaxGSTInclusive:
		gst = taxable * gstRate / (100 + gstRate + cessRate)
		cess = taxable * cessRate / (100 + gstRate + cessRate)
	default:
		return TaxSplit{}
	}

	gst = RoundPaise(gst)
	cess = RoundPaise(cess)

	split := TaxSplit{
		TaxAmount:  RoundPaise(gst + cess),
		CessAmount: cess,
	}
	if supply == models.SupplyInterState {
		split.IGSTAmount = gst
	} else {
		split.CGSTAmount = RoundPaise(gst / 2)
		split.SGSTAmount = RoundPaise(gst - split.CGSTAmount)
	}
	return split
}
