package fees

import (
	"testing"
	"time"

	"fee-backend/internal/models"
	"fee-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, timeutil.IST)

func record(base, discount, fine, tax, paid float64, taxType models.TaxType) *models.FeeRecord {
	return &models.FeeRecord{
		BaseAmount:     base,
		DiscountAmount: discount,
		FineAmount:     fine,
		TaxAmount:      tax,
		PaidAmount:     paid,
		TaxType:        taxType,
		DueDate:        testNow.AddDate(0, 0, 30),
		Status:         models.FeeStatusPending,
	}
}

func TestComputeTotalsExclusiveAddsTax(t *testing.T) {
	rec := record(1000, 100, 50, 180, 0, models.TaxGSTExclusive)
	b := ComputeTotals(rec, testNow)
	assert.InDelta(t, 1130, b.FinalAmount, Epsilon)
	assert.InDelta(t, 1130, b.Balance, Epsilon)
}

func TestComputeTotalsInclusiveNeverReAddsTax(t *testing.T) {
	// Base of 1180 quoted inclusive of 18% GST; tax was extracted upstream.
	rec := record(1180, 0, 0, 180, 0, models.TaxGSTInclusive)
	b := ComputeTotals(rec, testNow)
	assert.InDelta(t, 1180, b.FinalAmount, Epsilon)
	assert.InDelta(t, 180, b.TaxAmount, Epsilon)
}

func TestComputeTotalsNoTax(t *testing.T) {
	rec := record(1000, 100, 50, 0, 0, models.TaxNone)
	b := ComputeTotals(rec, testNow)
	assert.InDelta(t, 950, b.FinalAmount, Epsilon)
	assert.InDelta(t, 950, b.Balance, Epsilon)
	assert.Equal(t, models.FeeStatusPending, b.Status)

	rec.PaidAmount = 950
	b = ComputeTotals(rec, testNow)
	assert.InDelta(t, 0, b.Balance, Epsilon)
	assert.True(t, b.IsPaid)
	assert.Equal(t, models.FeeStatusPaid, b.Status)
}

func TestComputeTotalsExclusiveWithUpstreamRate(t *testing.T) {
	// base=1000, 18% exclusive: tax computed upstream as 180.
	rec := record(1000, 0, 0, 180, 0, models.TaxGSTExclusive)
	rec.GSTRate = 18
	b := ComputeTotals(rec, testNow)
	assert.InDelta(t, 1180, b.FinalAmount, Epsilon)
}

func TestBalanceNeverNegative(t *testing.T) {
	rec := record(500, 0, 0, 0, 800, models.TaxNone)
	b := ComputeTotals(rec, testNow)
	assert.Equal(t, 0.0, b.Balance)
	assert.True(t, b.IsPaid)
	assert.False(t, b.IsPartial)
}

func TestPartialFlag(t *testing.T) {
	rec := record(1000, 0, 0, 0, 400, models.TaxNone)
	b := ComputeTotals(rec, testNow)
	assert.True(t, b.IsPartial)
	assert.False(t, b.IsPaid)
	assert.Equal(t, models.FeeStatusPartiallyPaid, b.Status)
}

func TestWaivedIsTerminal(t *testing.T) {
	rec := record(1000, 0, 0, 0, 0, models.TaxNone)
	rec.Status = models.FeeStatusWaived
	rec.DueDate = testNow.AddDate(0, 0, -10)
	b := ComputeTotals(rec, testNow)
	assert.True(t, b.IsWaived)
	assert.Equal(t, models.FeeStatusWaived, b.Status)
	assert.Equal(t, 0, b.DaysOverdue)
}

func TestOverdueStatusAndDays(t *testing.T) {
	rec := record(1000, 0, 0, 0, 0, models.TaxNone)
	rec.DueDate = testNow.AddDate(0, 0, -5)
	b := ComputeTotals(rec, testNow)
	assert.Equal(t, 5, b.DaysOverdue)
	assert.True(t, b.IsOverdue)
	assert.Equal(t, models.FeeStatusOverdue, b.Status)

	// Paid records stop accruing overdue days.
	rec.PaidAmount = 1000
	b = ComputeTotals(rec, testNow)
	assert.Equal(t, 0, b.DaysOverdue)
}

func TestDaysOverdueNeverNegative(t *testing.T) {
	assert.Equal(t, 0, DaysOverdue(testNow.AddDate(0, 0, 3), testNow))
	assert.Equal(t, 1, DaysOverdue(testNow.AddDate(0, 0, -1), testNow))
}

func TestComputeTotalsIdempotent(t *testing.T) {
	rec := record(1000, 100, 50, 180, 400, models.TaxGSTExclusive)
	first := ComputeTotals(rec, testNow)
	second := ComputeTotals(rec, testNow)
	assert.Equal(t, first, second)
}

func TestLateFine(t *testing.T) {
	assert.Equal(t, 0.0, LateFine(10, 0))
	assert.Equal(t, 0.0, LateFine(0, 7))
	assert.InDelta(t, 70, LateFine(10, 7), Epsilon)
}

func TestTaxAtAssignmentExclusiveIntraState(t *testing.T) {
	split := TaxAtAssignment(1000, 0, models.TaxGSTExclusive, 18, 0, models.SupplyIntraState)
	assert.InDelta(t, 180, split.TaxAmount, Epsilon)
	assert.InDelta(t, 90, split.CGSTAmount, Epsilon)
	assert.InDelta(t, 90, split.SGSTAmount, Epsilon)
	assert.Equal(t, 0.0, split.IGSTAmount)
}

func TestTaxAtAssignmentExclusiveInterState(t *testing.T) {
	split := TaxAtAssignment(1000, 0, models.TaxGSTExclusive, 18, 0, models.SupplyInterState)
	assert.InDelta(t, 180, split.IGSTAmount, Epsilon)
	assert.Equal(t, 0.0, split.CGSTAmount)
	assert.Equal(t, 0.0, split.SGSTAmount)
}

func TestTaxAtAssignmentInclusiveExtracts(t *testing.T) {
	split := TaxAtAssignment(1180, 0, models.TaxGSTInclusive, 18, 0, models.SupplyIntraState)
	assert.InDelta(t, 180, split.TaxAmount, Epsilon)
	assert.InDelta(t, 90, split.CGSTAmount, Epsilon)
	assert.InDelta(t, 90, split.SGSTAmount, Epsilon)
}

func TestTaxAtAssignmentDiscountShrinksTaxable(t *testing.T) {
	split := TaxAtAssignment(1000, 500, models.TaxGSTExclusive, 18, 0, models.SupplyIntraState)
	assert.InDelta(t, 90, split.TaxAmount, Epsilon)
}

func TestTaxAtAssignmentNone(t *testing.T) {
	split := TaxAtAssignment(1000, 0, models.TaxNone, 18, 0, models.SupplyIntraState)
	assert.Equal(t, TaxSplit{}, split)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 333.34, CeilPaise(1000.0/3))
	assert.Equal(t, 500.0, CeilPaise(500.0))
	assert.Equal(t, 333.33, RoundPaise(1000.0/3))
	assert.Equal(t, int64(949), Whole(949.99))
}
