package services

import (
	"testing"

	"fee-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planRequest(amount float64) *models.CreateFeeStructureRequest {
	return &models.CreateFeeStructureRequest{
		Name:              "Annual Fee",
		Amount:            amount,
		Cycle:             models.CycleYearly,
		AllowInstallments: true,
	}
}

func TestInstallmentPlanFixedAmountsMustSumExactly(t *testing.T) {
	req := planRequest(30000)
	req.InstallmentAmounts = []models.InstallmentItem{
		{Amount: 10000}, {Amount: 10000}, {Amount: 9000},
	}

	structure := &models.FeeStructure{Amount: req.Amount}
	err := applyInstallmentPlan(structure, req)
	assert.ErrorIs(t, err, ErrPlanMismatch)
}

func TestInstallmentPlanAutoLabels(t *testing.T) {
	req := planRequest(30000)
	req.InstallmentAmounts = []models.InstallmentItem{
		{Amount: 10000, Label: "Admission"}, {Amount: 10000}, {Amount: 10000},
	}

	structure := &models.FeeStructure{Amount: req.Amount}
	require.NoError(t, applyInstallmentPlan(structure, req))

	assert.Equal(t, 3, structure.InstallmentCount)
	assert.Equal(t, "Admission", structure.InstallmentAmounts[0].Label)
	assert.Equal(t, "Installment 2 of 3", structure.InstallmentAmounts[1].Label)
	assert.Equal(t, "Installment 3 of 3", structure.InstallmentAmounts[2].Label)
}

func TestInstallmentPlanBareCountNeedsAtLeastTwo(t *testing.T) {
	req := planRequest(12000)
	req.InstallmentCount = 1

	structure := &models.FeeStructure{Amount: req.Amount}
	assert.Error(t, applyInstallmentPlan(structure, req))

	req.InstallmentCount = 4
	require.NoError(t, applyInstallmentPlan(structure, req))
	assert.Equal(t, 4, structure.InstallmentCount)
	assert.Empty(t, structure.InstallmentAmounts)
}

func TestInstallmentPlanRejectsNonPositiveAmount(t *testing.T) {
	req := planRequest(10000)
	req.InstallmentAmounts = []models.InstallmentItem{
		{Amount: 10000}, {Amount: 0},
	}

	structure := &models.FeeStructure{Amount: req.Amount}
	assert.Error(t, applyInstallmentPlan(structure, req))
}
