package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"fee-backend/internal/cache"
	"fee-backend/internal/fees"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var ErrPlanMismatch = errors.New("installment amounts must sum to the structure amount")

type FeeStructureService struct {
	structureRepo *repositories.FeeStructureRepository
	validate      *validator.Validate
}

func NewFeeStructureService(structureRepo *repositories.FeeStructureRepository) *FeeStructureService {
	return &FeeStructureService{
		structureRepo: structureRepo,
		validate:      validator.New(),
	}
}

// Create makes a new structure and promotes it to current, demoting the
// previous one. Existing records keep their frozen copies and are untouched.
func (s *FeeStructureService) Create(ctx context.Context, req *models.CreateFeeStructureRequest, userID int) (*models.FeeStructure, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	taxType := req.TaxType
	if taxType == "" {
		taxType = models.TaxNone
	}
	supply := req.GSTSupplyType
	if supply == "" {
		supply = models.SupplyIntraState
	}
	if taxType == models.TaxNone {
		req.GSTRate = 0
		req.CessRate = 0
	} else if req.GSTRate <= 0 && req.CessRate <= 0 {
		return nil, fmt.Errorf("tax type %s requires a positive rate", taxType)
	}

	if len(req.LineItems) > 0 {
		sum := 0.0
		for _, item := range req.LineItems {
			if item.Amount < 0 {
				return nil, fmt.Errorf("line item %q has a negative amount", item.Label)
			}
			sum += item.Amount
		}
		if math.Abs(sum-req.Amount) > fees.Epsilon {
			return nil, fmt.Errorf("line items sum to %.2f, structure amount is %.2f", sum, req.Amount)
		}
	}

	structure := &models.FeeStructure{
		Name:            req.Name,
		Amount:          req.Amount,
		Cycle:           req.Cycle,
		LateFinePerDay:  req.LateFinePerDay,
		TaxType:         taxType,
		GSTRate:         req.GSTRate,
		GSTSupplyType:   supply,
		CessRate:        req.CessRate,
		SACCode:         req.SACCode,
		HSNCode:         req.HSNCode,
		LineItems:       req.LineItems,
		CreatedByUserID: userID,
	}

	if req.AllowInstallments {
		if err := applyInstallmentPlan(structure, req); err != nil {
			return nil, err
		}
	}

	if err := s.structureRepo.Create(ctx, structure); err != nil {
		return nil, err
	}
	cache.InvalidateStructureCaches(ctx)
	return structure, nil
}

// applyInstallmentPlan validates and normalizes the requested plan.
// A fixed plan must sum to the structure amount exactly (to the paisa);
// a bare count means equal auto-split at payment time.
func applyInstallmentPlan(structure *models.FeeStructure, req *models.CreateFeeStructureRequest) error {
	structure.AllowInstallments = true

	if len(req.InstallmentAmounts) > 0 {
		sum := 0.0
		for i, item := range req.InstallmentAmounts {
			if item.Amount <= 0 {
				return fmt.Errorf("installment %d has a non-positive amount", i+1)
			}
			sum += item.Amount
			if item.Label == "" {
				req.InstallmentAmounts[i].Label = fmt.Sprintf("Installment %d of %d", i+1, len(req.InstallmentAmounts))
			}
		}
		if math.Abs(sum-req.Amount) > fees.Epsilon {
			return ErrPlanMismatch
		}
		structure.InstallmentAmounts = req.InstallmentAmounts
		structure.InstallmentCount = len(req.InstallmentAmounts)
		return nil
	}

	if req.InstallmentCount < 2 {
		return fmt.Errorf("installments need a count of at least 2 or explicit amounts")
	}
	structure.InstallmentCount = req.InstallmentCount
	return nil
}

func (s *FeeStructureService) Get(ctx context.Context, id int) (*models.FeeStructure, error) {
	return s.structureRepo.Get(ctx, id)
}

func (s *FeeStructureService) GetCurrent(ctx context.Context) (*models.FeeStructure, error) {
	return s.structureRepo.GetCurrent(ctx)
}

// List returns structures, read through the cache for the common
// non-archived listing.
func (s *FeeStructureService) List(ctx context.Context, includeArchived bool) ([]*models.FeeStructure, error) {
	if !includeArchived {
		if data, ok := cache.GetCached(ctx, cache.StructuresKey); ok {
			var structures []*models.FeeStructure
			if err := json.Unmarshal(data, &structures); err == nil {
				return structures, nil
			}
		}
	}

	structures, err := s.structureRepo.List(ctx, includeArchived)
	if err != nil {
		return nil, err
	}

	if !includeArchived {
		if data, err := json.Marshal(structures); err == nil {
			cache.SetCached(ctx, cache.StructuresKey, data, 5*time.Minute)
		}
	}
	return structures, nil
}

// Archive retires a structure. Structures are never deleted; records
// referencing them must stay resolvable.
func (s *FeeStructureService) Archive(ctx context.Context, id int) error {
	if err := s.structureRepo.Archive(ctx, id); err != nil {
		return err
	}
	cache.InvalidateStructureCaches(ctx)
	return nil
}

// PreviewReplace reports what creating a new current structure would demote
func (s *FeeStructureService) PreviewReplace(ctx context.Context) (*models.ReplacePreview, error) {
	return s.structureRepo.ReplacePreview(ctx)
}
