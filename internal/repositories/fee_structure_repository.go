package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FeeStructureRepository struct {
	DB *pgxpool.Pool
}

func NewFeeStructureRepository(db *pgxpool.Pool) *FeeStructureRepository {
	return &FeeStructureRepository{DB: db}
}

const feeStructureColumns = `
	id, name, amount, cycle, late_fine_per_day,
	tax_type, gst_rate, gst_supply_type, cess_rate, COALESCE(sac_code, ''), COALESCE(hsn_code, ''),
	line_items, allow_installments, installment_count, installment_amounts,
	is_current, archived_at, created_by_user_id, created_at, updated_at`

func scanFeeStructure(row interface{ Scan(...interface{}) error }) (*models.FeeStructure, error) {
	var s models.FeeStructure
	var lineItems, installments []byte
	err := row.Scan(
		&s.ID, &s.Name, &s.Amount, &s.Cycle, &s.LateFinePerDay,
		&s.TaxType, &s.GSTRate, &s.GSTSupplyType, &s.CessRate, &s.SACCode, &s.HSNCode,
		&lineItems, &s.AllowInstallments, &s.InstallmentCount, &installments,
		&s.IsCurrent, &s.ArchivedAt, &s.CreatedByUserID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lineItems, &s.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if err := json.Unmarshal(installments, &s.InstallmentAmounts); err != nil {
		return nil, fmt.Errorf("failed to decode installment amounts: %w", err)
	}
	return &s, nil
}

// Create inserts a new structure as current and demotes the previous current
// structure in the same transaction.
func (r *FeeStructureRepository) Create(ctx context.Context, s *models.FeeStructure) error {
	lineItems, err := json.Marshal(orEmpty(s.LineItems))
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}
	installments, err := json.Marshal(orEmptyInstallments(s.InstallmentAmounts))
	if err != nil {
		return fmt.Errorf("failed to encode installment amounts: %w", err)
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE fee_structures SET is_current=FALSE, updated_at=CURRENT_TIMESTAMP WHERE is_current`); err != nil {
		return fmt.Errorf("failed to demote current structure: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO fee_structures(
			name, amount, cycle, late_fine_per_day,
			tax_type, gst_rate, gst_supply_type, cess_rate, sac_code, hsn_code,
			line_items, allow_installments, installment_count, installment_amounts,
			is_current, created_by_user_id)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, TRUE, $15)
         RETURNING id, created_at, updated_at`,
		s.Name, s.Amount, s.Cycle, s.LateFinePerDay,
		s.TaxType, s.GSTRate, s.GSTSupplyType, s.CessRate, s.SACCode, s.HSNCode,
		lineItems, s.AllowInstallments, s.InstallmentCount, installments,
		s.CreatedByUserID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fee structure: %w", err)
	}
	s.IsCurrent = true

	return tx.Commit(ctx)
}

func (r *FeeStructureRepository) Get(ctx context.Context, id int) (*models.FeeStructure, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+feeStructureColumns+` FROM fee_structures WHERE id=$1`, id)
	return scanFeeStructure(row)
}

// GetCurrent returns the single current structure, or pgx.ErrNoRows when none
// has been created yet.
func (r *FeeStructureRepository) GetCurrent(ctx context.Context) (*models.FeeStructure, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+feeStructureColumns+` FROM fee_structures WHERE is_current`)
	return scanFeeStructure(row)
}

func (r *FeeStructureRepository) List(ctx context.Context, includeArchived bool) ([]*models.FeeStructure, error) {
	whereClause := ""
	if !includeArchived {
		whereClause = "WHERE archived_at IS NULL"
	}
	rows, err := r.DB.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM fee_structures %s ORDER BY created_at DESC`, feeStructureColumns, whereClause))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var structures []*models.FeeStructure
	for rows.Next() {
		s, err := scanFeeStructure(rows)
		if err != nil {
			return nil, err
		}
		structures = append(structures, s)
	}
	return structures, rows.Err()
}

// Archive retires a structure without deleting it. Archived structures stay
// readable through the records that reference them.
func (r *FeeStructureRepository) Archive(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE fee_structures
         SET archived_at=CURRENT_TIMESTAMP, is_current=FALSE, updated_at=CURRENT_TIMESTAMP
         WHERE id=$1 AND archived_at IS NULL`, id)
	return err
}

// RecordCount reports how many fee records reference a structure
func (r *FeeStructureRepository) RecordCount(ctx context.Context, id int) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM fee_records WHERE fee_structure_id=$1`, id).Scan(&count)
	return count, err
}

// ReplacePreview summarizes what demoting the current structure would touch
func (r *FeeStructureRepository) ReplacePreview(ctx context.Context) (*models.ReplacePreview, error) {
	preview := &models.ReplacePreview{}

	current, err := r.GetCurrent(ctx)
	if err != nil {
		// No current structure means the new one replaces nothing
		return preview, nil
	}
	preview.CurrentStructureID = &current.ID
	preview.CurrentStructureName = current.Name

	err = r.DB.QueryRow(ctx,
		`SELECT COUNT(DISTINCT member_id), COUNT(*), COALESCE(SUM(balance), 0)
         FROM fee_records
         WHERE fee_structure_id=$1 AND status NOT IN ('PAID', 'WAIVED')`,
		current.ID,
	).Scan(&preview.AffectedMembers, &preview.ActiveRecords, &preview.OutstandingBalance)
	if err != nil {
		return nil, err
	}
	return preview, nil
}

func orEmpty(items []models.FeeLineItem) []models.FeeLineItem {
	if items == nil {
		return []models.FeeLineItem{}
	}
	return items
}

func orEmptyInstallments(items []models.InstallmentItem) []models.InstallmentItem {
	if items == nil {
		return []models.InstallmentItem{}
	}
	return items
}
