package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FeeRecordRepository struct {
	DB *pgxpool.Pool
}

func NewFeeRecordRepository(db *pgxpool.Pool) *FeeRecordRepository {
	return &FeeRecordRepository{DB: db}
}

const feeRecordColumns = `
	f.id, f.member_id, m.name, m.phone, f.fee_structure_id,
	f.base_amount, f.discount_amount, f.fine_amount, f.final_amount, f.paid_amount, f.balance,
	f.status, f.due_date, f.paid_at,
	f.tax_type, f.gst_rate, f.tax_amount, f.cgst_amount, f.sgst_amount, f.igst_amount, f.cess_amount,
	COALESCE(f.sac_code, ''), f.line_items,
	f.waived_at, COALESCE(f.waive_reason, ''), f.reminder_sent_at,
	f.created_at, f.updated_at`

func scanFeeRecord(row interface{ Scan(...interface{}) error }) (*models.FeeRecord, error) {
	var rec models.FeeRecord
	var lineItems []byte
	err := row.Scan(
		&rec.ID, &rec.MemberID, &rec.MemberName, &rec.MemberPhone, &rec.FeeStructureID,
		&rec.BaseAmount, &rec.DiscountAmount, &rec.FineAmount, &rec.FinalAmount, &rec.PaidAmount, &rec.Balance,
		&rec.Status, &rec.DueDate, &rec.PaidAt,
		&rec.TaxType, &rec.GSTRate, &rec.TaxAmount, &rec.CGSTAmount, &rec.SGSTAmount, &rec.IGSTAmount, &rec.CessAmount,
		&rec.SACCode, &lineItems,
		&rec.WaivedAt, &rec.WaiveReason, &rec.ReminderSentAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lineItems, &rec.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return &rec, nil
}

func (r *FeeRecordRepository) Create(ctx context.Context, rec *models.FeeRecord) error {
	lineItems, err := json.Marshal(orEmpty(rec.LineItems))
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	return r.DB.QueryRow(ctx,
		`INSERT INTO fee_records(
			member_id, fee_structure_id,
			base_amount, discount_amount, fine_amount, final_amount, paid_amount, balance,
			status, due_date,
			tax_type, gst_rate, tax_amount, cgst_amount, sgst_amount, igst_amount, cess_amount,
			sac_code, line_items)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
         RETURNING id, created_at, updated_at`,
		rec.MemberID, rec.FeeStructureID,
		rec.BaseAmount, rec.DiscountAmount, rec.FineAmount, rec.FinalAmount, rec.PaidAmount, rec.Balance,
		rec.Status, rec.DueDate,
		rec.TaxType, rec.GSTRate, rec.TaxAmount, rec.CGSTAmount, rec.SGSTAmount, rec.IGSTAmount, rec.CessAmount,
		rec.SACCode, lineItems,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// Get loads a record with its member, payments and refunds
func (r *FeeRecordRepository) Get(ctx context.Context, id int) (*models.FeeRecord, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+feeRecordColumns+`
         FROM fee_records f JOIN members m ON m.id = f.member_id
         WHERE f.id=$1`, id)

	rec, err := scanFeeRecord(row)
	if err != nil {
		return nil, err
	}

	rec.Payments, err = r.ListPayments(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Refunds, err = r.ListRefunds(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records matching the filter plus the unpaginated total
func (r *FeeRecordRepository) List(ctx context.Context, filter models.FeeRecordFilter) ([]*models.FeeRecord, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 0

	if filter.MemberID > 0 {
		argNum++
		whereClause += fmt.Sprintf(" AND f.member_id = $%d", argNum)
		args = append(args, filter.MemberID)
	}
	if filter.Status != "" {
		argNum++
		whereClause += fmt.Sprintf(" AND f.status = $%d", argNum)
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		argNum++
		whereClause += fmt.Sprintf(" AND (m.name ILIKE $%d OR m.phone ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+filter.Search+"%")
	}

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM fee_records f JOIN members m ON m.id = f.member_id %s`, whereClause)
	var total int
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	query := fmt.Sprintf(
		`SELECT %s FROM fee_records f JOIN members m ON m.id = f.member_id
         %s ORDER BY f.due_date DESC, f.id DESC LIMIT $%d OFFSET $%d`,
		feeRecordColumns, whereClause, argNum+1, argNum+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.FeeRecord
	for rows.Next() {
		rec, err := scanFeeRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Update persists recomputed amounts and status
func (r *FeeRecordRepository) Update(ctx context.Context, rec *models.FeeRecord) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE fee_records
         SET fine_amount=$1, final_amount=$2, paid_amount=$3, balance=$4, status=$5, paid_at=$6,
             updated_at=CURRENT_TIMESTAMP
         WHERE id=$7`,
		rec.FineAmount, rec.FinalAmount, rec.PaidAmount, rec.Balance, rec.Status, rec.PaidAt, rec.ID)
	return err
}

// AddPayment allocates the next receipt number, inserts the payment and
// persists the record's recomputed totals in one transaction.
func (r *FeeRecordRepository) AddPayment(ctx context.Context, p *models.FeePayment, rec *models.FeeRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var nextNum int
	if err := tx.QueryRow(ctx, `SELECT nextval('receipt_number_sequence')`).Scan(&nextNum); err != nil {
		return fmt.Errorf("failed to allocate receipt number: %w", err)
	}
	p.ReceiptNumber = fmt.Sprintf("RCP-%06d", nextNum)

	err = tx.QueryRow(ctx,
		`INSERT INTO fee_payments(
			fee_record_id, receipt_number, amount, mode, transaction_ref,
			razorpay_order_id, razorpay_payment_id, notes, paid_at, recorded_by_user_id)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, created_at`,
		p.FeeRecordID, p.ReceiptNumber, p.Amount, p.Mode, p.TransactionRef,
		p.RazorpayOrderID, p.RazorpayPaymentID, p.Notes, p.PaidAt, p.RecordedByUserID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE fee_records
         SET paid_amount=$1, balance=$2, status=$3, paid_at=$4, updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		rec.PaidAmount, rec.Balance, rec.Status, rec.PaidAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record totals: %w", err)
	}

	return tx.Commit(ctx)
}

// AddRefund inserts the refund and persists the record's recomputed totals
// in one transaction.
func (r *FeeRecordRepository) AddRefund(ctx context.Context, ref *models.FeeRefund, rec *models.FeeRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO fee_refunds(fee_record_id, amount, mode, reason, refunded_at, recorded_by_user_id)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		ref.FeeRecordID, ref.Amount, ref.Mode, ref.Reason, ref.RefundedAt, ref.RecordedByUserID,
	).Scan(&ref.ID, &ref.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE fee_records
         SET paid_amount=$1, balance=$2, status=$3, paid_at=$4, updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		rec.PaidAmount, rec.Balance, rec.Status, rec.PaidAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update record totals: %w", err)
	}

	return tx.Commit(ctx)
}

// Waive marks the record waived. Waived is terminal.
func (r *FeeRecordRepository) Waive(ctx context.Context, id int, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE fee_records
         SET status='WAIVED', balance=0, waived_at=CURRENT_TIMESTAMP, waive_reason=$1,
             updated_at=CURRENT_TIMESTAMP
         WHERE id=$2`, reason, id)
	return err
}

func (r *FeeRecordRepository) MarkReminderSent(ctx context.Context, id int, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE fee_records SET reminder_sent_at=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, at, id)
	return err
}

func (r *FeeRecordRepository) ListPayments(ctx context.Context, recordID int) ([]*models.FeePayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT p.id, p.fee_record_id, p.receipt_number, p.amount, p.mode,
                COALESCE(p.transaction_ref, ''), COALESCE(p.razorpay_order_id, ''),
                COALESCE(p.razorpay_payment_id, ''), COALESCE(p.notes, ''),
                p.paid_at, p.recorded_by_user_id, COALESCE(u.name, ''), p.created_at
         FROM fee_payments p LEFT JOIN users u ON u.id = p.recorded_by_user_id
         WHERE p.fee_record_id=$1 ORDER BY p.paid_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.FeePayment
	for rows.Next() {
		var p models.FeePayment
		err := rows.Scan(&p.ID, &p.FeeRecordID, &p.ReceiptNumber, &p.Amount, &p.Mode,
			&p.TransactionRef, &p.RazorpayOrderID, &p.RazorpayPaymentID, &p.Notes,
			&p.PaidAt, &p.RecordedByUserID, &p.RecordedByName, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *FeeRecordRepository) ListRefunds(ctx context.Context, recordID int) ([]*models.FeeRefund, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, fee_record_id, amount, mode, COALESCE(reason, ''),
                refunded_at, recorded_by_user_id, created_at
         FROM fee_refunds WHERE fee_record_id=$1 ORDER BY refunded_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []*models.FeeRefund
	for rows.Next() {
		var ref models.FeeRefund
		err := rows.Scan(&ref.ID, &ref.FeeRecordID, &ref.Amount, &ref.Mode, &ref.Reason,
			&ref.RefundedAt, &ref.RecordedByUserID, &ref.CreatedAt)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, &ref)
	}
	return refunds, rows.Err()
}

// GetPayment loads a single payment with its member context for receipts
func (r *FeeRecordRepository) GetPayment(ctx context.Context, paymentID int) (*models.FeePayment, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT p.id, p.fee_record_id, p.receipt_number, p.amount, p.mode,
                COALESCE(p.transaction_ref, ''), COALESCE(p.razorpay_order_id, ''),
                COALESCE(p.razorpay_payment_id, ''), COALESCE(p.notes, ''),
                p.paid_at, p.recorded_by_user_id, COALESCE(u.name, ''), p.created_at
         FROM fee_payments p LEFT JOIN users u ON u.id = p.recorded_by_user_id
         WHERE p.id=$1`, paymentID)

	var p models.FeePayment
	err := row.Scan(&p.ID, &p.FeeRecordID, &p.ReceiptNumber, &p.Amount, &p.Mode,
		&p.TransactionRef, &p.RazorpayOrderID, &p.RazorpayPaymentID, &p.Notes,
		&p.PaidAt, &p.RecordedByUserID, &p.RecordedByName, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HasPaymentWithRef reports whether the record already has a payment carrying
// the given gateway payment ID. Used to keep webhook and verify idempotent.
func (r *FeeRecordRepository) HasPaymentWithRef(ctx context.Context, recordID int, razorpayPaymentID string) (bool, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM fee_payments WHERE fee_record_id=$1 AND razorpay_payment_id=$2`,
		recordID, razorpayPaymentID).Scan(&count)
	return count > 0, err
}

// ListOutstanding returns unsettled records due on or before the cutoff,
// ordered oldest due first. Feeds fine accrual and reminder sweeps.
func (r *FeeRecordRepository) ListOutstanding(ctx context.Context, dueBefore time.Time) ([]*models.FeeRecord, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+feeRecordColumns+`
         FROM fee_records f JOIN members m ON m.id = f.member_id
         WHERE f.status IN ('PENDING', 'PARTIALLY_PAID', 'OVERDUE') AND f.due_date <= $1
         ORDER BY f.due_date`, dueBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.FeeRecord
	for rows.Next() {
		rec, err := scanFeeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
