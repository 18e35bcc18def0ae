package repositories

import (
	"context"
	"time"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository runs the aggregate queries behind the reporting endpoints.
// All windows are half-open on timestamps supplied by the service layer.
type ReportRepository struct {
	DB *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) CollectionSummary(ctx context.Context, start, end time.Time) (*models.CollectionSummary, error) {
	summary := &models.CollectionSummary{StartDate: start, EndDate: end}

	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0)
         FROM fee_payments WHERE paid_at >= $1 AND paid_at < $2`,
		start, end).Scan(&summary.PaymentCount, &summary.TotalCollected)
	if err != nil {
		return nil, err
	}

	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
         FROM fee_refunds WHERE refunded_at >= $1 AND refunded_at < $2`,
		start, end).Scan(&summary.TotalRefunded)
	if err != nil {
		return nil, err
	}

	// Tax collected is attributed from the record proportionally to how much
	// of the final amount was paid in the window.
	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(
			CASE WHEN f.final_amount > 0
			     THEN f.tax_amount * p.amount / f.final_amount
			     ELSE 0 END), 0)
         FROM fee_payments p JOIN fee_records f ON f.id = p.fee_record_id
         WHERE p.paid_at >= $1 AND p.paid_at < $2`,
		start, end).Scan(&summary.TotalTax)
	if err != nil {
		return nil, err
	}

	summary.NetCollected = summary.TotalCollected - summary.TotalRefunded
	return summary, nil
}

func (r *ReportRepository) ModeBreakdown(ctx context.Context, start, end time.Time) ([]models.ModeCollection, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT mode, COUNT(*), COALESCE(SUM(amount), 0)
         FROM fee_payments WHERE paid_at >= $1 AND paid_at < $2
         GROUP BY mode ORDER BY SUM(amount) DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breakdown []models.ModeCollection
	for rows.Next() {
		var mc models.ModeCollection
		if err := rows.Scan(&mc.Mode, &mc.PaymentCount, &mc.Total); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, mc)
	}
	return breakdown, rows.Err()
}

// ListPaymentsBetween returns payments in the window with member context,
// for the collections export.
func (r *ReportRepository) ListPaymentsBetween(ctx context.Context, start, end time.Time) ([]*models.FeePayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT p.id, p.fee_record_id, p.receipt_number, p.amount, p.mode,
                COALESCE(p.transaction_ref, ''), COALESCE(p.notes, ''), p.paid_at,
                p.recorded_by_user_id, COALESCE(u.name, '')
         FROM fee_payments p LEFT JOIN users u ON u.id = p.recorded_by_user_id
         WHERE p.paid_at >= $1 AND p.paid_at < $2
         ORDER BY p.paid_at`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.FeePayment
	for rows.Next() {
		var p models.FeePayment
		err := rows.Scan(&p.ID, &p.FeeRecordID, &p.ReceiptNumber, &p.Amount, &p.Mode,
			&p.TransactionRef, &p.Notes, &p.PaidAt, &p.RecordedByUserID, &p.RecordedByName)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

// Dues lists every unsettled record with its balance, largest balance first
func (r *ReportRepository) Dues(ctx context.Context) (*models.DuesReport, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT f.id, f.member_id, m.name, m.phone, COALESCE(m.batch, ''),
                f.final_amount, f.paid_amount, f.balance, f.status, f.due_date
         FROM fee_records f JOIN members m ON m.id = f.member_id
         WHERE f.status IN ('PENDING', 'PARTIALLY_PAID', 'OVERDUE')
         ORDER BY f.balance DESC, f.due_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &models.DuesReport{Rows: []models.DuesRow{}}
	for rows.Next() {
		var row models.DuesRow
		err := rows.Scan(&row.FeeRecordID, &row.MemberID, &row.MemberName, &row.MemberPhone, &row.Batch,
			&row.FinalAmount, &row.PaidAmount, &row.Balance, &row.Status, &row.DueDate)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, row)
		report.TotalOutstanding += row.Balance
	}
	report.RecordCount = len(report.Rows)
	return report, rows.Err()
}
