package repositories

import (
	"context"
	"fmt"
	"time"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

const onlineTxColumns = `
	id, razorpay_order_id, COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_signature, ''),
	fee_record_id, member_id, COALESCE(member_name, ''), COALESCE(member_phone, ''),
	amount, COALESCE(utr_number, ''), COALESCE(payment_method, ''), COALESCE(bank, ''), COALESCE(vpa, ''),
	status, COALESCE(failure_reason, ''), fee_payment_id, created_at, completed_at`

func scanOnlineTx(row interface{ Scan(...interface{}) error }) (*models.OnlineTransaction, error) {
	tx := &models.OnlineTransaction{}
	err := row.Scan(
		&tx.ID, &tx.RazorpayOrderID, &tx.RazorpayPaymentID, &tx.RazorpaySignature,
		&tx.FeeRecordID, &tx.MemberID, &tx.MemberName, &tx.MemberPhone,
		&tx.Amount, &tx.UTRNumber, &tx.PaymentMethod, &tx.Bank, &tx.VPA,
		&tx.Status, &tx.FailureReason, &tx.FeePaymentID, &tx.CreatedAt, &tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, tx *models.OnlineTransaction) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(
			razorpay_order_id, fee_record_id, member_id, member_name, member_phone, amount, status)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		tx.RazorpayOrderID, tx.FeeRecordID, tx.MemberID, tx.MemberName, tx.MemberPhone,
		tx.Amount, models.OnlineTxStatusPending,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create online transaction: %w", err)
	}
	tx.Status = models.OnlineTxStatusPending
	return nil
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+onlineTxColumns+` FROM online_transactions WHERE razorpay_order_id=$1`, orderID)
	return scanOnlineTx(row)
}

func (r *OnlineTransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.OnlineTransaction, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+onlineTxColumns+` FROM online_transactions WHERE razorpay_payment_id=$1`, paymentID)
	return scanOnlineTx(row)
}

// MarkSuccess records the captured payment details from the gateway
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, orderID, paymentID, signature, utr, method, bank, vpa string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET razorpay_payment_id=$2, razorpay_signature=$3, utr_number=$4,
             payment_method=$5, bank=$6, vpa=$7,
             status=$8, completed_at=$9
         WHERE razorpay_order_id=$1`,
		orderID, paymentID, signature, utr, method, bank, vpa,
		models.OnlineTxStatusSuccess, time.Now())
	return err
}

// MarkFailed stores the gateway failure reason for the failed-attempts list
func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, paymentID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET razorpay_payment_id=$2, status=$3, failure_reason=$4, completed_at=$5
         WHERE razorpay_order_id=$1`,
		orderID, paymentID, models.OnlineTxStatusFailed, reason, time.Now())
	return err
}

// MarkCancelled closes an order the payer dismissed. Only pending orders move.
func (r *OnlineTransactionRepository) MarkCancelled(ctx context.Context, orderID string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status=$2, completed_at=$3
         WHERE razorpay_order_id=$1 AND status=$4`,
		orderID, models.OnlineTxStatusCancelled, time.Now(), models.OnlineTxStatusPending)
	return err
}

// LinkFeePayment ties the transaction to the payment it produced
func (r *OnlineTransactionRepository) LinkFeePayment(ctx context.Context, orderID string, feePaymentID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET fee_payment_id=$2 WHERE razorpay_order_id=$1`,
		orderID, feePaymentID)
	return err
}

// List returns transactions matching the filter plus the unpaginated total
func (r *OnlineTransactionRepository) List(ctx context.Context, filter models.OnlineTransactionFilter) ([]*models.OnlineTransaction, int, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 0

	if filter.MemberID > 0 {
		argNum++
		whereClause += fmt.Sprintf(" AND member_id = $%d", argNum)
		args = append(args, filter.MemberID)
	}
	if filter.FeeRecordID > 0 {
		argNum++
		whereClause += fmt.Sprintf(" AND fee_record_id = $%d", argNum)
		args = append(args, filter.FeeRecordID)
	}
	if filter.Status != "" {
		argNum++
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
	}
	if filter.StartDate != nil {
		argNum++
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		argNum++
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *filter.EndDate)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM online_transactions %s", whereClause)
	var total int
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	query := fmt.Sprintf(
		`SELECT %s FROM online_transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		onlineTxColumns, whereClause, argNum+1, argNum+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []*models.OnlineTransaction
	for rows.Next() {
		tx, err := scanOnlineTx(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, total, rows.Err()
}

// ListFailed returns failed attempts, newest first. Cancelled orders are
// excluded; dismissing a checkout is not a failure.
func (r *OnlineTransactionRepository) ListFailed(ctx context.Context, limit int) ([]*models.OnlineTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+onlineTxColumns+` FROM online_transactions
         WHERE status=$1 ORDER BY created_at DESC LIMIT $2`,
		models.OnlineTxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.OnlineTransaction
	for rows.Next() {
		tx, err := scanOnlineTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// ListPendingOlderThan feeds reconciliation of orders the client never
// reported back on.
func (r *OnlineTransactionRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]*models.OnlineTransaction, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+onlineTxColumns+` FROM online_transactions
         WHERE status=$1 AND created_at < $2 ORDER BY created_at`,
		models.OnlineTxStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.OnlineTransaction
	for rows.Next() {
		tx, err := scanOnlineTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Summary aggregates gateway activity in the given window
func (r *OnlineTransactionRepository) Summary(ctx context.Context, startDate, endDate *time.Time) (*models.OnlinePaymentSummary, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 0

	if startDate != nil {
		argNum++
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *startDate)
	}
	if endDate != nil {
		argNum++
		whereClause += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *endDate)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'success'),
		       COUNT(*) FILTER (WHERE status = 'failed'),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'success'), 0)
		FROM online_transactions %s`, whereClause)

	summary := &models.OnlinePaymentSummary{}
	err := r.DB.QueryRow(ctx, query, args...).Scan(
		&summary.TotalTransactions, &summary.SuccessfulPayments,
		&summary.FailedTransactions, &summary.PendingOrders, &summary.TotalCollected)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
