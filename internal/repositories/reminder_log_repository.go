package repositories

import (
	"context"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderLogRepository struct {
	DB *pgxpool.Pool
}

func NewReminderLogRepository(db *pgxpool.Pool) *ReminderLogRepository {
	return &ReminderLogRepository{DB: db}
}

func (r *ReminderLogRepository) Create(ctx context.Context, l *models.ReminderLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO reminder_logs(fee_record_id, member_id, phone, message, message_type, status, error, sent_by_user)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, created_at`,
		l.FeeRecordID, l.MemberID, l.Phone, l.Message, l.MessageType, l.Status, l.Error, l.SentByUser,
	).Scan(&l.ID, &l.CreatedAt)
}

func (r *ReminderLogRepository) ListByRecord(ctx context.Context, recordID int) ([]*models.ReminderLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, fee_record_id, member_id, phone, message, message_type, status, COALESCE(error, ''),
                sent_by_user, created_at
         FROM reminder_logs WHERE fee_record_id=$1 ORDER BY created_at DESC`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ReminderLog
	for rows.Next() {
		var l models.ReminderLog
		err := rows.Scan(&l.ID, &l.FeeRecordID, &l.MemberID, &l.Phone, &l.Message, &l.MessageType,
			&l.Status, &l.Error, &l.SentByUser, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
