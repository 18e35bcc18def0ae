package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TOTPRepository struct {
	DB *pgxpool.Pool
}

func NewTOTPRepository(db *pgxpool.Pool) *TOTPRepository {
	return &TOTPRepository{DB: db}
}

// RecordAttempt logs a 2FA code verification for rate limiting and audit
func (r *TOTPRepository) RecordAttempt(ctx context.Context, userID int, ipAddress string, success bool) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO totp_attempts(user_id, ip_address, success) VALUES($1, $2, $3)`,
		userID, ipAddress, success)
	return err
}

// CountRecentFailures counts failed attempts within the window, used to
// lock out brute-force code guessing.
func (r *TOTPRepository) CountRecentFailures(ctx context.Context, userID int, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM totp_attempts
         WHERE user_id=$1 AND success=FALSE AND created_at >= $2`,
		userID, since).Scan(&count)
	return count, err
}
