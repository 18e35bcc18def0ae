package repositories

import (
	"context"
	"fmt"

	"fee-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MemberRepository struct {
	DB *pgxpool.Pool
}

func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{DB: db}
}

func (r *MemberRepository) Create(ctx context.Context, m *models.Member) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO members(name, phone, email, guardian_name, batch)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, joined_at, is_active, created_at, updated_at`,
		m.Name, m.Phone, m.Email, m.GuardianName, m.Batch,
	).Scan(&m.ID, &m.JoinedAt, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MemberRepository) Get(ctx context.Context, id int) (*models.Member, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, phone, COALESCE(email, ''), COALESCE(guardian_name, ''), COALESCE(batch, ''),
                joined_at, is_active, created_at, updated_at, deleted_at
         FROM members WHERE id=$1 AND deleted_at IS NULL`, id)

	var m models.Member
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &m.GuardianName, &m.Batch,
		&m.JoinedAt, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetByPhone(ctx context.Context, phone string) (*models.Member, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, phone, COALESCE(email, ''), COALESCE(guardian_name, ''), COALESCE(batch, ''),
                joined_at, is_active, created_at, updated_at, deleted_at
         FROM members WHERE phone=$1 AND deleted_at IS NULL`, phone)

	var m models.Member
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &m.GuardianName, &m.Batch,
		&m.JoinedAt, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns members, newest first. Search matches name or phone.
func (r *MemberRepository) List(ctx context.Context, search string, activeOnly bool) ([]*models.Member, error) {
	whereClause := "WHERE deleted_at IS NULL"
	args := []interface{}{}
	argNum := 0

	if search != "" {
		argNum++
		whereClause += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+search+"%")
	}
	if activeOnly {
		whereClause += " AND is_active"
	}

	query := fmt.Sprintf(`
		SELECT id, name, phone, COALESCE(email, ''), COALESCE(guardian_name, ''), COALESCE(batch, ''),
		       joined_at, is_active, created_at, updated_at, deleted_at
		FROM members %s ORDER BY created_at DESC`, whereClause)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var m models.Member
		err := rows.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &m.GuardianName, &m.Batch,
			&m.JoinedAt, &m.IsActive, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt)
		if err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) Update(ctx context.Context, m *models.Member) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE members SET name=$1, phone=$2, email=$3, guardian_name=$4, batch=$5, is_active=$6,
                updated_at=CURRENT_TIMESTAMP
         WHERE id=$7 AND deleted_at IS NULL`,
		m.Name, m.Phone, m.Email, m.GuardianName, m.Batch, m.IsActive, m.ID)
	return err
}

// SoftDelete hides the member from listings. Fee records keep the reference.
func (r *MemberRepository) SoftDelete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE members SET deleted_at=CURRENT_TIMESTAMP, is_active=FALSE WHERE id=$1 AND deleted_at IS NULL`, id)
	return err
}
