package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfhouse/intake/internal/domain"
)

type StaffRepository interface {
	Create(ctx context.Context, s *domain.Staff) (*domain.Staff, error)
	FindByEmail(ctx context.Context, email string) (*domain.Staff, error)
	FindByID(ctx context.Context, id int64) (*domain.Staff, error)
	MarkVerified(ctx context.Context, id int64) error
}

type staffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffCols = `id, role, email, password_hash, name, is_verified, created_at, updated_at`

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var s domain.Staff
	err := row.Scan(&s.ID, &s.Role, &s.Email, &s.PasswordHash, &s.Name, &s.IsVerified, &s.CreatedAt, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *staffRepository) Create(ctx context.Context, s *domain.Staff) (*domain.Staff, error) {
	const q = `INSERT INTO staff (role, email, password_hash, name)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + staffCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanStaff(r.pool.QueryRow(ctx, q, s.Role, s.Email, s.PasswordHash, s.Name))
}

func (r *staffRepository) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	const q = `SELECT ` + staffCols + ` FROM staff WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanStaff(r.pool.QueryRow(ctx, q, email))
}

func (r *staffRepository) FindByID(ctx context.Context, id int64) (*domain.Staff, error) {
	const q = `SELECT ` + staffCols + ` FROM staff WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanStaff(r.pool.QueryRow(ctx, q, id))
}

func (r *staffRepository) MarkVerified(ctx context.Context, id int64) error {
	const q = `UPDATE staff SET is_verified=TRUE, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}
