package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerificationRepository stores one-time email verification tokens.
type VerificationRepository interface {
	CreateEmailVerification(ctx context.Context, token string, staffID int64, expiresAt time.Time) error
	// ConsumeEmailVerification deletes the token and returns the staff id
	// it belonged to. Returns 0 when the token is unknown or expired.
	ConsumeEmailVerification(ctx context.Context, token string) (int64, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

func (r *verificationRepository) CreateEmailVerification(ctx context.Context, token string, staffID int64, expiresAt time.Time) error {
	const q = `INSERT INTO staff_verifications (token, staff_id, expires_at) VALUES ($1,$2,$3)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, token, staffID, expiresAt)
	return err
}

func (r *verificationRepository) ConsumeEmailVerification(ctx context.Context, token string) (int64, error) {
	const q = `DELETE FROM staff_verifications
		WHERE token=$1 AND expires_at > now()
		RETURNING staff_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var staffID int64
	err := r.pool.QueryRow(ctx, q, token).Scan(&staffID)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return staffID, nil
}
