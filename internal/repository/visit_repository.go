package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfhouse/intake/internal/domain"
)

type VisitRepository interface {
	Create(ctx context.Context, clientID string, rec domain.VisitRecord) (*domain.Visit, error)
	GetByID(ctx context.Context, clientID, visitID string) (*domain.Visit, error)
	ListByClient(ctx context.Context, clientID string, limit int) ([]domain.Visit, error)
}

type visitRepository struct {
	pool *pgxpool.Pool
}

func NewVisitRepository(pool *pgxpool.Pool) VisitRepository {
	return &visitRepository{pool: pool}
}

const visitCols = `id, client_id, ts, household, notes,
clothing_men, clothing_women, clothing_boy, clothing_girl, backpack, sleeping_bag,
bus_ticket, gift_card, diaper, financial_assistance`

func scanVisit(row pgx.Row) (*domain.Visit, error) {
	var v domain.Visit
	err := row.Scan(
		&v.ID, &v.ClientID, &v.Timestamp, &v.Household, &v.Notes,
		&v.ClothingMen, &v.ClothingWomen, &v.ClothingBoy, &v.ClothingGirl, &v.Backpack, &v.SleepingBag,
		&v.BusTicket, &v.GiftCard, &v.Diaper, &v.FinancialAssistance,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *visitRepository) Create(ctx context.Context, clientID string, rec domain.VisitRecord) (*domain.Visit, error) {
	const q = `INSERT INTO visits (
		id, client_id, ts, household, notes,
		clothing_men, clothing_women, clothing_boy, clothing_girl, backpack, sleeping_bag,
		bus_ticket, gift_card, diaper, financial_assistance
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	RETURNING ` + visitCols

	v := rec.Defaulted(time.Now())

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, uuid.NewString(), clientID,
		v.Timestamp, v.Household, v.Notes,
		v.ClothingMen, v.ClothingWomen, v.ClothingBoy, v.ClothingGirl, v.Backpack, v.SleepingBag,
		v.BusTicket, v.GiftCard, v.Diaper, v.FinancialAssistance,
	))
}

// GetByID is scoped to the owning client, so a visit id under the wrong
// client resolves to not-found.
func (r *visitRepository) GetByID(ctx context.Context, clientID, visitID string) (*domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE id=$1 AND client_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanVisit(r.pool.QueryRow(ctx, q, visitID, clientID))
}

func (r *visitRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]domain.Visit, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	const q = `SELECT ` + visitCols + ` FROM visits WHERE client_id=$1 ORDER BY ts DESC LIMIT $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.Visit
	for rows.Next() {
		var v domain.Visit
		if err := rows.Scan(
			&v.ID, &v.ClientID, &v.Timestamp, &v.Household, &v.Notes,
			&v.ClothingMen, &v.ClothingWomen, &v.ClothingBoy, &v.ClothingGirl, &v.Backpack, &v.SleepingBag,
			&v.BusTicket, &v.GiftCard, &v.Diaper, &v.FinancialAssistance,
		); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
