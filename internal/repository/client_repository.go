package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfhouse/intake/internal/domain"
)

type ClientRepository interface {
	Create(ctx context.Context, rec domain.ClientRecord) (*domain.Client, error)
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	Put(ctx context.Context, id string, c domain.Client) (*domain.Client, error)
	Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Client, error)
	SetCheckedIn(ctx context.Context, id string, checkedIn bool) (*domain.Client, error)
	SetBanned(ctx context.Context, id string, banned bool) (*domain.Client, error)
}

type clientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientCols = `id, first_name, last_name, first_name_lower, last_name_lower,
middle_initial, birthday, gender, race, postal_code,
num_kids, notes, is_checked_in, is_banned, created_at, updated_at`

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.FirstNameLower, &c.LastNameLower,
		&c.MiddleInitial, &c.Birthday, &c.Gender, &c.Race, &c.PostalCode,
		&c.NumKids, &c.Notes, &c.IsCheckedIn, &c.IsBanned, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepository) Create(ctx context.Context, rec domain.ClientRecord) (*domain.Client, error) {
	const q = `INSERT INTO clients (
		id, first_name, last_name, first_name_lower, last_name_lower,
		middle_initial, birthday, gender, race, postal_code,
		num_kids, notes, is_checked_in, is_banned
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	RETURNING ` + clientCols

	// Defaulting for absent fields happens here, once.
	c := rec.Defaulted(time.Now())

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanClient(r.pool.QueryRow(ctx, q, uuid.NewString(),
		c.FirstName, c.LastName, c.FirstNameLower, c.LastNameLower,
		c.MiddleInitial, c.Birthday, c.Gender, c.Race, c.PostalCode,
		c.NumKids, c.Notes, c.IsCheckedIn, c.IsBanned,
	))
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanClient(r.pool.QueryRow(ctx, q, id))
}

// Put unconditionally overwrites the document at id; last write wins.
// The lower-cased name mirrors are recomputed so the search invariant
// holds on every write path.
func (r *clientRepository) Put(ctx context.Context, id string, c domain.Client) (*domain.Client, error) {
	const q = `
		UPDATE clients
		SET
			first_name       = $2,
			last_name        = $3,
			first_name_lower = $4,
			last_name_lower  = $5,
			middle_initial   = $6,
			birthday         = $7,
			gender           = $8,
			race             = $9,
			postal_code      = $10,
			num_kids         = $11,
			notes            = $12,
			is_checked_in    = $13,
			is_banned        = $14,
			updated_at       = now()
		WHERE id=$1
		RETURNING ` + clientCols

	c.Normalize()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanClient(r.pool.QueryRow(ctx, q, id,
		c.FirstName, c.LastName, c.FirstNameLower, c.LastNameLower,
		c.MiddleInitial, c.Birthday, c.Gender, c.Race, c.PostalCode,
		c.NumKids, c.Notes, c.IsCheckedIn, c.IsBanned,
	))
}

// Search filters by lower-cased name prefixes and, when enabled, exact
// birthday. An empty filter lists all clients up to limit.
func (r *clientRepository) Search(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.Client, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := `SELECT ` + clientCols + ` FROM clients WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}

	if filter.FirstNameLower != "" {
		q += ` AND first_name_lower LIKE ` + arg(likePrefix(filter.FirstNameLower))
	}
	if filter.LastNameLower != "" {
		q += ` AND last_name_lower LIKE ` + arg(likePrefix(filter.LastNameLower))
	}
	if filter.FilterByBirthday {
		q += ` AND birthday = ` + arg(filter.Birthday)
	}
	q += ` ORDER BY last_name_lower, first_name_lower LIMIT ` + arg(limit)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(
			&c.ID, &c.FirstName, &c.LastName, &c.FirstNameLower, &c.LastNameLower,
			&c.MiddleInitial, &c.Birthday, &c.Gender, &c.Race, &c.PostalCode,
			&c.NumKids, &c.Notes, &c.IsCheckedIn, &c.IsBanned, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientRepository) SetCheckedIn(ctx context.Context, id string, checkedIn bool) (*domain.Client, error) {
	const q = `UPDATE clients SET is_checked_in=$2, updated_at=now() WHERE id=$1 RETURNING ` + clientCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanClient(r.pool.QueryRow(ctx, q, id, checkedIn))
}

func (r *clientRepository) SetBanned(ctx context.Context, id string, banned bool) (*domain.Client, error) {
	const q = `UPDATE clients SET is_banned=$2, updated_at=now() WHERE id=$1 RETURNING ` + clientCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanClient(r.pool.QueryRow(ctx, q, id, banned))
}

// likeEscaper quotes LIKE metacharacters so a literal % or _ in a name
// can't widen the match.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
