package whispers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, w *Whisper) error
	GetByID(ctx context.Context, id uuid.UUID) (*Whisper, error)
	ListInbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error)
	ListOutbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error)
	MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, w *Whisper) error {
	query := `
		INSERT INTO whispers (id, from_user_id, to_user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, w.ID, w.FromUserID, w.ToUserID, w.Body, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting whisper: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Whisper, error) {
	query := `
		SELECT id, from_user_id, to_user_id, body, read_at, created_at
		FROM whispers WHERE id = $1`

	w := &Whisper{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.FromUserID, &w.ToUserID, &w.Body, &w.ReadAt, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying whisper: %w", err)
	}
	return w, nil
}

func (r *postgresRepository) ListInbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error) {
	query := `
		SELECT w.id, w.from_user_id, w.to_user_id, uf.handle, ut.handle, w.body, w.read_at, w.created_at
		FROM whispers w
		JOIN users uf ON uf.id = w.from_user_id
		JOIN users ut ON ut.id = w.to_user_id
		WHERE w.to_user_id = $1
		ORDER BY w.created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *postgresRepository) ListOutbox(ctx context.Context, userID uuid.UUID) ([]Whisper, error) {
	query := `
		SELECT w.id, w.from_user_id, w.to_user_id, uf.handle, ut.handle, w.body, w.read_at, w.created_at
		FROM whispers w
		JOIN users uf ON uf.id = w.from_user_id
		JOIN users ut ON ut.id = w.to_user_id
		WHERE w.from_user_id = $1
		ORDER BY w.created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *postgresRepository) list(ctx context.Context, query string, userID uuid.UUID) ([]Whisper, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing whispers: %w", err)
	}
	defer rows.Close()

	var list []Whisper
	for rows.Next() {
		var w Whisper
		err := rows.Scan(&w.ID, &w.FromUserID, &w.ToUserID, &w.FromHandle, &w.ToHandle,
			&w.Body, &w.ReadAt, &w.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning whisper row: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func (r *postgresRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) error {
	// Marking an already-read whisper is a no-op, not an error.
	_, err := r.pool.Exec(ctx,
		`UPDATE whispers SET read_at = $2 WHERE id = $1 AND read_at IS NULL`, id, readAt)
	if err != nil {
		return fmt.Errorf("marking whisper read: %w", err)
	}
	return nil
}
