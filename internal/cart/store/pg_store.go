package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	readSlotSQL  = `SELECT value FROM cart_slots WHERE key = $1`
	writeSlotSQL = `INSERT INTO cart_slots (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// PgStore implements Slot on the cart_slots table.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Slot using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRow(ctx, readSlotSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return value, true, nil
}

func (p *PgStore) Write(ctx context.Context, key, value string) error {
	if _, err := p.db.Exec(ctx, writeSlotSQL, key, value); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}
