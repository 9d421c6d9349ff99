package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps values in the kv_store table (see migrations).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv_store get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("kv_store set %s: %w", key, err)
	}
	return nil
}

// IncrBy relies on the row lock taken by ON CONFLICT DO UPDATE for atomicity.
func (s *PostgresStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO kv_store (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
			SET value = ((kv_store.value)::BIGINT + $3::BIGINT)::TEXT,
				updated_at = NOW()
		RETURNING value
	`, key, strconv.FormatInt(delta, 10), delta).Scan(&value)
	if err != nil {
		if isInvalidText(err) {
			return 0, ErrNotInteger
		}
		return 0, fmt.Errorf("kv_store incrby %s: %w", key, err)
	}

	return parseCounter(value)
}

// IncrBelow skips the insert when limit <= 0 and the update when the row is
// already at limit; either way no row comes back and the current value is read.
func (s *PostgresStore) IncrBelow(ctx context.Context, key string, limit int64) (int64, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO kv_store (key, value)
		SELECT $1::TEXT, '1' WHERE $2::BIGINT > 0
		ON CONFLICT (key) DO UPDATE
			SET value = ((kv_store.value)::BIGINT + 1)::TEXT,
				updated_at = NOW()
			WHERE (kv_store.value)::BIGINT < $2::BIGINT
		RETURNING value
	`, key, limit).Scan(&value)
	switch {
	case err == nil:
		n, err := parseCounter(value)
		return n, err == nil, err
	case errors.Is(err, pgx.ErrNoRows):
		current, found, err := s.Get(ctx, key)
		if err != nil || !found {
			return 0, false, err
		}
		n, err := parseCounter(current)
		return n, false, err
	case isInvalidText(err):
		return 0, false, ErrNotInteger
	default:
		return 0, false, fmt.Errorf("kv_store incrbelow %s: %w", key, err)
	}
}

// isInvalidText matches SQLSTATE 22P02 (invalid_text_representation), raised
// when a stored value does not cast to BIGINT.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func parseCounter(value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}
