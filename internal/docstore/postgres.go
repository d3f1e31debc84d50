package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single JSONB table (see migrations/).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const query = `
        SELECT data FROM documents WHERE collection=$1 AND id=$2`

	var data Document
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapPostgresError(err)
	}
	return data, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, doc Document, opts ...SetOption) error {
	o := applySetOptions(opts)
	payload, err := encodeJSON(doc)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if o.merge {
		query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	}

	_, err = s.pool.Exec(ctx, query, collection, id, payload)
	return mapPostgresError(err)
}

func (s *PostgresStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	const query = `
        INSERT INTO documents (collection, id, data)
        VALUES ($1, $2, $3::jsonb)`

	payload, err := encodeJSON(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, query, collection, id, payload); err != nil {
		return "", mapPostgresError(err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, partial Document) error {
	const query = `
        UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
        WHERE collection=$1 AND id=$2`

	payload, err := encodeJSON(partial)
	if err != nil {
		return err
	}
	cmd, err := s.pool.Exec(ctx, query, collection, id, payload)
	if err != nil {
		return mapPostgresError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	const query = `
        DELETE FROM documents WHERE collection=$1 AND id=$2`

	_, err := s.pool.Exec(ctx, query, collection, id)
	return mapPostgresError(err)
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter) ([]Snapshot, error) {
	const query = `
        SELECT id, data FROM documents
        WHERE collection=$1 AND data -> $2 = $3::jsonb
        ORDER BY id`

	value, err := json.Marshal(filter.Value)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, collection, filter.Field, string(value))
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return collectSnapshots(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context, collection string) ([]Snapshot, error) {
	const query = `
        SELECT id, data FROM documents WHERE collection=$1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return collectSnapshots(rows)
}

func collectSnapshots(rows pgx.Rows) ([]Snapshot, error) {
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Data); err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return result, mapPostgresError(rows.Err())
}

func encodeJSON(doc Document) (string, error) {
	if doc == nil {
		doc = Document{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

// mapPostgresError maps PostgreSQL-specific errors to sentinel errors.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.ConstraintName)
	case pgerrcode.UndefinedTable:
		return fmt.Errorf("documents table missing (run migrations): %w", err)
	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow:
		return fmt.Errorf("database connection error: %w", err)
	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pgErr.Code, pgErr.Message, err)
	}
}
