package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flows (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PGStore implements ports.FlowStore using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Connect opens a pool for the given connection string and creates the schema.
func Connect(ctx context.Context, url string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := New(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchema creates the flows table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the flows table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flows;`)
	return err
}

// Save upserts the flow document.
func (s *PGStore) Save(ctx context.Context, flow *domain.Flow) error {
	if flow == nil || flow.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	data, err := serialization.Encode(flow)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO flows (id, name, document, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, document = EXCLUDED.document, updated_at = NOW()`,
		flow.ID, flow.Name, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// Load retrieves a flow by id.
func (s *PGStore) Load(ctx context.Context, id string) (*domain.Flow, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM flows WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	flow, _, err := serialization.Decode(data)
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// Delete removes a flow.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flows WHERE id = $1`, id)
	return err
}

// List returns all flow ids in ascending order.
func (s *PGStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM flows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Close closes the pool.
func (s *PGStore) Close() {
	s.db.Close()
}
