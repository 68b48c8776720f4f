package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
	_ "modernc.org/sqlite"
)

// Store implements ports.FlowStore on an SQLite database.
type Store struct {
	db        *sql.DB
	tableName string
}

// Open opens the database at dsn (":memory:" for a private in-memory
// database) and creates the flows table.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database. Call CreateSchema before first use.
func New(db *sql.DB) *Store {
	return &Store{db: db, tableName: "flows"}
}

// WithTableName allows overriding the default table name with validation.
// Only alphanumeric and underscore are permitted to prevent SQL injection via identifiers.
func (s *Store) WithTableName(name string) *Store {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// CreateSchema creates the flows table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			document   BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.tableName, err)
	}
	return nil
}

// Save stores the flow, replacing any previous version.
func (s *Store) Save(ctx context.Context, flow *domain.Flow) error {
	if flow == nil || flow.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	data, err := serialization.Encode(flow)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, name, document, updated_at)
		VALUES (?, ?, ?, ?)
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, flow.ID, flow.Name, data, flow.UpdatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// Load retrieves a flow by id.
func (s *Store) Load(ctx context.Context, id string) (*domain.Flow, error) {
	query := fmt.Sprintf(`SELECT document FROM %s WHERE id = ?`, s.tableName)

	var data []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// List returns all flow ids in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan flow id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
