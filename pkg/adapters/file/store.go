package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/serialization"
)

// ErrInvalidID is returned for flow ids that cannot be used as file names.
var ErrInvalidID = errors.New("invalid flow id")

// Store implements ports.FlowStore using the local filesystem.
// It stores one document per flow in a configured directory.
type Store struct {
	BasePath string
	ext      string
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithYAML stores flows as .yaml documents instead of .json.
func WithYAML() Option {
	return func(s *Store) {
		s.ext = ".yaml"
	}
}

// WithLogger reports documents that were repaired on load.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".flowdesk/flows".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".flowdesk", "flows")
	}
	s := &Store{BasePath: basePath, ext: ".json", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.BasePath, id+s.ext), nil
}

// Save writes the flow atomically.
func (s *Store) Save(ctx context.Context, flow *domain.Flow) error {
	if flow == nil {
		return fmt.Errorf("%w: nil flow", ErrInvalidID)
	}
	path, err := s.path(flow.ID)
	if err != nil {
		return err
	}
	return serialization.WriteFile(path, flow)
}

// Load reads and decodes a flow file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Flow, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, domain.ErrFlowNotFound
	}

	flow, warnings, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.logger.WarnContext(ctx, "flow file repaired on load", "flow", id, "err", w)
	}
	return flow, nil
}

// Delete removes the flow file.
func (s *Store) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the ids of every flow file in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != s.ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, s.ext))
	}
	slices.Sort(ids)
	return ids, nil
}
