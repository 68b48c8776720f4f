package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/internal/logging"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica keeps a flow locked.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates flow access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	logger     *slog.Logger
	editorOpts []flows.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions applies opts to every editor opened by Edit and Validate.
func WithEditorOptions(opts ...flows.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a new Manager with the given persistence store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(flowID) after unlocking.
func (m *Manager) acquire(flowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[flowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(flowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, flowID)
	}
}

// Load retrieves a flow from the store.
func (m *Manager) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, flowID)
		return err
	})
	return flow, err
}

// LoadOrCreate loads a flow, creating and persisting an empty one with the
// given name when it does not exist.
func (m *Manager) LoadOrCreate(ctx context.Context, flowID, name string) (*domain.Flow, error) {
	var flow *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		flow, err = m.store.Load(ctx, flowID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrFlowNotFound) {
			return fmt.Errorf("failed to check flow existence: %w", err)
		}

		flow = domain.NewFlow(flowID, name)
		if err := m.store.Save(ctx, flow); err != nil {
			return fmt.Errorf("failed to create flow: %w", err)
		}
		return nil
	})
	return flow, err
}

// Save persists a flow document as is.
func (m *Manager) Save(ctx context.Context, flow *domain.Flow) error {
	return m.WithLock(ctx, flow.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, flow)
	})
}

// Delete removes the flow from the store.
func (m *Manager) Delete(ctx context.Context, flowID string) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		return m.store.Delete(ctx, flowID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Open loads the flow into a read-only editor built with the manager's editor
// options. The lock is held only while loading.
func (m *Manager) Open(ctx context.Context, flowID string) (*flows.Editor, error) {
	flow, err := m.Load(ctx, flowID)
	if err != nil {
		return nil, err
	}
	opts := append([]flows.Option{flows.WithLogger(m.logger)}, m.editorOpts...)
	opts = append(opts, flows.WithReadOnly(true))
	return flows.New(flow, opts...), nil
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// Edit opens the stored flow in an editor, runs fn and saves the result when
// fn succeeds. The whole cycle holds the flow's lock. The saved document is
// returned.
func (m *Manager) Edit(ctx context.Context, flowID string, fn func(context.Context, *flows.Editor) error) (*domain.Flow, error) {
	var saved *domain.Flow
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		flow, err := m.store.Load(ctx, flowID)
		if err != nil {
			return err
		}

		opts := append([]flows.Option{flows.WithLogger(m.logger)}, m.editorOpts...)
		opts = append(opts, flows.WithSaveHandler(ports.SaveHandler(m.store)))
		ed := flows.New(flow, opts...)
		for _, w := range ed.LoadWarnings() {
			m.logger.WarnContext(ctx, "stored flow repaired on load", "flow", flowID, "err", w)
		}

		if err := fn(ctx, ed); err != nil {
			return err
		}
		saved, err = ed.Save(ctx)
		return err
	})
	return saved, err
}

// Validate runs validation on the stored flow and persists the resulting status.
func (m *Manager) Validate(ctx context.Context, flowID string) (*flows.Report, error) {
	var report *flows.Report
	_, err := m.Edit(ctx, flowID, func(ctx context.Context, ed *flows.Editor) error {
		var err error
		report, err = ed.Validate(ctx)
		return err
	})
	return report, err
}

// WithLock executes a function while holding the lock for the flow.
func (m *Manager) WithLock(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := m.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
