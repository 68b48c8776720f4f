package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	flows "github.com/jPabloBC/ingenit-flows"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/memory"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/redis"
	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Flow, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, id)
}

func (s SlowStore) Save(ctx context.Context, flow *domain.Flow) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, flow)
}

func TestManager_EditSerializesWriters(t *testing.T) {
	store := SlowStore{memory.NewStore(domain.NewFlow("race", "race"))}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	writers := 8
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Edit(ctx, "race", func(_ context.Context, ed *flows.Editor) error {
				_, err := ed.AddNode(domain.KindSystemMessage, &domain.SystemMessage{Message: "hola"})
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Read-modify-write without locking would lose nodes.
	flow, err := manager.Load(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, flow.SystemMessages, writers)
}

func TestManager_EditErrorDoesNotSave(t *testing.T) {
	store := memory.NewStore(domain.NewFlow("f", "before"))
	manager := session.NewManager(store)
	ctx := context.Background()

	boom := errors.New("abort")
	_, err := manager.Edit(ctx, "f", func(_ context.Context, ed *flows.Editor) error {
		_, _ = ed.AddNode(domain.KindStart, nil)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	flow, err := store.Load(ctx, "f")
	require.NoError(t, err)
	assert.Nil(t, flow.StartNode)
}

func TestManager_EditMissingFlow(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Edit(context.Background(), "nope", func(context.Context, *flows.Editor) error { return nil })
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestManager_ValidatePersistsStatus(t *testing.T) {
	store := memory.NewStore(domain.NewFlow("f", "empty"))
	manager := session.NewManager(store)
	ctx := context.Background()

	report, err := manager.Validate(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowError, report.Status)

	flow, err := store.Load(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowError, flow.ValidationStatus)
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := SlowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flow, err := manager.LoadOrCreate(ctx, "atomic-init", "Nuevo")
			assert.NoError(t, err)
			assert.NotNil(t, flow)
		}()
	}
	wg.Wait()

	flow, err := manager.Load(ctx, "atomic-init")
	require.NoError(t, err)
	assert.Equal(t, "Nuevo", flow.Name)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := memory.NewStore(domain.NewFlow("shared", "shared"))
	locker := redis.NewLocker(client, "test:")
	// Two managers over one store model two replicas.
	a := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	b := session.NewManager(store, session.WithLocker(locker))
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, m := range []*session.Manager{a, b, a, b} {
		wg.Add(1)
		go func(m *session.Manager) {
			defer wg.Done()
			_, err := m.Edit(ctx, "shared", func(_ context.Context, ed *flows.Editor) error {
				_, err := ed.AddNode(domain.KindClientMessage, nil)
				return err
			})
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	flow, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, flow.ClientMessages, 4)
	assert.False(t, mr.Exists("test:lock:shared"))
}

func TestManager_OpenIsReadOnly(t *testing.T) {
	store := memory.NewStore(domain.NewFlow("view", "View"))
	manager := session.NewManager(store)

	ed, err := manager.Open(context.Background(), "view")
	require.NoError(t, err)
	assert.True(t, ed.ReadOnly())

	_, err = ed.AddNode(domain.KindStart, nil)
	assert.ErrorIs(t, err, domain.ErrReadOnly)

	_, err = manager.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}
