package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jPabloBC/ingenit-flows/pkg/ports"
)

// LockerContractTest is a reusable test suite that verifies if an adapter complies with ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()

	t.Run("Lock_Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "contract-a", time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		if err := unlock(context.Background()); err != nil {
			t.Fatalf("unexpected error releasing lock: %v", err)
		}

		// Reacquire after release.
		unlock, err = locker.Lock(context.Background(), "contract-a", time.Second)
		if err != nil {
			t.Fatalf("lock not reacquirable after release: %v", err)
		}
		_ = unlock(context.Background())
	})

	t.Run("Lock_Blocks_Until_Canceled", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "contract-b", 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		defer func() { _ = unlock(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(ctx, "contract-b", 5*time.Second); err == nil {
			t.Error("expected second Lock on a held key to fail once the context expires")
		}
	})

	t.Run("Mutual_Exclusion", func(t *testing.T) {
		var active, maxActive int32
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				unlock, err := locker.Lock(ctx, "contract-c", 5*time.Second)
				if err != nil {
					t.Errorf("lock failed: %v", err)
					return
				}
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				_ = unlock(context.Background())
			}()
		}
		wg.Wait()
		if maxActive != 1 {
			t.Errorf("expected at most one holder at a time, saw %d", maxActive)
		}
	})
}
