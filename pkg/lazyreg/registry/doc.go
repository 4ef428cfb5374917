// Package registry provides a thread-safe registry of lazily constructed,
// shared instances indexed by key.
//
// A Registry guarantees that for each key at most one instance is ever
// published, and that its constructor runs at most once at a time. Every
// caller, from any goroutine, receives the identical instance.
//
// # Basic Usage
//
// Own one registry at the composition root and pass it to consumers:
//
//	pools := registry.New[string, *Pool](registry.WithName("pools"))
//
//	pool, err := pools.GetOrCreate(ctx, "users_db", func(ctx context.Context) (*Pool, error) {
//	    return OpenPool(ctx, "users_db")
//	})
//
// The first call constructs the pool; every later call returns the same
// pointer without taking a lock.
//
// # Concurrency
//
// GetOrCreate uses double-checked acquisition:
//
//  1. Lock-free read of the published instances.
//  2. On a miss, take the registry mutex and re-check.
//  3. If a construction for the key is already in flight, release the mutex
//     and wait for it, returning to step 2 if it fails. Otherwise record a
//     new in-flight construction, release the mutex, and run the constructor.
//  4. Publish on success and retire the in-flight record under the mutex.
//
// The mutex is never held while a constructor runs, so a slow constructor
// for one key never blocks callers of another key.
//
// # Failures
//
// A failed or panicking constructor publishes nothing, and the caller that ran
// it receives a *ConstructionError (errors.Is(err, ErrConstructionFailed)).
// Callers that were waiting on it are not handed the failure: they start over,
// one of them runs its own constructor, and the rest wait on that attempt.
//
// # Reentrancy
//
// The context handed to a constructor records which key is being built. A
// constructor that calls GetOrCreate for its own key with that context gets
// ErrReentrantInitialization instead of deadlocking. Building other keys from
// inside a constructor is fine:
//
//	reg.GetOrCreate(ctx, "service", func(ctx context.Context) (any, error) {
//	    db, err := reg.GetOrCreate(ctx, "db", openDB) // allowed
//	    ...
//	})
//
// Callers that block on an in-flight construction for longer than the
// slow-wait threshold log "construction still in flight" at warn level, so a
// constructor that re-enters with an unrelated context is still visible.
//
// # Resource Guards
//
// InitGuard gives a resource its own construct-once initializer, independent
// of the registry:
//
//	type Cache struct {
//	    guard registry.InitGuard
//	    data  map[string][]byte
//	}
//
//	func (c *Cache) Init() error {
//	    _, err := c.guard.Do(func() error {
//	        c.data = make(map[string][]byte)
//	        return nil
//	    })
//	    return err
//	}
package registry
