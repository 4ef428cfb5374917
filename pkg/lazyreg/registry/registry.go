package registry

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/observability"
)

// Constructor builds the instance for a key.
//
// The context carries the initiating caller's values but not its deadline or
// cancellation: the instance is shared, so any timeout belongs to the
// constructor itself.
type Constructor[V any] func(ctx context.Context) (V, error)

// Registry maps keys to lazily constructed, shared instances.
// It is safe for concurrent use. Published instances are never replaced or
// removed for the lifetime of the registry.
type Registry[K comparable, V any] struct {
	published sync.Map // K -> V; read without locking
	count     atomic.Int64

	mu       sync.Mutex // guards inflight and publication; never held while a constructor runs
	inflight map[K]*construction[V]

	opts    options
	logger  *slog.Logger
	measure bool // false when metrics are the no-op recorder
}

// construction is one in-flight constructor invocation.
// val and err are written before done is closed.
type construction[V any] struct {
	attemptID string
	done      chan struct{}
	val       V
	err       *ConstructionError
}

// New creates an empty registry.
func New[K comparable, V any](opts ...Option) *Registry[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	_, noop := o.metrics.(observability.NoopMetrics)
	return &Registry[K, V]{
		inflight: make(map[K]*construction[V]),
		opts:     o,
		logger:   observability.EnrichLogger(o.logger, o.name),
		measure:  !noop,
	}
}

// Name returns the registry name.
func (r *Registry[K, V]) Name() string {
	return r.opts.name
}

// GetOrCreate returns the instance for key, constructing it with ctor if no
// instance has been published yet.
//
// Exactly one of any number of concurrent callers runs ctor; the others block
// until it finishes. On success they all receive the same instance. On failure
// nothing is published and each blocked caller starts over: one of them runs
// its own ctor while the rest wait again. A caller therefore only ever sees
// the *ConstructionError of an attempt it ran itself. A waiting caller returns
// ctx.Err() if its ctx is done first; the construction itself carries on.
func (r *Registry[K, V]) GetOrCreate(ctx context.Context, key K, ctor Constructor[V]) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}

	// Fast path: already published
	if v, ok := r.Get(key); ok {
		r.recordHit(ctx, key)
		return v, nil
	}

	label := r.label(key)
	r.opts.metrics.RecordLookup(ctx, r.opts.name, label, false)

	if ctor == nil {
		return zero, ErrNilConstructor
	}
	if constructing(ctx, r, key) {
		observability.LogReentrant(r.logger, label)
		return zero, &ReentrantError{Key: label}
	}

	for {
		r.mu.Lock()
		// Double-check: another caller may have published while we queued
		if v, ok := r.Get(key); ok {
			r.mu.Unlock()
			return v, nil
		}
		c, ok := r.inflight[key]
		if !ok {
			c = &construction[V]{
				attemptID: uuid.NewString(),
				done:      make(chan struct{}),
			}
			r.inflight[key] = c
			r.mu.Unlock()
			return r.construct(ctx, key, label, c, ctor)
		}
		r.mu.Unlock()

		v, settled, err := r.wait(ctx, label, c)
		if settled {
			return v, err
		}
		// The attempt we waited on failed; try again
	}
}

// recordHit records a fast-path lookup. The key is only formatted when a
// real recorder is installed.
func (r *Registry[K, V]) recordHit(ctx context.Context, key K) {
	if r.measure {
		r.opts.metrics.RecordLookup(ctx, r.opts.name, r.label(key), true)
	}
}

// MustGetOrCreate is like GetOrCreate but panics on error.
func (r *Registry[K, V]) MustGetOrCreate(ctx context.Context, key K, ctor Constructor[V]) V {
	v, err := r.GetOrCreate(ctx, key, ctor)
	if err != nil {
		panic(err)
	}
	return v
}

// construct runs ctor for an in-flight record owned by the calling goroutine,
// then publishes or discards the result and wakes any waiters.
func (r *Registry[K, V]) construct(ctx context.Context, key K, label string, c *construction[V], ctor Constructor[V]) (V, error) {
	elapsed := observability.TimedOperation()
	observability.LogConstructStart(r.logger, label, c.attemptID)

	buildCtx := withFrame(context.WithoutCancel(ctx), r, key)
	var span trace.Span
	if r.opts.tracingEnabled {
		buildCtx, span = r.opts.spans.StartConstructSpan(buildCtx, r.opts.name, label, c.attemptID)
	}

	v, err := invoke(buildCtx, label, ctor)

	var cerr *ConstructionError
	if err != nil {
		var zero V
		v = zero
		cerr = &ConstructionError{Key: label, AttemptID: c.attemptID, Err: err}
	}

	r.mu.Lock()
	if cerr == nil {
		r.published.Store(key, v)
		r.count.Add(1)
	}
	delete(r.inflight, key)
	r.mu.Unlock()

	c.val, c.err = v, cerr
	close(c.done)

	d := elapsed()
	if cerr != nil {
		if r.opts.tracingEnabled {
			r.opts.spans.EndSpanWithError(span, cerr)
		}
		r.opts.metrics.RecordConstruction(ctx, r.opts.name, label, d, cerr)
		observability.LogConstructError(r.logger, label, c.attemptID, cerr.Err, observability.Millis(d))
		return v, cerr
	}

	if r.opts.tracingEnabled {
		r.opts.spans.EndSpanWithError(span, nil)
	}
	r.opts.metrics.RecordConstruction(ctx, r.opts.name, label, d, nil)
	observability.LogConstructComplete(r.logger, label, c.attemptID, observability.Millis(d))
	return v, nil
}

// invoke calls ctor, converting a panic into a *PanicError.
func invoke[V any](ctx context.Context, label string, ctor Constructor[V]) (v V, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero V
			v = zero
			err = &PanicError{
				Key:   label,
				Value: rec,
				Stack: string(debug.Stack()),
			}
		}
	}()
	return ctor(ctx)
}

// wait blocks until c completes or ctx is done, logging a warning each time
// the slow-wait threshold elapses. settled is false when the attempt failed
// and the caller should start over.
func (r *Registry[K, V]) wait(ctx context.Context, label string, c *construction[V]) (v V, settled bool, err error) {
	elapsed := observability.TimedOperation()
	r.spanEvent(ctx, "lazyreg.wait.join", label, c.attemptID)

	var slow <-chan time.Time
	if r.opts.slowWait > 0 {
		ticker := time.NewTicker(r.opts.slowWait)
		defer ticker.Stop()
		slow = ticker.C
	}

	for {
		select {
		case <-c.done:
			if c.err != nil {
				r.opts.metrics.RecordWait(ctx, r.opts.name, label, elapsed(), c.err)
				r.spanEvent(ctx, "lazyreg.wait.retry", label, c.attemptID)
				return v, false, nil
			}
			r.opts.metrics.RecordWait(ctx, r.opts.name, label, elapsed(), nil)
			return c.val, true, nil
		case <-slow:
			observability.LogSlowWait(r.logger, label, elapsed())
			r.opts.metrics.RecordSlowWait(ctx, r.opts.name, label)
			r.spanEvent(ctx, "lazyreg.wait.slow", label, c.attemptID)
		case <-ctx.Done():
			err := ctx.Err()
			r.opts.metrics.RecordWait(ctx, r.opts.name, label, elapsed(), err)
			return v, true, err
		}
	}
}

// spanEvent annotates the caller's span, if any, with a wait milestone.
func (r *Registry[K, V]) spanEvent(ctx context.Context, name, label, attemptID string) {
	if !r.opts.tracingEnabled {
		return
	}
	r.opts.spans.AddSpanEvent(ctx, name,
		attribute.String("instance.key", label),
		attribute.String("attempt.id", attemptID),
	)
}

// Provide publishes v for key without running a constructor. It returns false,
// and changes nothing, if an instance is already published or a construction
// for key is in flight.
func (r *Registry[K, V]) Provide(key K, v V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inflight[key]; ok {
		return false
	}
	if _, loaded := r.published.LoadOrStore(key, v); loaded {
		return false
	}
	r.count.Add(1)
	observability.LogProvided(r.logger, r.label(key))
	return true
}

// Get returns the published instance for key, if any. It never constructs
// and never blocks.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	raw, ok := r.published.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	v, _ := raw.(V)
	return v, true
}

// Has reports whether an instance is published for key.
func (r *Registry[K, V]) Has(key K) bool {
	_, ok := r.published.Load(key)
	return ok
}

// InFlight reports whether a construction for key is currently running.
func (r *Registry[K, V]) InFlight(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[key]
	return ok
}

// Len returns the number of published instances.
func (r *Registry[K, V]) Len() int {
	return int(r.count.Load())
}

// Keys returns the keys of all published instances.
// The order is not guaranteed.
func (r *Registry[K, V]) Keys() []K {
	keys := make([]K, 0, r.Len())
	r.published.Range(func(k, _ any) bool {
		keys = append(keys, k.(K))
		return true
	})
	return keys
}

// Range calls fn for each published instance until fn returns false.
// Instances published during iteration may or may not be visited.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.published.Range(func(k, raw any) bool {
		v, _ := raw.(V)
		return fn(k.(K), v)
	})
}

func (r *Registry[K, V]) label(key K) string {
	return fmt.Sprint(key)
}
