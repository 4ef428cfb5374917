package resource

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
)

// JournalConfig configures a Journal.
type JournalConfig struct {
	// Capacity is the number of messages retained; older ones are dropped.
	// Zero means unbounded.
	Capacity int
}

// Journal is a shared application log: it keeps recent messages in memory and
// forwards each one to a slog.Logger.
type Journal struct {
	guard    registry.InitGuard
	id       string
	capacity int
	out      *slog.Logger

	mu      sync.RWMutex
	entries []string
	dropped int
}

// Init configures the journal. Messages logged before Init are kept, subject
// to cfg.Capacity, but were not forwarded. A second call after a successful
// one changes nothing, including the retained messages.
func (j *Journal) Init(cfg JournalConfig, out *slog.Logger) error {
	_, err := j.guard.Do(func() error {
		j.id = uuid.NewString()
		j.mu.Lock()
		defer j.mu.Unlock()
		j.capacity = cfg.Capacity
		j.out = out
		if j.entries == nil {
			j.entries = make([]string, 0)
		}
		j.trim()
		return nil
	})
	return err
}

// Log records msg and forwards it, with attrs, to the configured logger.
func (j *Journal) Log(msg string, attrs ...any) {
	j.mu.Lock()
	j.entries = append(j.entries, msg)
	j.trim()
	out := j.out
	j.mu.Unlock()

	if out != nil {
		out.Info(msg, attrs...)
	}
}

// trim drops the oldest entries beyond capacity. j.mu must be held.
func (j *Journal) trim() {
	if j.capacity > 0 && len(j.entries) > j.capacity {
		over := len(j.entries) - j.capacity
		j.entries = append(j.entries[:0], j.entries[over:]...)
		j.dropped += over
	}
}

// Logs returns a copy of the retained messages, oldest first.
func (j *Journal) Logs() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of retained messages.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Dropped returns how many messages were evicted by the capacity limit.
func (j *Journal) Dropped() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.dropped
}

// ID returns the identifier assigned by Init.
func (j *Journal) ID() string {
	return j.id
}

// NewJournal returns a constructor for a Journal writing to out.
func NewJournal(cfg JournalConfig, out *slog.Logger) registry.Constructor[*Journal] {
	return func(_ context.Context) (*Journal, error) {
		j := &Journal{}
		if err := j.Init(cfg, out); err != nil {
			return nil, err
		}
		return j, nil
	}
}
