package lazyreg

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/config"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/resource"
)

func newTestContainer(t *testing.T) (*Container, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(config.Defaults(), logger), &buf
}

func TestContainer_ResourcesAreShared(t *testing.T) {
	c, _ := newTestContainer(t)
	ctx := context.Background()

	db1, err := c.Database(ctx)
	require.NoError(t, err)
	defer db1.Close()
	db2, err := c.Database(ctx)
	require.NoError(t, err)
	assert.Same(t, db1, db2)
	assert.True(t, db1.Connected())

	j1, err := c.Journal(ctx)
	require.NoError(t, err)
	j2, err := c.Journal(ctx)
	require.NoError(t, err)
	assert.Same(t, j1, j2)

	c1, err := c.Cache(ctx)
	require.NoError(t, err)
	c2, err := c.Cache(ctx)
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	assert.Equal(t, 3, c.Registry().Len())
	assert.ElementsMatch(t, []Key{KeyDatabase, KeyJournal, KeyCache}, c.Registry().Keys())
}

func TestContainer_ConcurrentDatabase(t *testing.T) {
	c, buf := newTestContainer(t)

	const goroutines = 50
	dbs := make([]*resource.Database, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := c.Database(context.Background())
			assert.NoError(t, err)
			dbs[i] = db
		}(i)
	}
	wg.Wait()

	require.NotNil(t, dbs[0])
	defer dbs[0].Close()
	for _, db := range dbs {
		assert.Same(t, dbs[0], db)
	}
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"msg":"instance constructed"`)))
}

func TestContainer_SharedStateAcrossCallers(t *testing.T) {
	c, _ := newTestContainer(t)
	ctx := context.Background()

	cache, err := c.Cache(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Set("session:1", map[string]string{"user": "ada"}))

	again, err := c.Cache(ctx)
	require.NoError(t, err)
	user, ok := again.Lookup("session:1", "user")
	require.True(t, ok)
	assert.Equal(t, "ada", user.String())

	journal, err := c.Journal(ctx)
	require.NoError(t, err)
	journal.Log("session opened")

	j2, err := c.Journal(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"session opened"}, j2.Logs())
}

func TestContainer_DatabaseFailureIsRetried(t *testing.T) {
	settings := config.Defaults()
	dir := t.TempDir()
	settings.Database.DSN = filepath.Join(dir, "data", "app.db")
	settings.Database.ConnectAttempts = 1
	c := New(settings, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx := context.Background()

	_, err := c.Database(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrConstructionFailed)
	assert.False(t, c.Registry().Has(KeyDatabase))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0o700))
	db, err := c.Database(ctx)
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, db.Connected())
}

func TestContainer_TypeMismatch(t *testing.T) {
	c, _ := newTestContainer(t)
	require.True(t, c.Registry().Provide(KeyCache, "not a cache"))

	_, err := c.Cache(context.Background())
	assert.ErrorIs(t, err, registry.ErrTypeMismatch)
}

func TestContainer_ExtraResources(t *testing.T) {
	c, _ := newTestContainer(t)

	type queue struct{ name string }
	q, err := registry.Resolve(context.Background(), c.Registry(), Key("queue"), func(_ context.Context) (*queue, error) {
		return &queue{name: "jobs"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "jobs", q.name)
}

func TestContainer_AccessorsDoNotAllocate(t *testing.T) {
	settings := config.Defaults()
	settings.Registry.Metrics = false
	c := New(settings, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx := context.Background()

	_, err := c.Cache(ctx)
	require.NoError(t, err)
	_, err = c.Journal(ctx)
	require.NoError(t, err)

	get := testing.AllocsPerRun(100, func() {
		_, _ = c.Registry().Get(KeyCache)
	})
	cache := testing.AllocsPerRun(100, func() {
		_, _ = c.Cache(ctx)
	})
	journal := testing.AllocsPerRun(100, func() {
		_, _ = c.Journal(ctx)
	})
	assert.LessOrEqual(t, cache, get)
	assert.LessOrEqual(t, journal, get)
}

func TestContainer_Options(t *testing.T) {
	settings := config.Defaults()
	settings.Registry.Name = "from-settings"

	c := New(settings, nil, registry.WithName("override"), registry.WithSlowWaitThreshold(time.Second))
	assert.Equal(t, "override", c.Registry().Name())
	assert.Equal(t, settings, c.Settings())
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazyreg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
registry:
  name: services
log:
  level: warn
  format: json
journal:
  capacity: 2
`), 0o600))

	c, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "services", c.Registry().Name())

	j, err := c.Journal(context.Background())
	require.NoError(t, err)
	j.Log("one")
	j.Log("two")
	j.Log("three")
	assert.Equal(t, []string{"two", "three"}, j.Logs())

	_, err = NewFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "load settings")
}
