package lazyreg

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg/config"
	lzerrors "github.com/randalmurphal/lazyreg/pkg/lazyreg/errors"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/observability"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/resource"
)

// Key identifies a shared resource held by a Container.
type Key string

// Keys of the built-in resources.
const (
	KeyDatabase Key = "database"
	KeyJournal  Key = "journal"
	KeyCache    Key = "cache"
)

// Container owns the registry of shared resources for a process.
// Create one at startup and pass it to whatever needs the resources.
type Container struct {
	settings config.Settings
	logger   *slog.Logger
	reg      *registry.Registry[Key, any]

	openDatabase registry.Constructor[*resource.Database]
	newJournal   registry.Constructor[*resource.Journal]
	newCache     registry.Constructor[*resource.Cache]
}

// New creates a Container configured by settings. A nil logger uses
// slog.Default(). opts are applied after the options derived from settings,
// so they take precedence.
func New(settings config.Settings, logger *slog.Logger, opts ...registry.Option) *Container {
	if logger == nil {
		logger = slog.Default()
	}

	regOpts := []registry.Option{
		registry.WithName(settings.Registry.Name),
		registry.WithLogger(logger),
		registry.WithSlowWaitThreshold(settings.Registry.SlowWaitThreshold),
	}
	if settings.Registry.Metrics {
		regOpts = append(regOpts, registry.WithMetrics(observability.NewMetricsRecorder()))
	}
	if settings.Registry.Tracing {
		regOpts = append(regOpts, registry.WithTracing(true))
	}
	regOpts = append(regOpts, opts...)

	return &Container{
		settings:     settings,
		logger:       logger,
		reg:          registry.New[Key, any](regOpts...),
		openDatabase: resource.OpenDatabase(databaseConfig(settings.Database)),
		newJournal: resource.NewJournal(
			resource.JournalConfig{Capacity: settings.Journal.Capacity},
			logger.With("component", "journal"),
		),
		newCache: resource.NewCache(resource.CacheConfig{MaxEntries: settings.Cache.MaxEntries}),
	}
}

// NewFromFile loads settings from a YAML or JSON file and creates a Container
// that logs to stderr in the configured format and level.
func NewFromFile(path string, opts ...registry.Option) (*Container, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	handler := observability.NewHandler(os.Stderr, settings.Log.Format, observability.ParseLevel(settings.Log.Level))
	return New(settings, slog.New(handler), opts...), nil
}

// Database returns the shared database connection, opening it on first use.
func (c *Container) Database(ctx context.Context) (*resource.Database, error) {
	return registry.Resolve(ctx, c.reg, KeyDatabase, c.openDatabase)
}

// Journal returns the shared application log journal.
func (c *Container) Journal(ctx context.Context) (*resource.Journal, error) {
	return registry.Resolve(ctx, c.reg, KeyJournal, c.newJournal)
}

// Cache returns the shared document cache.
func (c *Container) Cache(ctx context.Context) (*resource.Cache, error) {
	return registry.Resolve(ctx, c.reg, KeyCache, c.newCache)
}

// Registry exposes the underlying registry for resources beyond the built-in
// ones. Use registry.Resolve for typed access.
func (c *Container) Registry() *registry.Registry[Key, any] {
	return c.reg
}

// Settings returns the settings the Container was created with.
func (c *Container) Settings() config.Settings {
	return c.settings
}

func databaseConfig(s config.DatabaseSettings) resource.DatabaseConfig {
	return resource.DatabaseConfig{
		Driver:       s.Driver,
		Host:         s.Host,
		Port:         s.Port,
		Name:         s.Name,
		DSN:          s.DSN,
		MaxOpenConns: s.MaxOpenConns,
		Retry: lzerrors.NewRetryConfig(
			lzerrors.WithMaxAttempts(s.ConnectAttempts),
			lzerrors.WithAttemptTimeout(s.ConnectTimeout),
		),
	}
}
