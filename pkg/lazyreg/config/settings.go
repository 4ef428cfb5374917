package config

import "time"

// Settings describes a process's registry and the resources it serves.
type Settings struct {
	Registry RegistrySettings
	Log      LogSettings
	Database DatabaseSettings
	Journal  JournalSettings
	Cache    CacheSettings
}

// RegistrySettings configures the registry itself.
type RegistrySettings struct {
	Name              string
	SlowWaitThreshold time.Duration
	Metrics           bool
	Tracing           bool
}

// LogSettings selects the slog handler.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // text, json, tint
}

// DatabaseSettings configures the shared database connection.
type DatabaseSettings struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	DSN             string
	MaxOpenConns    int
	ConnectTimeout  time.Duration
	ConnectAttempts int
}

// JournalSettings configures the shared application log journal.
type JournalSettings struct {
	Capacity int
}

// CacheSettings configures the shared document cache.
type CacheSettings struct {
	MaxEntries int // 0 means unbounded
}

// Defaults returns the settings used when a file omits a value.
func Defaults() Settings {
	return Settings{
		Registry: RegistrySettings{
			Name:              "lazyreg",
			SlowWaitThreshold: 5 * time.Second,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseSettings{
			Driver:          "sqlite",
			Host:            "localhost",
			Port:            5432,
			Name:            "myapp",
			DSN:             ":memory:",
			MaxOpenConns:    1,
			ConnectTimeout:  5 * time.Second,
			ConnectAttempts: 3,
		},
		Journal: JournalSettings{
			Capacity: 1000,
		},
	}
}

// Decode extracts Settings from cfg, falling back to Defaults per field.
//
//	registry:
//	  name: services
//	  slow_wait_threshold: 2s
//	  metrics: true
//	log:
//	  level: debug
//	  format: tint
//	database:
//	  dsn: ./app.db
//	journal:
//	  capacity: 500
//	cache:
//	  max_entries: 10000
func Decode(cfg Config) Settings {
	d := Defaults()

	reg := cfg.Sub("registry")
	log := cfg.Sub("log")
	db := cfg.Sub("database")

	return Settings{
		Registry: RegistrySettings{
			Name:              reg.String("name", d.Registry.Name),
			SlowWaitThreshold: reg.Duration("slow_wait_threshold", d.Registry.SlowWaitThreshold),
			Metrics:           reg.Bool("metrics", d.Registry.Metrics),
			Tracing:           reg.Bool("tracing", d.Registry.Tracing),
		},
		Log: LogSettings{
			Level:  log.String("level", d.Log.Level),
			Format: log.String("format", d.Log.Format),
		},
		Database: DatabaseSettings{
			Driver:          db.String("driver", d.Database.Driver),
			Host:            db.String("host", d.Database.Host),
			Port:            db.Int("port", d.Database.Port),
			Name:            db.String("name", d.Database.Name),
			DSN:             db.String("dsn", d.Database.DSN),
			MaxOpenConns:    db.Int("max_open_conns", d.Database.MaxOpenConns),
			ConnectTimeout:  db.Duration("connect_timeout", d.Database.ConnectTimeout),
			ConnectAttempts: db.Int("connect_attempts", d.Database.ConnectAttempts),
		},
		Journal: JournalSettings{
			Capacity: cfg.Sub("journal").Int("capacity", d.Journal.Capacity),
		},
		Cache: CacheSettings{
			MaxEntries: cfg.Sub("cache").Int("max_entries", d.Cache.MaxEntries),
		},
	}
}
