/*
Package config loads lazyreg settings from YAML or JSON.

# Overview

Config wraps a map[string]any and provides typed accessors that return a
default when a key is missing or holds the wrong type. Decode turns a Config
into Settings, the typed description of the registry and its resources.

# Basic Usage

	settings, err := config.Load("lazyreg.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or build from bytes
	cfg, err := config.FromYAML(data)
	settings := config.Decode(cfg)

Nested sections are reached with Sub:

	db := cfg.Sub("database")
	dsn := db.String("dsn", ":memory:")

# Type Coercion

Duration accepts "30s"-style strings, time.Duration, or a number of seconds.
Int accepts int, int64, or a float64 without a fractional part, so JSON
numbers work.

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
