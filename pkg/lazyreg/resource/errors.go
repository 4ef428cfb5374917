// Package resource provides the shared resources a lazyreg registry hands
// out: a database connection, an application log journal, and a JSON document
// cache.
//
// Each resource guards its own Init with a registry.InitGuard, so calling Init
// twice leaves the first configuration in place. Each also has a constructor
// (OpenDatabase, NewJournal, NewCache) suitable for registry.GetOrCreate.
package resource

import "errors"

// Sentinel errors for resource operations.
var (
	// ErrNotInitialized indicates a resource was used before Init succeeded.
	ErrNotInitialized = errors.New("resource not initialized")

	// ErrNotConnected indicates a query was issued before Connect succeeded.
	ErrNotConnected = errors.New("database not connected")

	// ErrCacheFull indicates the cache reached MaxEntries.
	ErrCacheFull = errors.New("cache full")

	// ErrNotFound indicates a cache key has no document.
	ErrNotFound = errors.New("cache key not found")

	// ErrInvalidDocument indicates a cache value is not valid JSON.
	ErrInvalidDocument = errors.New("invalid JSON document")
)
