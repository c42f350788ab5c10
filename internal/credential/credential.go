// Package credential persists the user's API key behind a small key-value
// interface so the chat core never depends on a concrete storage engine.
package credential

import (
	"fmt"
	"strings"
)

// StorageKey is the fixed key under which the API key is stored
const StorageKey = "gemini_api_key"

// KV is a minimal string key-value store
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Store reads and writes the single API key held in a KV
type Store struct {
	kv KV
}

// NewStore wraps kv
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Get returns the stored credential, or ok=false when none is stored.
// A stored blank value counts as absent.
func (s *Store) Get() (string, bool, error) {
	value, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		return "", false, fmt.Errorf("reading credential: %w", err)
	}
	if !ok || strings.TrimSpace(value) == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set persists value as the credential
func (s *Store) Set(value string) error {
	if err := s.kv.Set(StorageKey, value); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Clear removes the stored credential
func (s *Store) Clear() error {
	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// Close releases the underlying KV
func (s *Store) Close() error {
	return s.kv.Close()
}

// Open creates the KV backend named by backend
func Open(backend, path string) (KV, error) {
	switch backend {
	case "memory":
		return NewMemoryKV(), nil
	case "file":
		return NewFileKV(path), nil
	case "sqlite":
		return OpenSQLiteKV(path)
	default:
		return nil, fmt.Errorf("unsupported credential backend: %s", backend)
	}
}

// Mask returns a masked version of the credential for display
func Mask(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
