// Package storage abstracts the named backing stores files are written to.
// A store is either the local filesystem or an S3-compatible object store;
// both sit behind the same put/delete/url contract. URL shapes differ by
// store: the local store produces app-relative asset paths while remote
// stores produce absolute endpoint URLs, so callers branch on store identity.
package storage

import (
	"fmt"
	"time"
)

// Visibility values understood by the stores.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Store is a named backing store behind a uniform contract.
type Store interface {
	// Name returns the disk identifier ("local", "s3", "do").
	Name() string
	// Folder returns the configured folder prefix for this store.
	Folder() string
	// Put writes the file at sourcePath into folder under fileName and
	// returns the stored relative path.
	Put(folder, sourcePath, fileName, visibility string) (string, error)
	// Delete removes the object at path. Deleting a missing object is a no-op.
	Delete(path string) error
	// SetVisibility updates the object's ACL where the store supports it.
	SetVisibility(path, visibility string) error
	// URL returns the permanent access URL for path.
	URL(path string) string
	// TemporaryURL returns a time-limited signed URL for private objects.
	TemporaryURL(path string, ttl time.Duration) (string, error)
}

// remoteDisks are the stores whose objects live outside this deployment.
var remoteDisks = map[string]bool{"s3": true, "do": true}

// IsRemote reports whether the named disk is a remote object store.
func IsRemote(name string) bool {
	return remoteDisks[name]
}

// Manager is a registry of named stores with a default disk.
type Manager struct {
	stores      map[string]Store
	defaultDisk string
}

// NewManager creates a store registry. The default disk must be registered
// before Default is called.
func NewManager(defaultDisk string) *Manager {
	return &Manager{
		stores:      make(map[string]Store),
		defaultDisk: defaultDisk,
	}
}

// Register adds a store under its own name.
func (m *Manager) Register(s Store) {
	m.stores[s.Name()] = s
}

// Disk returns the named store.
func (m *Manager) Disk(name string) (Store, error) {
	s, ok := m.stores[name]
	if !ok {
		return nil, fmt.Errorf("unknown disk %q", name)
	}
	return s, nil
}

// Default returns the configured default store.
func (m *Manager) Default() (Store, error) {
	return m.Disk(m.defaultDisk)
}

// DefaultName returns the configured default disk name.
func (m *Manager) DefaultName() string {
	return m.defaultDisk
}
