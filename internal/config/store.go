package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	yamlv3 "gopkg.in/yaml.v3"
)

// Store is the shared, mutable configuration handle. One instance is
// constructed at startup and passed into the dispatcher and watch loop.
// Mutating setters persist the whole file before returning.
type Store struct {
	mu   sync.Mutex
	path string
	s    Settings
}

// NewStore creates a store around explicit settings, persisted at path.
// Used by tests; production code goes through Load.
func NewStore(path string, s Settings) *Store {
	if s.Enemies == nil {
		s.Enemies = map[string]string{}
	}
	return &Store{path: path, s: s}
}

// Token returns the chat-platform token.
func (st *Store) Token() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Token
}

// WatchWorld returns the watched cluster ID.
func (st *Store) WatchWorld() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.WatchWorld
}

// WatchInterval returns the poll cadence. It doubles as the retry delay
// after a failed fetch.
func (st *Store) WatchInterval() time.Duration {
	st.mu.Lock()
	defer st.mu.Unlock()
	return time.Duration(st.s.WatchInterval) * time.Second
}

// WatchIntervalSeconds returns the configured interval in seconds.
func (st *Store) WatchIntervalSeconds() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.WatchInterval
}

// SurgeThreshold returns the player-increase count that triggers a
// surge alert.
func (st *Store) SurgeThreshold() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.SurgeThreshold
}

// ClusterURL returns the cluster-listing endpoint template.
func (st *Store) ClusterURL() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.ClusterURL
}

// PlayerURL returns the per-server player endpoint template.
func (st *Store) PlayerURL() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.PlayerURL
}

// Enemies returns a copy of the watch-list mapping name -> company.
func (st *Store) Enemies() map[string]string {
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := make(map[string]string, len(st.s.Enemies))
	for name, company := range st.s.Enemies {
		cp[name] = company
	}
	return cp
}

// HasEnemy reports whether name is on the watch list. The match is
// exact, as entered.
func (st *Store) HasEnemy(name string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.s.Enemies[name]
	return ok
}

// AddEnemy registers a watch-list entry. It returns false without
// persisting when the name is already present. Company text is trimmed.
func (st *Store) AddEnemy(name, company string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.s.Enemies[name]; ok {
		return false, nil
	}
	st.s.Enemies[name] = strings.TrimSpace(company)
	if err := st.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteEnemy removes a watch-list entry. It returns false without
// persisting when the name is absent.
func (st *Store) DeleteEnemy(name string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.s.Enemies[name]; !ok {
		return false, nil
	}
	delete(st.s.Enemies, name)
	if err := st.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// ListEnemies renders the watch list as comma-joined "name(company)"
// pairs. Names are sorted so output is stable across calls.
func (st *Store) ListEnemies() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	names := make([]string, 0, len(st.s.Enemies))
	for name := range st.s.Enemies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s(%s)", name, st.s.Enemies[name]))
	}
	return strings.Join(pairs, ", ")
}

// SetWatchWorld sets the watched cluster and persists.
func (st *Store) SetWatchWorld(world int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.WatchWorld = world
	return st.persistLocked()
}

// SetWatchInterval sets the poll interval in seconds, floored to
// MinWatchInterval, and persists. It returns the applied value.
func (st *Store) SetWatchInterval(seconds int) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if seconds < MinWatchInterval {
		seconds = MinWatchInterval
	}
	st.s.WatchInterval = seconds
	return seconds, st.persistLocked()
}

// SetSurgeThreshold sets the surge alert threshold, floored to
// MinSurgeThreshold, and persists. It returns the applied value.
func (st *Store) SetSurgeThreshold(count int) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if count < MinSurgeThreshold {
		count = MinSurgeThreshold
	}
	st.s.SurgeThreshold = count
	return count, st.persistLocked()
}

// Path returns the persisted file location.
func (st *Store) Path() string {
	return st.path
}

// persistLocked rewrites the whole config file. It writes to a temp
// file in the same directory, syncs, then renames, so a concurrent
// reader never sees a partially written file. Callers hold st.mu.
func (st *Store) persistLocked() error {
	data, err := yamlv3.Marshal(st.s)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	dir := filepath.Dir(st.path)
	tmp, err := os.CreateTemp(dir, ".atlaswatch-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpPath, st.path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}

	success = true
	return nil
}
