// Package config holds the mutable watch settings and enemy list.
// Every mutation rewrites the whole persisted file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"atlaswatch/internal/cluster"
)

const (
	// MinWatchInterval is the floor applied to the watch interval on
	// every set, in seconds.
	MinWatchInterval = 30

	// MinSurgeThreshold is the floor applied to the player surge
	// threshold on every set.
	MinSurgeThreshold = 3
)

// envPrefix is the prefix for environment variable overrides
// (ATLASWATCH_TOKEN -> token, etc.).
const envPrefix = "ATLASWATCH_"

// Settings is the persisted configuration shape.
type Settings struct {
	Token          string            `koanf:"token" yaml:"token"`
	WatchWorld     int               `koanf:"watch_world" yaml:"watch_world"`
	WatchInterval  int               `koanf:"watch_interval" yaml:"watch_interval"`
	SurgeThreshold int               `koanf:"player_surge_threshold" yaml:"player_surge_threshold"`
	Enemies        map[string]string `koanf:"enemy_list" yaml:"enemy_list"`
	ClusterURL     string            `koanf:"cluster_url" yaml:"cluster_url"`
	PlayerURL      string            `koanf:"player_url" yaml:"player_url"`
}

// DefaultSettings returns the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		WatchWorld:     1,
		WatchInterval:  60,
		SurgeThreshold: MinSurgeThreshold,
		Enemies:        map[string]string{},
		ClusterURL:     "https://api.atlasservers.net/clusters/%d/servers",
		PlayerURL:      "https://api.atlasservers.net/servers/%d/players",
	}
}

// Load reads settings from the given YAML file, then overlays
// environment variable overrides (ATLASWATCH_*). A missing file yields
// the defaults.
func Load(path string) (*Store, error) {
	k := koanf.New(".")

	s := DefaultSettings()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if s.Enemies == nil {
		s.Enemies = map[string]string{}
	}

	// Clamp invariants hold for loaded values too, not just setters.
	if s.WatchInterval < MinWatchInterval {
		s.WatchInterval = MinWatchInterval
	}
	if s.SurgeThreshold < MinSurgeThreshold {
		s.SurgeThreshold = MinSurgeThreshold
	}

	st := &Store{path: path, s: s}
	if err := st.validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *Store) validate() error {
	if !cluster.IsWorld(st.s.WatchWorld) {
		return fmt.Errorf("watch_world must be between %d and %d, got %d",
			cluster.MinWorld, cluster.MaxWorld, st.s.WatchWorld)
	}
	if st.s.ClusterURL == "" {
		return fmt.Errorf("cluster_url is required")
	}
	if st.s.PlayerURL == "" {
		return fmt.Errorf("player_url is required")
	}
	return nil
}
