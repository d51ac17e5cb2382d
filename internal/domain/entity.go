// Package domain contains core business entities and interfaces.
// This is the innermost layer - no external dependencies.
package domain

// NoSurge is the sentinel surge count used when a server has no valid
// prior snapshot. It never satisfies a positive surge threshold.
const NoSurge = -1

// ServerSnapshot captures one watched server's state for a single poll
// cycle. The mapping serverName -> ServerSnapshot is carried across
// iterations as the previous-cycle baseline.
type ServerSnapshot struct {
	ServerName  string
	PlayerCount int

	// SurgeCount is the player-count delta against the prior cycle,
	// or NoSurge when no valid prior exists.
	SurgeCount int

	// EnemyPlayers holds matched watch-list hits as "player(entry)"
	// strings in match order. A player matched by several watch-list
	// entries appears once per entry.
	EnemyPlayers []string
}

// Channel is a text channel on the chat platform.
type Channel struct {
	ID   string
	Name string
}

// ClusterServer is one server entry from the cluster-wide listing.
type ClusterServer struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
}

// Player is one entry from a per-server player listing.
type Player struct {
	Name string `json:"name"`
}
