// Package watch implements the polling loop, the snapshot differ and
// the watch-list matcher.
package watch

import (
	"fmt"
	"sort"
	"strings"

	"atlaswatch/internal/domain"
)

// SurgeCount computes the player-count delta against the prior cycle.
// Without a valid prior (no snapshot, or a prior count of zero) it
// returns domain.NoSurge, which never trips a positive threshold.
func SurgeCount(prev *domain.ServerSnapshot, currentCount int) int {
	if prev == nil || prev.PlayerCount <= 0 {
		return domain.NoSurge
	}
	return currentCount - prev.PlayerCount
}

// MatchEnemies scans player names for case-insensitive substring hits
// of each watch-list entry and collects them as "player(entry)".
// Iteration is watch-entry major (entries in sorted order, players in
// listing order), so a player matched by several entries appears once
// per entry. That duplication is intentional.
func MatchEnemies(watchList map[string]string, players []domain.Player) []string {
	if len(watchList) == 0 || len(players) == 0 {
		return nil
	}

	entries := make([]string, 0, len(watchList))
	for entry := range watchList {
		entries = append(entries, entry)
	}
	sort.Strings(entries)

	var matches []string
	for _, entry := range entries {
		needle := strings.ToUpper(entry)
		if needle == "" {
			continue
		}
		for _, p := range players {
			if p.Name == "" {
				continue
			}
			if strings.Contains(strings.ToUpper(p.Name), needle) {
				matches = append(matches, fmt.Sprintf("%s(%s)", p.Name, entry))
			}
		}
	}
	return matches
}
