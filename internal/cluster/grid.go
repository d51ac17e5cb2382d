// Package cluster maps server codes (A1-O15) to numeric server IDs
// within a game world.
package cluster

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// ServersPerCluster is the size of the fixed server table: letters
	// A-O crossed with numbers 1-15.
	ServersPerCluster = 225

	gridLetters = 15
	gridNumbers = 15

	// MinWorld and MaxWorld bound the known cluster IDs.
	MinWorld = 1
	MaxWorld = 4
)

var clusterNames = map[int]string{
	1: "NA PvE",
	2: "NA PvP",
	3: "EU PvE",
	4: "EU PvP",
}

// IsWorld reports whether id names a known cluster.
func IsWorld(id int) bool {
	return id >= MinWorld && id <= MaxWorld
}

// ClusterName returns the display name for a cluster ID, or "" if the
// ID is unknown.
func ClusterName(id int) string {
	return clusterNames[id]
}

// Normalize upper-cases and trims a server code for table lookups.
// Channel names and user input are matched case-insensitively.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// codeIndex returns the 1-based table index of a normalized server
// code, or false if the code is not in the A1-O15 grid.
func codeIndex(code string) (int, bool) {
	if len(code) < 2 || len(code) > 3 {
		return 0, false
	}
	letter := code[0]
	if letter < 'A' || letter > 'O' {
		return 0, false
	}
	num, err := strconv.Atoi(code[1:])
	if err != nil || num < 1 || num > gridNumbers {
		return 0, false
	}
	return int(letter-'A')*gridNumbers + num, true
}

// IsServerCode reports whether code names a server in the fixed
// 225-entry table. Matching is case-insensitive.
func IsServerCode(code string) bool {
	_, ok := codeIndex(Normalize(code))
	return ok
}

// ServerID resolves a world and server code to the numeric server ID
// used by the cluster API: (world-1)*225 + table index.
func ServerID(world int, code string) (int, error) {
	if !IsWorld(world) {
		return 0, fmt.Errorf("world must be between %d and %d, got %d", MinWorld, MaxWorld, world)
	}
	idx, ok := codeIndex(Normalize(code))
	if !ok {
		return 0, fmt.Errorf("server code must be between A1 and O15, got %q", code)
	}
	return (world-1)*ServersPerCluster + idx, nil
}

// ServerCodes returns all 225 server codes in table order (A1..A15,
// B1..B15, ..., O15).
func ServerCodes() []string {
	codes := make([]string, 0, ServersPerCluster)
	for l := byte('A'); l <= 'O'; l++ {
		for n := 1; n <= gridNumbers; n++ {
			codes = append(codes, fmt.Sprintf("%c%d", l, n))
		}
	}
	return codes
}
