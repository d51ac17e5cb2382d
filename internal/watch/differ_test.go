package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atlaswatch/internal/domain"
)

func TestSurgeCount_NoPriorIsSentinel(t *testing.T) {
	assert.Equal(t, domain.NoSurge, SurgeCount(nil, 50))
}

func TestSurgeCount_ZeroPriorIsSentinel(t *testing.T) {
	prev := &domain.ServerSnapshot{ServerName: "A1", PlayerCount: 0}
	assert.Equal(t, domain.NoSurge, SurgeCount(prev, 50))
}

func TestSurgeCount_Delta(t *testing.T) {
	prev := &domain.ServerSnapshot{ServerName: "A1", PlayerCount: 10}
	assert.Equal(t, 5, SurgeCount(prev, 15))
	assert.Equal(t, -7, SurgeCount(prev, 3))
	assert.Equal(t, 0, SurgeCount(prev, 10))
}

func TestMatchEnemies_CaseInsensitiveSubstring(t *testing.T) {
	watchList := map[string]string{"Bcd": "Acme"}
	players := []domain.Player{{Name: "abcde"}}

	got := MatchEnemies(watchList, players)
	assert.Equal(t, []string{"abcde(Bcd)"}, got)
}

func TestMatchEnemies_EntryMajorOrderWithDuplication(t *testing.T) {
	// One player hit by two entries appears once per entry, entries in
	// sorted order, players in listing order.
	watchList := map[string]string{"evil": "", "vil": ""}
	players := []domain.Player{{Name: "DrEvil"}, {Name: "Evilyn"}}

	got := MatchEnemies(watchList, players)
	assert.Equal(t, []string{
		"DrEvil(evil)", "Evilyn(evil)",
		"DrEvil(vil)", "Evilyn(vil)",
	}, got)
}

func TestMatchEnemies_SkipsEmptyNames(t *testing.T) {
	watchList := map[string]string{"": "ghost", "x": ""}
	players := []domain.Player{{Name: ""}, {Name: "xenon"}}

	got := MatchEnemies(watchList, players)
	assert.Equal(t, []string{"xenon(x)"}, got)
}

func TestMatchEnemies_NoInput(t *testing.T) {
	assert.Nil(t, MatchEnemies(nil, []domain.Player{{Name: "a"}}))
	assert.Nil(t, MatchEnemies(map[string]string{"a": ""}, nil))
	assert.Nil(t, MatchEnemies(map[string]string{"zzz": ""}, []domain.Player{{Name: "abc"}}))
}
