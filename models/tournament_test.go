package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeedsEmptyRoster(t *testing.T) {
	doc := NewTournament()
	doc.Teams = nil
	doc.Normalize()

	require.Len(t, doc.Teams, MaxTeams)
	for i, team := range doc.Teams {
		assert.Equal(t, i+1, team.ID)
		assert.Len(t, team.Strikes, BaseGames)
	}
}

func TestNormalizeKeepsShortRoster(t *testing.T) {
	doc := NewTournament()
	doc.Teams = doc.Teams[:2]
	doc.Teams[1].Name = "Kept"
	doc.Normalize()

	require.Len(t, doc.Teams, 2)
	assert.Equal(t, "Kept", doc.Teams[1].Name)
}
