package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quipcup/models"
)

func TestDecodeEmptyIsDefaults(t *testing.T) {
	doc, err := Decode(nil)
	require.NoError(t, err)
	if diff := cmp.Diff(models.NewTournament(), doc); diff != "" {
		t.Errorf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	want := models.NewTournament()
	want.TournamentName = "Spring Cup"
	want.CurrentPhase = "game_2"
	want.CurrentGame = 2
	want.Teams[3].Placements[0] = models.IntPtr(2)
	want.Teams[3].Strikes[1] = 1
	want.Words[1] = models.WordSlot{Pool: []string{"A", "B"}, Banned: []string{"B"}, Assignments: map[int]string{4: "A"}}
	want.CompletedGames = []int{1}

	raw, err := Encode(want)
	require.NoError(t, err)
	got, err := Decode(raw)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePartialFillsDefaults(t *testing.T) {
	doc, err := Decode([]byte(`{"tournamentName":"Old Save","words":{"2":{"banned":["X"]}}}`))
	require.NoError(t, err)

	assert.Equal(t, "Old Save", doc.TournamentName)
	assert.Equal(t, models.BanSystemOriginal, doc.BanSystem)
	assert.Equal(t, "pregame", doc.CurrentPhase)
	assert.Len(t, doc.Teams, models.MaxTeams)
	assert.Equal(t, []string{"X"}, doc.Words[2].Banned)
	assert.NotNil(t, doc.Words[2].Assignments)
	assert.NotNil(t, doc.Words[3].Pool)
}

func TestDecodeShortTeamArraysArePadded(t *testing.T) {
	doc, err := Decode([]byte(`{"game4Enabled":true,"teams":[{"id":1,"name":"Solo","placements":[0]}]}`))
	require.NoError(t, err)

	require.Len(t, doc.Teams, 1)
	team := doc.Teams[0]
	assert.Len(t, team.Placements, 4)
	assert.Len(t, team.Strikes, 4)
	assert.Equal(t, 0, *team.Placements[0])
	assert.Nil(t, team.Placements[3])
	assert.Contains(t, doc.Words, 4)
}

func TestDecodeMalformedFallsBackToDefaults(t *testing.T) {
	for _, raw := range []string{`not json`, `[1,2]`} {
		doc, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedDocument, raw)
		assert.Equal(t, models.DefaultTournamentName, doc.TournamentName)
	}
}

func TestDecodeKeepsFieldsAroundABadOne(t *testing.T) {
	doc, err := Decode([]byte(`{"tournamentName":"Summer Cup","currentGame":"2","currentPhase":"game_2","teams":"none"}`))
	require.NoError(t, err)

	assert.Equal(t, "Summer Cup", doc.TournamentName)
	assert.Equal(t, "game_2", doc.CurrentPhase)
	assert.Equal(t, 1, doc.CurrentGame)
	assert.Len(t, doc.Teams, models.MaxTeams)
}

func TestDecodeMissingRosterSeedsSlots(t *testing.T) {
	for _, raw := range []string{`{"teams":null}`, `{"teams":[]}`, `{"teams":null,"game4Enabled":true}`} {
		doc, err := Decode([]byte(raw))
		require.NoError(t, err, raw)
		require.Len(t, doc.Teams, models.MaxTeams, raw)
		assert.Equal(t, "Team 1", doc.Teams[0].Name, raw)
		assert.Len(t, doc.Teams[7].Placements, doc.NumGames(), raw)
	}
}

func TestDecodeUnknownBanSystem(t *testing.T) {
	doc, err := Decode([]byte(`{"banSystem":"chaos","currentGame":9}`))
	require.NoError(t, err)
	assert.Equal(t, models.BanSystemOriginal, doc.BanSystem)
	assert.Equal(t, 1, doc.CurrentGame)
}
