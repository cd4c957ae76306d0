package draft

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quipcup/models"
)

func docWithPool(system models.BanSystem, words ...string) models.Tournament {
	doc := models.NewTournament()
	doc.BanSystem = system
	slot := doc.Words[1]
	slot.Pool = append([]string{}, words...)
	doc.Words[1] = slot
	return doc
}

func TestAddWord(t *testing.T) {
	s, err := Open(models.NewTournament(), 1)
	require.NoError(t, err)

	require.NoError(t, s.AddWord("  pickle "))
	assert.Equal(t, []string{"PICKLE"}, s.Pool)

	assert.ErrorIs(t, s.AddWord("Pickle"), ErrDuplicateWord)
	assert.ErrorIs(t, s.AddWord("   "), ErrEmptyWord)

	for i := len(s.Pool); i < models.MaxPoolWords; i++ {
		require.NoError(t, s.AddWord(fmt.Sprintf("w%d", i)))
	}
	assert.ErrorIs(t, s.AddWord("overflow"), ErrPoolFull)
	assert.Len(t, s.Pool, models.MaxPoolWords)
}

func TestOpenRejectsUnknownGame(t *testing.T) {
	_, err := Open(models.NewTournament(), 4)
	assert.ErrorIs(t, err, ErrUnknownGame)
	_, err = Open(models.NewTournament(), 0)
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestToggleBanOriginal(t *testing.T) {
	doc := docWithPool(models.BanSystemOriginal, "A", "B", "C", "D", "E", "F", "G", "H", "I")
	s, err := Open(doc, 2)
	require.NoError(t, err)

	require.NoError(t, s.Assign(3, "a"))
	require.NoError(t, s.ToggleBan("a"))
	assert.Equal(t, []string{"A"}, s.Banned)
	assert.NotContains(t, s.Assignments, 3)

	require.NoError(t, s.ToggleBan("A"))
	assert.Empty(t, s.Banned)

	for _, w := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		require.NoError(t, s.ToggleBan(w))
	}
	assert.ErrorIs(t, s.ToggleBan("I"), ErrBanLimit)
	assert.ErrorIs(t, s.ToggleBan("Z"), ErrUnknownWord)
}

func TestBansDoNotCarryOverInOriginal(t *testing.T) {
	doc := docWithPool(models.BanSystemOriginal, "A", "B")
	doc.Words[1] = models.WordSlot{Pool: []string{"A", "B"}, Banned: []string{"A"}, Assignments: map[int]string{}}

	s, err := Open(doc, 2)
	require.NoError(t, err)
	assert.Empty(t, s.Inherited)
	assert.Equal(t, []string{"A", "B"}, s.Available())
}

func TestCumulativeBans(t *testing.T) {
	doc := docWithPool(models.BanSystemNew, "A", "B", "C", "D", "E", "F", "G", "H", "I", "J")
	doc.Words[1] = models.WordSlot{Pool: doc.Pool(), Banned: []string{"A", "B"}, Assignments: map[int]string{}}
	doc.Words[2] = models.WordSlot{Pool: []string{}, Banned: []string{"C"}, Assignments: map[int]string{}}

	s, err := Open(doc, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, s.Inherited)

	assert.ErrorIs(t, s.ToggleBan("B"), ErrInheritedBan)
	for _, w := range []string{"D", "E", "F", "G"} {
		require.NoError(t, s.ToggleBan(w))
	}
	assert.ErrorIs(t, s.ToggleBan("H"), ErrBanLimit)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, s.EffectiveBans())
	assert.Equal(t, []string{"H", "I", "J"}, s.Available())

	assert.ErrorIs(t, s.Assign(1, "H"), ErrAssignmentsDisabled)

	s.Apply(&doc)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, EffectiveBans(doc, 3))
	assert.Equal(t, []string{"A", "B"}, EffectiveBans(doc, 1))
}

func TestInheritedExcludesOwnBans(t *testing.T) {
	doc := docWithPool(models.BanSystemNew, "A", "B")
	doc.Words[1] = models.WordSlot{Pool: []string{"A", "B"}, Banned: []string{"A"}}
	doc.Words[2] = models.WordSlot{Banned: []string{"A"}}

	assert.Empty(t, Inherited(doc, 2))
	assert.Equal(t, []string{"A"}, EffectiveBans(doc, 2))
}

func TestAssignIsExclusive(t *testing.T) {
	doc := docWithPool(models.BanSystemOriginal, "A", "B")
	s, err := Open(doc, 1)
	require.NoError(t, err)

	require.NoError(t, s.Assign(1, "a"))
	require.NoError(t, s.Assign(2, "A"))
	assert.Equal(t, map[int]string{2: "A"}, s.Assignments)

	require.NoError(t, s.Assign(2, "B"))
	assert.Equal(t, map[int]string{2: "B"}, s.Assignments)

	require.NoError(t, s.Assign(2, ""))
	assert.Empty(t, s.Assignments)

	assert.ErrorIs(t, s.Assign(1, "Q"), ErrUnknownWord)
	assert.ErrorIs(t, s.Assign(99, "A"), ErrUnknownTeam)

	require.NoError(t, s.ToggleBan("A"))
	assert.ErrorIs(t, s.Assign(1, "A"), ErrWordBanned)
}

func TestRemoveWordCascadesAcrossGames(t *testing.T) {
	for _, system := range []models.BanSystem{models.BanSystemOriginal, models.BanSystemNew} {
		t.Run(string(system), func(t *testing.T) {
			doc := docWithPool(system, "A", "B", "C")
			doc.Words[1] = models.WordSlot{Pool: []string{"A", "B", "C"}, Banned: []string{"A"}, Assignments: map[int]string{1: "B"}}
			doc.Words[2] = models.WordSlot{Banned: []string{"B"}, Assignments: map[int]string{4: "A", 5: "C"}}
			doc.Words[3] = models.WordSlot{Banned: []string{"A", "C"}, Assignments: map[int]string{}}

			require.NoError(t, RemoveWord(&doc, "a"))

			assert.Equal(t, []string{"B", "C"}, doc.Pool())
			assert.Empty(t, doc.Words[1].Banned)
			assert.Equal(t, map[int]string{1: "B"}, doc.Words[1].Assignments)
			assert.Equal(t, []string{"B"}, doc.Words[2].Banned)
			assert.Equal(t, map[int]string{5: "C"}, doc.Words[2].Assignments)
			assert.Equal(t, []string{"C"}, doc.Words[3].Banned)

			assert.ErrorIs(t, RemoveWord(&doc, "A"), ErrUnknownWord)
		})
	}
}

func TestSheetRemoveThenApplyPurgesOtherGames(t *testing.T) {
	doc := docWithPool(models.BanSystemOriginal, "A", "B")
	doc.Words[3] = models.WordSlot{Banned: []string{"B"}, Assignments: map[int]string{2: "B"}}

	s, err := Open(doc, 1)
	require.NoError(t, err)
	require.NoError(t, s.RemoveWord("B"))
	assert.ErrorIs(t, s.RemoveWord("B"), ErrUnknownWord)

	s.Apply(&doc)
	assert.Equal(t, []string{"A"}, doc.Pool())
	assert.Empty(t, doc.Words[3].Banned)
	assert.Empty(t, doc.Words[3].Assignments)
}

func TestSheetIsolatedUntilApplied(t *testing.T) {
	doc := docWithPool(models.BanSystemOriginal, "A")
	s, err := Open(doc, 2)
	require.NoError(t, err)

	require.NoError(t, s.AddWord("B"))
	require.NoError(t, s.ToggleBan("A"))
	assert.Equal(t, []string{"A"}, doc.Pool())
	assert.Empty(t, doc.Words[2].Banned)

	c := s.Clone()
	require.NoError(t, c.ToggleBan("B"))
	assert.Equal(t, []string{"A"}, s.Banned)

	s.Apply(&doc)
	assert.Equal(t, []string{"A", "B"}, doc.Pool())
	assert.Equal(t, []string{"A"}, doc.Words[2].Banned)
}
