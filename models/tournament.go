package models

import (
	"slices"
	"strings"
)

const (
	MaxTeams     = 8
	BaseGames    = 3
	MaxGames     = 4
	MaxPoolWords = 16

	// StorageKey names the single slot the document is cached under.
	StorageKey = "quiplash_v4"

	// PoolGame is the game whose word slot owns the shared pool.
	PoolGame = 1

	DefaultTournamentName = "Competitive Quiplash Championship"
	DefaultPhase          = "pregame"
)

type BanSystem string

const (
	BanSystemOriginal BanSystem = "original"
	BanSystemNew      BanSystem = "new"
)

func (b BanSystem) Valid() bool {
	return b == BanSystemOriginal || b == BanSystemNew
}

// WordSlot holds one game's draft data. Pool is only meaningful under
// PoolGame; later games read it from there.
type WordSlot struct {
	Pool        []string       `json:"pool"`
	Banned      []string       `json:"banned"`
	Assignments map[int]string `json:"assignments"`
}

func (w WordSlot) Clone() WordSlot {
	c := WordSlot{
		Pool:        append([]string{}, w.Pool...),
		Banned:      append([]string{}, w.Banned...),
		Assignments: make(map[int]string, len(w.Assignments)),
	}
	for k, v := range w.Assignments {
		c.Assignments[k] = v
	}
	return c
}

// Tournament is the single document shared between the admin and every viewer.
type Tournament struct {
	TournamentName     string           `json:"tournamentName"`
	TournamentLogo     string           `json:"tournamentLogo"`
	IsDark             bool             `json:"isDark"`
	Accent             string           `json:"accent"`
	Accent2            string           `json:"accent2"`
	Teams              []Team           `json:"teams"`
	CurrentPhase       string           `json:"currentPhase"`
	CurrentGame        int              `json:"currentGame"`
	Words              map[int]WordSlot `json:"words"`
	CompletedGames     []int            `json:"completedGames"`
	BanSystem          BanSystem        `json:"banSystem"`
	RegistrationLocked bool             `json:"registrationLocked"`
	Game4Enabled       bool             `json:"game4Enabled"`
}

// NewTournament returns the default document with all team slots seeded.
func NewTournament() Tournament {
	t := Tournament{
		TournamentName: DefaultTournamentName,
		IsDark:         true,
		Accent:         "#f7c948",
		Accent2:        "#ff6b35",
		Teams:          make([]Team, 0, MaxTeams),
		CurrentPhase:   DefaultPhase,
		CurrentGame:    1,
		Words:          make(map[int]WordSlot, BaseGames),
		CompletedGames: []int{},
		BanSystem:      BanSystemOriginal,
	}
	for i := 1; i <= MaxTeams; i++ {
		t.Teams = append(t.Teams, NewTeam(i, BaseGames))
	}
	for g := 1; g <= BaseGames; g++ {
		t.Words[g] = WordSlot{Pool: []string{}, Banned: []string{}, Assignments: map[int]string{}}
	}
	return t
}

// NumGames is 3, or 4 when the extra game is enabled.
func (t Tournament) NumGames() int {
	if t.Game4Enabled {
		return MaxGames
	}
	return BaseGames
}

func (t *Tournament) Team(id int) (*Team, bool) {
	for i := range t.Teams {
		if t.Teams[i].ID == id {
			return &t.Teams[i], true
		}
	}
	return nil, false
}

func (t Tournament) IsCompleted(game int) bool {
	return slices.Contains(t.CompletedGames, game)
}

func (t *Tournament) MarkCompleted(game int) {
	if !t.IsCompleted(game) {
		t.CompletedGames = append(t.CompletedGames, game)
	}
}

// Pool returns the shared word pool.
func (t Tournament) Pool() []string {
	return t.Words[PoolGame].Pool
}

// Slot returns the word slot of a game, never with nil collections.
func (t Tournament) Slot(game int) WordSlot {
	s := t.Words[game]
	if s.Pool == nil {
		s.Pool = []string{}
	}
	if s.Banned == nil {
		s.Banned = []string{}
	}
	if s.Assignments == nil {
		s.Assignments = map[int]string{}
	}
	return s
}

// Normalize fills what a partial or older document may lack: nil
// collections, a missing roster, per-game arrays of the wrong length, an
// unknown ban system, and out-of-range game numbers. It never drops team
// identity.
func (t *Tournament) Normalize() {
	games := t.NumGames()
	if !t.BanSystem.Valid() {
		t.BanSystem = BanSystemOriginal
	}
	if t.CurrentPhase == "" {
		t.CurrentPhase = DefaultPhase
	}
	if t.CurrentGame < 1 || t.CurrentGame > games {
		t.CurrentGame = 1
	}
	if len(t.Teams) == 0 {
		t.Teams = make([]Team, 0, MaxTeams)
		for i := 1; i <= MaxTeams; i++ {
			t.Teams = append(t.Teams, NewTeam(i, games))
		}
	}
	for i := range t.Teams {
		t.Teams[i].Resize(games)
	}
	if t.Words == nil {
		t.Words = make(map[int]WordSlot, games)
	}
	for g := 1; g <= games; g++ {
		t.Words[g] = t.Slot(g)
	}
	for g := range t.Words {
		if g < 1 || g > games {
			delete(t.Words, g)
		}
	}
	if t.CompletedGames == nil {
		t.CompletedGames = []int{}
	}
	pool := t.Words[PoolGame]
	for i, w := range pool.Pool {
		pool.Pool[i] = strings.ToUpper(strings.TrimSpace(w))
	}
	t.Words[PoolGame] = pool
}

// Clone returns a deep copy; every mutation works on a clone so the
// previous document stays valid for concurrent readers.
func (t Tournament) Clone() Tournament {
	c := t
	c.Teams = make([]Team, len(t.Teams))
	for i, tm := range t.Teams {
		c.Teams[i] = tm.Clone()
	}
	c.Words = make(map[int]WordSlot, len(t.Words))
	for g, s := range t.Words {
		c.Words[g] = s.Clone()
	}
	c.CompletedGames = append([]int{}, t.CompletedGames...)
	return c
}
