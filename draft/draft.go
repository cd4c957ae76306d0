package draft

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"quipcup/models"
)

var (
	ErrEmptyWord           = errors.New("word cannot be empty")
	ErrDuplicateWord       = errors.New("word already in pool")
	ErrPoolFull            = errors.New("word pool is full")
	ErrUnknownWord         = errors.New("word not in pool")
	ErrUnknownGame         = errors.New("no such game")
	ErrBanLimit            = errors.New("ban limit reached for this game")
	ErrInheritedBan        = errors.New("word was banned in an earlier game")
	ErrWordBanned          = errors.New("word is banned")
	ErrAssignmentsDisabled = errors.New("assignments are not used with cumulative bans")
	ErrUnknownTeam         = errors.New("team not found")
)

// BanLimit is how many words a single game may ban under each system.
func BanLimit(system models.BanSystem) int {
	if system == models.BanSystemNew {
		return 4
	}
	return 8
}

// Token normalizes user input into a pool word.
func Token(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// Sheet is an editable copy of one game's draft. Pool edits land on the
// shared pool when the sheet is applied.
type Sheet struct {
	Game        int              `json:"game"`
	System      models.BanSystem `json:"banSystem"`
	Pool        []string         `json:"pool"`
	Banned      []string         `json:"banned"`
	Inherited   []string         `json:"inherited"`
	Assignments map[int]string   `json:"assignments"`
	teams       []int
}

// Open copies game's draft out of doc.
func Open(doc models.Tournament, game int) (Sheet, error) {
	if game < 1 || game > doc.NumGames() {
		return Sheet{}, fmt.Errorf("%w: %d", ErrUnknownGame, game)
	}
	slot := doc.Slot(game)
	s := Sheet{
		Game:        game,
		System:      doc.BanSystem,
		Pool:        append([]string{}, doc.Pool()...),
		Banned:      append([]string{}, slot.Banned...),
		Inherited:   Inherited(doc, game),
		Assignments: make(map[int]string, len(slot.Assignments)),
	}
	for id, w := range slot.Assignments {
		s.Assignments[id] = w
	}
	for _, t := range doc.Teams {
		s.teams = append(s.teams, t.ID)
	}
	return s, nil
}

// Clone deep-copies the sheet.
func (s Sheet) Clone() Sheet {
	c := s
	c.Pool = append([]string{}, s.Pool...)
	c.Banned = append([]string{}, s.Banned...)
	c.Inherited = append([]string{}, s.Inherited...)
	c.teams = append([]int(nil), s.teams...)
	c.Assignments = make(map[int]string, len(s.Assignments))
	for id, w := range s.Assignments {
		c.Assignments[id] = w
	}
	return c
}

func (s *Sheet) AddWord(raw string) error {
	w := Token(raw)
	switch {
	case w == "":
		return ErrEmptyWord
	case slices.Contains(s.Pool, w):
		return fmt.Errorf("%w: %s", ErrDuplicateWord, w)
	case len(s.Pool) >= models.MaxPoolWords:
		return ErrPoolFull
	}
	s.Pool = append(s.Pool, w)
	return nil
}

// RemoveWord drops w from the pool and from this sheet's bans and
// assignments. Other games are purged on Apply.
func (s *Sheet) RemoveWord(raw string) error {
	w := Token(raw)
	i := slices.Index(s.Pool, w)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownWord, w)
	}
	s.Pool = slices.Delete(s.Pool, i, i+1)
	s.Banned = without(s.Banned, w)
	s.Inherited = without(s.Inherited, w)
	for id, a := range s.Assignments {
		if a == w {
			delete(s.Assignments, id)
		}
	}
	return nil
}

// ToggleBan unbans a banned word, or bans it when the game is under its
// limit. Banning clears the word's assignment in this game only.
func (s *Sheet) ToggleBan(raw string) error {
	w := Token(raw)
	if !slices.Contains(s.Pool, w) {
		return fmt.Errorf("%w: %s", ErrUnknownWord, w)
	}
	if slices.Contains(s.Inherited, w) {
		return fmt.Errorf("%w: %s", ErrInheritedBan, w)
	}
	if slices.Contains(s.Banned, w) {
		s.Banned = without(s.Banned, w)
		return nil
	}
	if len(s.Banned) >= BanLimit(s.System) {
		return ErrBanLimit
	}
	s.Banned = append(s.Banned, w)
	for id, a := range s.Assignments {
		if a == w {
			delete(s.Assignments, id)
		}
	}
	return nil
}

// Assign gives raw to team exclusively, taking it from any other team. An
// empty word clears the team's assignment.
func (s *Sheet) Assign(teamID int, raw string) error {
	if s.System == models.BanSystemNew {
		return ErrAssignmentsDisabled
	}
	if len(s.teams) > 0 && !slices.Contains(s.teams, teamID) {
		return fmt.Errorf("%w: %d", ErrUnknownTeam, teamID)
	}
	w := Token(raw)
	if w == "" {
		delete(s.Assignments, teamID)
		return nil
	}
	if !slices.Contains(s.Pool, w) {
		return fmt.Errorf("%w: %s", ErrUnknownWord, w)
	}
	if slices.Contains(s.EffectiveBans(), w) {
		return fmt.Errorf("%w: %s", ErrWordBanned, w)
	}
	for id, a := range s.Assignments {
		if a == w {
			delete(s.Assignments, id)
		}
	}
	s.Assignments[teamID] = w
	return nil
}

// EffectiveBans is this game's bans plus, for cumulative bans, every
// earlier game's.
func (s Sheet) EffectiveBans() []string {
	out := append([]string{}, s.Inherited...)
	for _, w := range s.Banned {
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

// Available lists pool words not banned for this game, in pool order.
func (s Sheet) Available() []string {
	banned := s.EffectiveBans()
	out := make([]string, 0, len(s.Pool))
	for _, w := range s.Pool {
		if !slices.Contains(banned, w) {
			out = append(out, w)
		}
	}
	return out
}

// Apply writes the sheet into doc and purges words that left the pool from
// every game.
func (s Sheet) Apply(doc *models.Tournament) {
	if doc.Words == nil {
		doc.Words = map[int]models.WordSlot{}
	}
	pool := doc.Slot(models.PoolGame)
	pool.Pool = append([]string{}, s.Pool...)
	doc.Words[models.PoolGame] = pool

	slot := doc.Slot(s.Game)
	slot.Banned = append([]string{}, s.Banned...)
	slot.Assignments = make(map[int]string, len(s.Assignments))
	for id, w := range s.Assignments {
		slot.Assignments[id] = w
	}
	doc.Words[s.Game] = slot
	Prune(doc)
}

// Inherited is the union of bans from games before game, excluding game's
// own bans. Only cumulative bans inherit.
func Inherited(doc models.Tournament, game int) []string {
	if doc.BanSystem != models.BanSystemNew {
		return []string{}
	}
	own := doc.Slot(game).Banned
	out := []string{}
	for g := 1; g < game; g++ {
		for _, w := range doc.Slot(g).Banned {
			if !slices.Contains(own, w) && !slices.Contains(out, w) {
				out = append(out, w)
			}
		}
	}
	return out
}

// EffectiveBans returns the ban set in force for game.
func EffectiveBans(doc models.Tournament, game int) []string {
	out := Inherited(doc, game)
	for _, w := range doc.Slot(game).Banned {
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}

// RemoveWord removes w from the pool and every game's bans and assignments.
func RemoveWord(doc *models.Tournament, raw string) error {
	w := Token(raw)
	pool := doc.Slot(models.PoolGame)
	i := slices.Index(pool.Pool, w)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownWord, w)
	}
	pool.Pool = slices.Delete(slices.Clone(pool.Pool), i, i+1)
	doc.Words[models.PoolGame] = pool
	Prune(doc)
	return nil
}

// Prune drops banned and assigned words that are no longer in the pool.
func Prune(doc *models.Tournament) {
	pool := doc.Pool()
	for g, slot := range doc.Words {
		banned := make([]string, 0, len(slot.Banned))
		for _, w := range slot.Banned {
			if slices.Contains(pool, w) {
				banned = append(banned, w)
			}
		}
		slot.Banned = banned
		assignments := make(map[int]string, len(slot.Assignments))
		for id, w := range slot.Assignments {
			if slices.Contains(pool, w) {
				assignments[id] = w
			}
		}
		slot.Assignments = assignments
		doc.Words[g] = slot
	}
}

func without(words []string, w string) []string {
	out := make([]string, 0, len(words))
	for _, x := range words {
		if x != w {
			out = append(out, x)
		}
	}
	return out
}
