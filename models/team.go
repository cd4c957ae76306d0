package models

import "fmt"

// Team is one competing unit (a player and a coach). ID is assigned when the
// slot is seeded and never changes.
type Team struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PlayerName   string `json:"playerName"`
	CoachName    string `json:"coachName"`
	TeamLogo     string `json:"teamLogo"`
	PlayerAvatar string `json:"playerAvatar"`
	CoachAvatar  string `json:"coachAvatar"`
	Quote        string `json:"quote"`
	PlayerQuote  string `json:"playerQuote"`
	CoachQuote   string `json:"coachQuote"`
	Description  string `json:"description"`

	// Per-game arrays, index g is game g+1.
	Placements  []*int `json:"placements"`
	DNF         []bool `json:"dnf"`
	Strikes     []int  `json:"strikes"`
	BonusPoints []int  `json:"bonusPoints"`
}

func NewTeam(id, games int) Team {
	return Team{
		ID:          id,
		Name:        fmt.Sprintf("Team %d", id),
		Placements:  make([]*int, games),
		DNF:         make([]bool, games),
		Strikes:     make([]int, games),
		BonusPoints: make([]int, games),
	}
}

// Resize pads or truncates the per-game arrays to exactly games entries.
func (t *Team) Resize(games int) {
	t.Placements = resize(t.Placements, games)
	t.DNF = resize(t.DNF, games)
	t.Strikes = resize(t.Strikes, games)
	t.BonusPoints = resize(t.BonusPoints, games)
}

// Placement returns the compacted placement for game index gi, or nil.
func (t Team) Placement(gi int) *int {
	if gi < 0 || gi >= len(t.Placements) {
		return nil
	}
	return t.Placements[gi]
}

func (t Team) IsDNF(gi int) bool {
	return gi >= 0 && gi < len(t.DNF) && t.DNF[gi]
}

func (t Team) StrikesIn(gi int) int {
	if gi < 0 || gi >= len(t.Strikes) {
		return 0
	}
	return t.Strikes[gi]
}

func (t Team) BonusIn(gi int) int {
	if gi < 0 || gi >= len(t.BonusPoints) {
		return 0
	}
	return t.BonusPoints[gi]
}

// Identity returns a fresh team that keeps only the display and image fields.
func (t Team) Identity(games int) Team {
	fresh := NewTeam(t.ID, games)
	fresh.Name = t.Name
	fresh.PlayerName = t.PlayerName
	fresh.CoachName = t.CoachName
	fresh.TeamLogo = t.TeamLogo
	fresh.PlayerAvatar = t.PlayerAvatar
	fresh.CoachAvatar = t.CoachAvatar
	return fresh
}

func (t Team) Clone() Team {
	c := t
	c.Placements = make([]*int, len(t.Placements))
	for i, p := range t.Placements {
		if p != nil {
			v := *p
			c.Placements[i] = &v
		}
	}
	c.DNF = append([]bool(nil), t.DNF...)
	c.Strikes = append([]int(nil), t.Strikes...)
	c.BonusPoints = append([]int(nil), t.BonusPoints...)
	return c
}

// IntPtr is a small helper for building placements.
func IntPtr(v int) *int { return &v }

func resize[T any](s []T, n int) []T {
	if len(s) == n {
		return s
	}
	if len(s) > n {
		return s[:n:n]
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
