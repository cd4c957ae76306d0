package views

import (
	"fmt"
	"sort"

	"quipcup/draft"
	"quipcup/models"
	"quipcup/phases"
	"quipcup/scoring"
)

// Placement status of one team in one game. A pending team and a DNF team
// both score zero; only the status tells them apart.
const (
	StatusPending = "pending"
	StatusDNF     = "dnf"
	StatusPlaced  = "placed"
)

type Branding struct {
	Name    string `json:"name"`
	Logo    string `json:"logo"`
	IsDark  bool   `json:"isDark"`
	Accent  string `json:"accent"`
	Accent2 string `json:"accent2"`
}

// Row is one leaderboard line.
type Row struct {
	Rank         int    `json:"rank"`
	TeamID       int    `json:"teamId"`
	Name         string `json:"name"`
	PlayerName   string `json:"playerName"`
	CoachName    string `json:"coachName"`
	TeamLogo     string `json:"teamLogo"`
	PlayerAvatar string `json:"playerAvatar"`
	CoachAvatar  string `json:"coachAvatar"`
	Total        int    `json:"total"`
	Bonus        int    `json:"bonus"`
	Strikes      int    `json:"strikes"`
	Games        []int  `json:"games"`
}

type DraftView struct {
	Game            int              `json:"game"`
	BanSystem       models.BanSystem `json:"banSystem"`
	BanLimit        int              `json:"banLimit"`
	Pool            []string         `json:"pool"`
	Banned          []string         `json:"banned"`
	Inherited       []string         `json:"inherited"`
	Available       []string         `json:"available"`
	Assignments     map[int]string   `json:"assignments,omitempty"`
	AssignmentOrder []int            `json:"assignmentOrder,omitempty"`
}

type LiveTeam struct {
	Row
	LiveStrikes int  `json:"liveStrikes"`
	LiveBonus   int  `json:"liveBonus"`
	DNF         bool `json:"dnf"`
}

type GameView struct {
	Game  int        `json:"game"`
	Teams []LiveTeam `json:"teams"`
}

type ResultLine struct {
	TeamID    int    `json:"teamId"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Placement *int   `json:"placement"`
	Points    int    `json:"points"`
	Strikes   int    `json:"strikes"`
	Bonus     int    `json:"bonus"`
}

type ResultsView struct {
	Game      int          `json:"game"`
	Completed bool         `json:"completed"`
	Results   []ResultLine `json:"results"`
	Standings []Row        `json:"standings"`
}

type PodiumView struct {
	Standings []Row `json:"standings"`
	Coaches   []Row `json:"coaches"`
}

// View is what a screen needs to render one phase. Exactly one of the
// phase-specific parts is set, chosen by the phase type.
type View struct {
	Phase              phases.Phase  `json:"phase"`
	LivePhase          string        `json:"livePhase"`
	Tournament         Branding      `json:"tournament"`
	RegistrationLocked bool          `json:"registrationLocked"`
	Roster             []models.Team `json:"roster,omitempty"`
	Draft              *DraftView    `json:"draft,omitempty"`
	Game               *GameView     `json:"game,omitempty"`
	Results            *ResultsView  `json:"results,omitempty"`
	Podium             *PodiumView   `json:"podium,omitempty"`
}

// Project builds the view of phaseID; an empty id means the live phase.
func Project(doc models.Tournament, rules scoring.Rules, phaseID string) (View, error) {
	seq := phases.For(doc)
	p := phases.Current(seq, doc.CurrentPhase)
	if phaseID != "" {
		found, ok := phases.Find(seq, phaseID)
		if !ok {
			return View{}, fmt.Errorf("%w: %q", phases.ErrUnknownPhase, phaseID)
		}
		p = found
	}

	v := View{
		Phase:     p,
		LivePhase: phases.Current(seq, doc.CurrentPhase).ID,
		Tournament: Branding{
			Name:    doc.TournamentName,
			Logo:    doc.TournamentLogo,
			IsDark:  doc.IsDark,
			Accent:  doc.Accent,
			Accent2: doc.Accent2,
		},
		RegistrationLocked: doc.RegistrationLocked,
	}
	switch p.Type {
	case phases.TypeSetup:
		v.Roster = doc.Teams
	case phases.TypeDraft:
		d := Draft(doc, rules, p.Game)
		v.Draft = &d
	case phases.TypeGame:
		g := Game(doc, rules, p.Game)
		v.Game = &g
	case phases.TypeResults:
		r := Results(doc, rules, p.Game)
		v.Results = &r
	case phases.TypePodium:
		v.Podium = &PodiumView{
			Standings: Standings(doc, rules, doc.NumGames()),
			Coaches:   Coaches(doc, rules, doc.NumGames()),
		}
	}
	return v, nil
}

// Standings is the main board counting the first asOf games.
func Standings(doc models.Tournament, rules scoring.Rules, asOf int) []Row {
	return rows(rules.RankTeams(doc.Teams, clampGames(doc, asOf)))
}

// Coaches is the coach board: bonus first, fewest strikes second.
func Coaches(doc models.Tournament, rules scoring.Rules, asOf int) []Row {
	return rows(rules.RankCoaches(doc.Teams, clampGames(doc, asOf)))
}

func Draft(doc models.Tournament, rules scoring.Rules, game int) DraftView {
	slot := doc.Slot(game)
	inherited := draft.Inherited(doc, game)
	effective := draft.EffectiveBans(doc, game)
	v := DraftView{
		Game:      game,
		BanSystem: doc.BanSystem,
		BanLimit:  draft.BanLimit(doc.BanSystem),
		Pool:      doc.Pool(),
		Banned:    slot.Banned,
		Inherited: inherited,
		Available: []string{},
	}
	for _, w := range v.Pool {
		if !contains(effective, w) {
			v.Available = append(v.Available, w)
		}
	}
	if doc.BanSystem == models.BanSystemOriginal {
		v.Assignments = slot.Assignments
		v.AssignmentOrder = AssignmentOrder(doc, rules, game)
	}
	return v
}

// AssignmentOrder is document order for game 1 and the standings after the
// previous game otherwise.
func AssignmentOrder(doc models.Tournament, rules scoring.Rules, game int) []int {
	out := make([]int, 0, len(doc.Teams))
	if game <= 1 {
		for _, t := range doc.Teams {
			out = append(out, t.ID)
		}
		return out
	}
	for _, s := range rules.RankTeams(doc.Teams, clampGames(doc, game-1)) {
		out = append(out, s.Team.ID)
	}
	return out
}

// Game shows standings before this game plus its live strikes and bonus.
func Game(doc models.Tournament, rules scoring.Rules, game int) GameView {
	gi := game - 1
	standings := rules.RankTeams(doc.Teams, clampGames(doc, gi))
	v := GameView{Game: game, Teams: make([]LiveTeam, len(standings))}
	for i, s := range standings {
		v.Teams[i] = LiveTeam{
			Row:         row(s),
			LiveStrikes: s.Team.StrikesIn(gi),
			LiveBonus:   s.Team.BonusIn(gi),
			DNF:         s.Team.IsDNF(gi),
		}
	}
	return v
}

// Results lists the game's finishing order, placed teams first, then DNF,
// then pending, with standings through this game.
func Results(doc models.Tournament, rules scoring.Rules, game int) ResultsView {
	gi := game - 1
	lines := make([]ResultLine, len(doc.Teams))
	for i, t := range doc.Teams {
		lines[i] = ResultLine{
			TeamID:    t.ID,
			Name:      t.Name,
			Status:    Status(t, gi),
			Placement: t.Placement(gi),
			Points:    rules.GameScore(t, gi),
			Strikes:   t.StrikesIn(gi),
			Bonus:     t.BonusIn(gi),
		}
	}
	rank := map[string]int{StatusPlaced: 0, StatusDNF: 1, StatusPending: 2}
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if rank[a.Status] != rank[b.Status] {
			return rank[a.Status] < rank[b.Status]
		}
		if a.Placement != nil && b.Placement != nil {
			return *a.Placement < *b.Placement
		}
		return false
	})
	return ResultsView{
		Game:      game,
		Completed: doc.IsCompleted(game),
		Results:   lines,
		Standings: Standings(doc, rules, game),
	}
}

func Status(t models.Team, gi int) string {
	switch {
	case t.IsDNF(gi):
		return StatusDNF
	case t.Placement(gi) == nil:
		return StatusPending
	default:
		return StatusPlaced
	}
}

func clampGames(doc models.Tournament, asOf int) int {
	return max(0, min(asOf, doc.NumGames()))
}

func rows(standings []scoring.Standing) []Row {
	out := make([]Row, len(standings))
	for i, s := range standings {
		out[i] = row(s)
	}
	return out
}

func row(s scoring.Standing) Row {
	return Row{
		Rank:         s.Rank,
		TeamID:       s.Team.ID,
		Name:         s.Team.Name,
		PlayerName:   s.Team.PlayerName,
		CoachName:    s.Team.CoachName,
		TeamLogo:     s.Team.TeamLogo,
		PlayerAvatar: s.Team.PlayerAvatar,
		CoachAvatar:  s.Team.CoachAvatar,
		Total:        s.Total,
		Bonus:        s.Bonus,
		Strikes:      s.Strikes,
		Games:        s.Games,
	}
}

func contains(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
