package scoring

import (
	"sort"

	"quipcup/models"
)

// Rules holds the point tables and penalties. Games listed in ReducedGames
// score from ReducedPoints instead of StandardPoints.
type Rules struct {
	StandardPoints   []int
	ReducedPoints    []int
	ReducedGames     map[int]bool
	Multipliers      map[int]int
	TwoStrikePenalty int
}

func DefaultRules() Rules {
	return Rules{
		StandardPoints:   []int{12, 10, 8, 6, 4, 2, 1, 0},
		ReducedPoints:    []int{12, 10, 8, 6, 4, 0, 0, 0},
		ReducedGames:     map[int]bool{4: true},
		Multipliers:      map[int]int{1: 1, 2: 1, 3: 2, 4: 1},
		TwoStrikePenalty: -6,
	}
}

// PointTable returns the table for game number game (1-based).
func (r Rules) PointTable(game int) []int {
	if r.ReducedGames[game] {
		return r.ReducedPoints
	}
	return r.StandardPoints
}

func (r Rules) Multiplier(game int) int {
	if m, ok := r.Multipliers[game]; ok {
		return m
	}
	return 1
}

// GameScore scores team for game index gi (0-based).
func (r Rules) GameScore(team models.Team, gi int) int {
	if team.IsDNF(gi) {
		return 0
	}
	p := team.Placement(gi)
	if p == nil {
		return 0
	}
	table := r.PointTable(gi + 1)
	if *p < 0 || *p >= len(table) {
		return 0
	}
	return table[*p] * r.Multiplier(gi+1)
}

// StrikePenalty is non-positive. Three strikes cost nothing here; the DNF
// zeroes the game instead.
func (r Rules) StrikePenalty(strikes int) int {
	switch strikes {
	case 1:
		return -2
	case 2:
		return r.TwoStrikePenalty
	default:
		return 0
	}
}

// TeamTotal sums the first games games, floored at zero.
func (r Rules) TeamTotal(team models.Team, games int) int {
	total := 0
	for gi := 0; gi < games; gi++ {
		total += r.GameScore(team, gi) + team.BonusIn(gi) + r.StrikePenalty(team.StrikesIn(gi))
	}
	if total < 0 {
		return 0
	}
	return total
}

func TeamBonus(team models.Team, games int) int {
	sum := 0
	for gi := 0; gi < games; gi++ {
		sum += team.BonusIn(gi)
	}
	return sum
}

func TotalStrikes(team models.Team, games int) int {
	sum := 0
	for gi := 0; gi < games; gi++ {
		sum += team.StrikesIn(gi)
	}
	return sum
}

// Standing is one row of a leaderboard.
type Standing struct {
	Rank    int         `json:"rank"`
	Team    models.Team `json:"team"`
	Total   int         `json:"total"`
	Bonus   int         `json:"bonus"`
	Strikes int         `json:"strikes"`
	Games   []int       `json:"games"`
}

func (r Rules) standing(team models.Team, games int) Standing {
	s := Standing{
		Team:    team,
		Total:   r.TeamTotal(team, games),
		Bonus:   TeamBonus(team, games),
		Strikes: TotalStrikes(team, games),
		Games:   make([]int, games),
	}
	for gi := 0; gi < games; gi++ {
		s.Games[gi] = r.GameScore(team, gi)
	}
	return s
}

// RankTeams orders teams by total then bonus, both descending, counting
// only the first asOf games. Equal teams keep document order.
func (r Rules) RankTeams(teams []models.Team, asOf int) []Standing {
	out := make([]Standing, len(teams))
	for i, t := range teams {
		out[i] = r.standing(t, asOf)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Bonus > out[j].Bonus
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankCoaches orders by bonus descending, then fewest strikes.
func (r Rules) RankCoaches(teams []models.Team, asOf int) []Standing {
	out := make([]Standing, len(teams))
	for i, t := range teams {
		out[i] = r.standing(t, asOf)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Bonus != out[j].Bonus {
			return out[i].Bonus > out[j].Bonus
		}
		return out[i].Strikes < out[j].Strikes
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// EffectivePlacements maps an ordered list of team ids to compacted
// placements. DNF teams are skipped and do not consume a position.
func EffectivePlacements(order []int, dnf map[int]bool) map[int]int {
	out := make(map[int]int, len(order))
	next := 0
	for _, id := range order {
		if dnf[id] {
			continue
		}
		out[id] = next
		next++
	}
	return out
}
