package phases

import (
	"errors"
	"fmt"

	"quipcup/models"
)

// Type is the dispatch key for everything that renders a phase.
type Type string

const (
	TypeSetup   Type = "setup"
	TypeDraft   Type = "draft"
	TypeGame    Type = "game"
	TypeResults Type = "results"
	TypePodium  Type = "podium"
)

const (
	SetupID  = "pregame"
	PodiumID = "podium"
)

var (
	ErrUnknownPhase = errors.New("unknown phase")
	ErrNoNextPhase  = errors.New("already at the last phase")
	ErrNoPrevPhase  = errors.New("already at the first phase")
	ErrPhaseLocked  = errors.New("phase is not live yet")
)

// Phase is one step of the tournament. Game is 0 for setup and podium.
type Phase struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Step  int    `json:"step"`
	Game  int    `json:"game,omitempty"`
	Type  Type   `json:"type"`
}

func (p Phase) HasGame() bool {
	return p.Game > 0
}

func ID(t Type, game int) string {
	if game == 0 {
		if t == TypePodium {
			return PodiumID
		}
		return SetupID
	}
	return fmt.Sprintf("%s_%d", t, game)
}

// Sequence builds setup, then draft/game/results for each game, then podium.
func Sequence(games int) []Phase {
	seq := make([]Phase, 0, games*3+2)
	seq = append(seq, Phase{ID: SetupID, Label: "Pre-Game", Type: TypeSetup})
	for g := 1; g <= games; g++ {
		seq = append(seq,
			Phase{ID: ID(TypeDraft, g), Label: fmt.Sprintf("Game %d: Draft", g), Game: g, Type: TypeDraft},
			Phase{ID: ID(TypeGame, g), Label: fmt.Sprintf("Game %d: Playing", g), Game: g, Type: TypeGame},
			Phase{ID: ID(TypeResults, g), Label: fmt.Sprintf("Game %d: Results", g), Game: g, Type: TypeResults},
		)
	}
	seq = append(seq, Phase{ID: PodiumID, Label: "Podium", Type: TypePodium})
	for i := range seq {
		seq[i].Step = i
	}
	return seq
}

// For returns the sequence matching the document's game count.
func For(doc models.Tournament) []Phase {
	return Sequence(doc.NumGames())
}

func Find(seq []Phase, id string) (Phase, bool) {
	for _, p := range seq {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

// Current resolves the live phase; an id missing from the sequence falls
// back to setup.
func Current(seq []Phase, id string) Phase {
	if p, ok := Find(seq, id); ok {
		return p
	}
	return seq[0]
}

func Next(seq []Phase, id string) (Phase, error) {
	p, ok := Find(seq, id)
	if !ok {
		return Phase{}, fmt.Errorf("%w: %q", ErrUnknownPhase, id)
	}
	if p.Step+1 >= len(seq) {
		return Phase{}, ErrNoNextPhase
	}
	return seq[p.Step+1], nil
}

func Prev(seq []Phase, id string) (Phase, error) {
	p, ok := Find(seq, id)
	if !ok {
		return Phase{}, fmt.Errorf("%w: %q", ErrUnknownPhase, id)
	}
	if p.Step == 0 {
		return Phase{}, ErrNoPrevPhase
	}
	return seq[p.Step-1], nil
}

// Transition moves doc to p. Entering a draft clears that game's strikes
// and DNF flags for every team; nothing else is touched.
func Transition(doc *models.Tournament, p Phase) {
	doc.CurrentPhase = p.ID
	if p.HasGame() {
		doc.CurrentGame = p.Game
	}
	if p.Type != TypeDraft {
		return
	}
	gi := p.Game - 1
	for i := range doc.Teams {
		t := &doc.Teams[i]
		if gi < len(t.Strikes) {
			t.Strikes[gi] = 0
		}
		if gi < len(t.DNF) {
			t.DNF[gi] = false
		}
	}
}

// Clamp pulls the live phase and editing game back inside the sequence
// after the game count shrinks.
func Clamp(doc *models.Tournament) {
	games := doc.NumGames()
	if _, ok := Find(Sequence(games), doc.CurrentPhase); !ok {
		doc.CurrentPhase = PodiumID
	}
	if doc.CurrentGame > games {
		doc.CurrentGame = games
	}
	if doc.CurrentGame < 1 {
		doc.CurrentGame = 1
	}
}

// Visible reports whether target may be shown while live is the live phase.
func Visible(seq []Phase, live, target string) error {
	t, ok := Find(seq, target)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, target)
	}
	if t.Step > Current(seq, live).Step {
		return ErrPhaseLocked
	}
	return nil
}
