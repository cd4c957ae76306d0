package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"quipcup/draft"
	"quipcup/metrics"
	"quipcup/models"
	"quipcup/phases"
	"quipcup/scoring"
	"quipcup/syncer"
)

var (
	ErrInvalidGame      = errors.New("invalid game number")
	ErrTeamNotFound     = errors.New("team not found")
	ErrInvalidOrder     = errors.New("results order must list every team exactly once")
	ErrInvalidBanSystem = errors.New("ban system must be original or new")
	ErrInvalidDelta     = errors.New("delta must be -1 or 1")
)

// TournamentService owns the live document. It is the only writer: every
// mutation runs under one lock, in the order it was issued, on a copy that
// replaces the document wholesale and is then handed to the sync writer.
type TournamentService struct {
	mu      sync.Mutex
	doc     models.Tournament
	rules   scoring.Rules
	writer  syncer.Writer
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewTournamentService(initial models.Tournament, rules scoring.Rules, writer syncer.Writer, logger *zap.Logger, m *metrics.Metrics) *TournamentService {
	initial.Normalize()
	return &TournamentService{
		doc:     initial,
		rules:   rules,
		writer:  writer,
		logger:  logger.Named("tournament"),
		metrics: m,
	}
}

type PhaseRequest struct {
	PhaseID string `json:"phaseId" binding:"required"`
}

type GameRequest struct {
	Game int `json:"game" binding:"required"`
}

type ResultsRequest struct {
	Order []int `json:"order" binding:"required"`
}

// AdjustRequest changes a per-game counter by one. Game 0 means the
// admin's current game.
type AdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
	Game  int `json:"game"`
}

type SettingsRequest struct {
	TournamentName     *string `json:"tournamentName"`
	TournamentLogo     *string `json:"tournamentLogo"`
	IsDark             *bool   `json:"isDark"`
	Accent             *string `json:"accent"`
	Accent2            *string `json:"accent2"`
	BanSystem          *string `json:"banSystem"`
	RegistrationLocked *bool   `json:"registrationLocked"`
	Game4Enabled       *bool   `json:"game4Enabled"`
}

func (s *TournamentService) Document() models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *TournamentService) Rules() scoring.Rules {
	return s.rules
}

// mutate applies fn to a copy of the document and publishes the result.
// A failing fn leaves the document untouched and publishes nothing.
func (s *TournamentService) mutate(ctx context.Context, op string, fn func(*models.Tournament) error) (models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		return s.doc.Clone(), err
	}
	s.doc = next
	s.metrics.AdminMutation(op)
	s.logger.Debug("document updated", zap.String("op", op), zap.String("phase", next.CurrentPhase))
	s.writer.Publish(ctx, next.Clone())
	return next.Clone(), nil
}

func (s *TournamentService) GoToPhase(ctx context.Context, id string) (models.Tournament, error) {
	return s.mutate(ctx, "phase", func(doc *models.Tournament) error {
		p, ok := phases.Find(phases.For(*doc), id)
		if !ok {
			return fmt.Errorf("%w: %q", phases.ErrUnknownPhase, id)
		}
		phases.Transition(doc, p)
		return nil
	})
}

func (s *TournamentService) NextPhase(ctx context.Context) (models.Tournament, error) {
	return s.step(ctx, "phase_next", phases.Next)
}

func (s *TournamentService) PrevPhase(ctx context.Context) (models.Tournament, error) {
	return s.step(ctx, "phase_prev", phases.Prev)
}

func (s *TournamentService) step(ctx context.Context, op string, move func([]phases.Phase, string) (phases.Phase, error)) (models.Tournament, error) {
	return s.mutate(ctx, op, func(doc *models.Tournament) error {
		seq := phases.For(*doc)
		p, err := move(seq, phases.Current(seq, doc.CurrentPhase).ID)
		if err != nil {
			return err
		}
		phases.Transition(doc, p)
		return nil
	})
}

// SetCurrentGame changes the game the admin is editing without moving the
// live phase.
func (s *TournamentService) SetCurrentGame(ctx context.Context, game int) (models.Tournament, error) {
	return s.mutate(ctx, "current_game", func(doc *models.Tournament) error {
		if err := checkGame(*doc, game); err != nil {
			return err
		}
		doc.CurrentGame = game
		return nil
	})
}

// ApplyResults records a finishing order. Teams on three strikes are DNF:
// they keep their raw position but score nothing and take no place from
// the others, who get compacted placements.
func (s *TournamentService) ApplyResults(ctx context.Context, game int, order []int) (models.Tournament, error) {
	return s.mutate(ctx, "results", func(doc *models.Tournament) error {
		if err := checkGame(*doc, game); err != nil {
			return err
		}
		if err := checkOrder(*doc, order); err != nil {
			return err
		}
		gi := game - 1
		dnf := make(map[int]bool)
		for _, t := range doc.Teams {
			if t.StrikesIn(gi) >= 3 {
				dnf[t.ID] = true
			}
		}
		placed := scoring.EffectivePlacements(order, dnf)
		for raw, id := range order {
			team, _ := doc.Team(id)
			if dnf[id] {
				team.DNF[gi] = true
				team.Placements[gi] = models.IntPtr(raw)
				continue
			}
			team.DNF[gi] = false
			team.Placements[gi] = models.IntPtr(placed[id])
		}
		doc.MarkCompleted(game)
		return nil
	})
}

// PlacementPreview is what one team would get from a results order.
type PlacementPreview struct {
	TeamID    int  `json:"teamId"`
	DNF       bool `json:"dnf"`
	Placement *int `json:"placement"`
	Points    int  `json:"points"`
}

// PreviewResults scores order against the current strikes without saving.
func (s *TournamentService) PreviewResults(game int, order []int) ([]PlacementPreview, error) {
	doc := s.Document()
	if err := checkGame(doc, game); err != nil {
		return nil, err
	}
	if err := checkOrder(doc, order); err != nil {
		return nil, err
	}
	gi := game - 1
	dnf := make(map[int]bool)
	for _, t := range doc.Teams {
		if t.StrikesIn(gi) >= 3 {
			dnf[t.ID] = true
		}
	}
	placed := scoring.EffectivePlacements(order, dnf)
	out := make([]PlacementPreview, 0, len(order))
	for _, id := range order {
		p := PlacementPreview{TeamID: id, DNF: dnf[id]}
		if !p.DNF {
			p.Placement = models.IntPtr(placed[id])
			team, _ := doc.Team(id)
			preview := team.Clone()
			preview.Placements[gi] = p.Placement
			preview.DNF[gi] = false
			p.Points = s.rules.GameScore(preview, gi)
		}
		out = append(out, p)
	}
	return out, nil
}

// AdjustStrikes moves a team's strikes by one within 0..3. Three strikes
// is a DNF.
func (s *TournamentService) AdjustStrikes(ctx context.Context, teamID int, req AdjustRequest) (models.Tournament, error) {
	return s.adjust(ctx, "strikes", teamID, req, func(t *models.Team, gi int) {
		t.Strikes[gi] = min(3, max(0, t.Strikes[gi]+req.Delta))
		t.DNF[gi] = t.Strikes[gi] >= 3
	})
}

// AdjustBonus moves a team's bonus points by one, never below zero.
func (s *TournamentService) AdjustBonus(ctx context.Context, teamID int, req AdjustRequest) (models.Tournament, error) {
	return s.adjust(ctx, "bonus", teamID, req, func(t *models.Team, gi int) {
		t.BonusPoints[gi] = max(0, t.BonusPoints[gi]+req.Delta)
	})
}

func (s *TournamentService) adjust(ctx context.Context, op string, teamID int, req AdjustRequest, fn func(*models.Team, int)) (models.Tournament, error) {
	return s.mutate(ctx, op, func(doc *models.Tournament) error {
		if req.Delta != 1 && req.Delta != -1 {
			return ErrInvalidDelta
		}
		game := req.Game
		if game == 0 {
			game = doc.CurrentGame
		}
		if err := checkGame(*doc, game); err != nil {
			return err
		}
		team, ok := doc.Team(teamID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrTeamNotFound, teamID)
		}
		fn(team, game-1)
		return nil
	})
}

func (s *TournamentService) UpdateSettings(ctx context.Context, req *SettingsRequest) (models.Tournament, error) {
	return s.mutate(ctx, "settings", func(doc *models.Tournament) error {
		if req.BanSystem != nil {
			system := models.BanSystem(*req.BanSystem)
			if !system.Valid() {
				return ErrInvalidBanSystem
			}
			doc.BanSystem = system
		}
		if req.TournamentName != nil {
			doc.TournamentName = *req.TournamentName
		}
		if req.TournamentLogo != nil {
			doc.TournamentLogo = *req.TournamentLogo
		}
		if req.IsDark != nil {
			doc.IsDark = *req.IsDark
		}
		if req.Accent != nil {
			doc.Accent = *req.Accent
		}
		if req.Accent2 != nil {
			doc.Accent2 = *req.Accent2
		}
		if req.RegistrationLocked != nil {
			doc.RegistrationLocked = *req.RegistrationLocked
		}
		if req.Game4Enabled != nil && *req.Game4Enabled != doc.Game4Enabled {
			setGame4(doc, *req.Game4Enabled)
		}
		return nil
	})
}

// setGame4 resizes every per-game array, adds or drops the game-4 word
// slot and pulls the live phase back inside the shorter sequence.
func setGame4(doc *models.Tournament, enabled bool) {
	doc.Game4Enabled = enabled
	phases.Clamp(doc)
	doc.Normalize()
	if !enabled {
		doc.CompletedGames = slices.DeleteFunc(doc.CompletedGames, func(g int) bool { return g > models.BaseGames })
	}
}

// Reset returns to defaults, keeping team identities, branding, theme and
// the ban system.
func (s *TournamentService) Reset(ctx context.Context) (models.Tournament, error) {
	return s.mutate(ctx, "reset", func(doc *models.Tournament) error {
		*doc = SoftReset(*doc)
		return nil
	})
}

func SoftReset(old models.Tournament) models.Tournament {
	fresh := models.NewTournament()
	fresh.TournamentName = old.TournamentName
	fresh.TournamentLogo = old.TournamentLogo
	fresh.IsDark = old.IsDark
	fresh.Accent = old.Accent
	fresh.Accent2 = old.Accent2
	fresh.BanSystem = old.BanSystem
	fresh.Teams = make([]models.Team, len(old.Teams))
	for i, t := range old.Teams {
		fresh.Teams[i] = t.Identity(fresh.NumGames())
	}
	return fresh
}

// CommitRoster copies display fields from roster onto the live teams.
// Scores are not part of a roster edit and stay as they are.
func (s *TournamentService) CommitRoster(ctx context.Context, roster Roster) error {
	_, err := s.mutate(ctx, "roster", func(doc *models.Tournament) error {
		for _, edited := range roster {
			team, ok := doc.Team(edited.ID)
			if !ok {
				return fmt.Errorf("%w: %d", ErrTeamNotFound, edited.ID)
			}
			copyDisplay(team, edited)
		}
		return nil
	})
	return err
}

func (s *TournamentService) CommitSheet(ctx context.Context, sheet draft.Sheet) error {
	_, err := s.mutate(ctx, "words", func(doc *models.Tournament) error {
		if err := checkGame(*doc, sheet.Game); err != nil {
			return err
		}
		sheet.Apply(doc)
		return nil
	})
	return err
}

// RemoveWord drops a word from the live pool and every game at once.
func (s *TournamentService) RemoveWord(ctx context.Context, word string) (models.Tournament, error) {
	return s.mutate(ctx, "remove_word", func(doc *models.Tournament) error {
		return draft.RemoveWord(doc, word)
	})
}

// Republish sends the current document through the write path again.
func (s *TournamentService) Republish(ctx context.Context) models.Tournament {
	doc, _ := s.mutate(ctx, "republish", func(*models.Tournament) error { return nil })
	return doc
}

func copyDisplay(dst *models.Team, src models.Team) {
	dst.Name = src.Name
	dst.PlayerName = src.PlayerName
	dst.CoachName = src.CoachName
	dst.TeamLogo = src.TeamLogo
	dst.PlayerAvatar = src.PlayerAvatar
	dst.CoachAvatar = src.CoachAvatar
	dst.Quote = src.Quote
	dst.PlayerQuote = src.PlayerQuote
	dst.CoachQuote = src.CoachQuote
	dst.Description = src.Description
}

func checkGame(doc models.Tournament, game int) error {
	if game < 1 || game > doc.NumGames() {
		return fmt.Errorf("%w: %d", ErrInvalidGame, game)
	}
	return nil
}

func checkOrder(doc models.Tournament, order []int) error {
	if len(order) != len(doc.Teams) {
		return ErrInvalidOrder
	}
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		if _, ok := doc.Team(id); !ok || seen[id] {
			return ErrInvalidOrder
		}
		seen[id] = true
	}
	return nil
}
