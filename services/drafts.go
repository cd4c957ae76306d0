package services

import (
	"context"
	"fmt"
	"sync"

	"quipcup/draft"
	"quipcup/models"
	"quipcup/store"
)

// Roster is the editable list of teams.
type Roster []models.Team

func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for i, t := range r {
		out[i] = t.Clone()
	}
	return out
}

type TeamUpdateRequest struct {
	Name         *string `json:"name"`
	PlayerName   *string `json:"playerName"`
	CoachName    *string `json:"coachName"`
	TeamLogo     *string `json:"teamLogo"`
	PlayerAvatar *string `json:"playerAvatar"`
	CoachAvatar  *string `json:"coachAvatar"`
	Quote        *string `json:"quote"`
	PlayerQuote  *string `json:"playerQuote"`
	CoachQuote   *string `json:"coachQuote"`
	Description  *string `json:"description"`
}

func (r *TeamUpdateRequest) apply(t *models.Team) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.Name, r.Name)
	set(&t.PlayerName, r.PlayerName)
	set(&t.CoachName, r.CoachName)
	set(&t.TeamLogo, r.TeamLogo)
	set(&t.PlayerAvatar, r.PlayerAvatar)
	set(&t.CoachAvatar, r.CoachAvatar)
	set(&t.Quote, r.Quote)
	set(&t.PlayerQuote, r.PlayerQuote)
	set(&t.CoachQuote, r.CoachQuote)
	set(&t.Description, r.Description)
}

type WordRequest struct {
	Word string `json:"word" binding:"required"`
}

type AssignRequest struct {
	Word string `json:"word"`
}

// DraftService holds the admin's unpublished edits: one roster draft and
// one word sheet per game. Viewers see none of it until it is published.
type DraftService struct {
	tournament *TournamentService
	roster     *store.Draft[Roster]

	mu    sync.Mutex
	words map[int]*store.Draft[draft.Sheet]
}

func NewDraftService(tournament *TournamentService) *DraftService {
	d := &DraftService{
		tournament: tournament,
		words:      make(map[int]*store.Draft[draft.Sheet]),
	}
	d.roster = store.NewDraft(
		func() (Roster, error) { return Roster(tournament.Document().Teams).Clone(), nil },
		tournament.CommitRoster,
	)
	return d
}

func (d *DraftService) Roster() (Roster, error) {
	return d.roster.Get()
}

func (d *DraftService) EditTeam(id int, req *TeamUpdateRequest) (models.Team, error) {
	var edited models.Team
	_, err := d.roster.Edit(func(r *Roster) error {
		for i := range *r {
			if (*r)[i].ID == id {
				req.apply(&(*r)[i])
				edited = (*r)[i]
				return nil
			}
		}
		return fmt.Errorf("%w: %d", ErrTeamNotFound, id)
	})
	return edited, err
}

func (d *DraftService) PublishRoster(ctx context.Context) error {
	return d.roster.Commit(ctx)
}

func (d *DraftService) DiscardRoster() {
	d.roster.Discard()
}

func (d *DraftService) RosterPending() bool {
	return d.roster.Pending()
}

func (d *DraftService) sheet(game int) (*store.Draft[draft.Sheet], error) {
	if err := checkGame(d.tournament.Document(), game); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.words[game]; ok {
		return s, nil
	}
	s := store.NewDraft(
		func() (draft.Sheet, error) { return draft.Open(d.tournament.Document(), game) },
		d.tournament.CommitSheet,
	)
	d.words[game] = s
	return s, nil
}

func (d *DraftService) editSheet(game int, fn func(*draft.Sheet) error) (draft.Sheet, error) {
	s, err := d.sheet(game)
	if err != nil {
		return draft.Sheet{}, err
	}
	return s.Edit(fn)
}

func (d *DraftService) Sheet(game int) (draft.Sheet, error) {
	s, err := d.sheet(game)
	if err != nil {
		return draft.Sheet{}, err
	}
	return s.Get()
}

func (d *DraftService) AddWord(game int, word string) (draft.Sheet, error) {
	return d.editSheet(game, func(s *draft.Sheet) error { return s.AddWord(word) })
}

func (d *DraftService) RemoveWord(game int, word string) (draft.Sheet, error) {
	return d.editSheet(game, func(s *draft.Sheet) error { return s.RemoveWord(word) })
}

func (d *DraftService) ToggleBan(game int, word string) (draft.Sheet, error) {
	return d.editSheet(game, func(s *draft.Sheet) error { return s.ToggleBan(word) })
}

func (d *DraftService) Assign(game, teamID int, word string) (draft.Sheet, error) {
	return d.editSheet(game, func(s *draft.Sheet) error { return s.Assign(teamID, word) })
}

// PublishWords commits the game's sheet. Other open sheets are reopened
// from the new document, since the pool they copied may be stale.
func (d *DraftService) PublishWords(ctx context.Context, game int) error {
	s, err := d.sheet(game)
	if err != nil {
		return err
	}
	if err := s.Commit(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for g, other := range d.words {
		if g != game {
			other.Discard()
		}
	}
	return nil
}

func (d *DraftService) DiscardWords(game int) error {
	s, err := d.sheet(game)
	if err != nil {
		return err
	}
	s.Discard()
	return nil
}

// Reset drops every pending edit, used after a soft reset.
func (d *DraftService) Reset() {
	d.roster.Discard()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.words {
		s.Discard()
	}
}
