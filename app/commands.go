package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"quipcup/export"
	"quipcup/models"
	"quipcup/phases"
	"quipcup/services"
	"quipcup/views"
)

// Watch follows the remote document and prints the shown phase on every
// update. A non-empty phaseID pins that phase until it stops being visible.
func (a *App) Watch(ctx context.Context, w io.Writer, phaseID string) error {
	doc := a.Load(ctx)
	viewer, stop := a.follow(ctx, doc)
	defer stop()

	var browser phases.Browser
	if phaseID != "" {
		if err := browser.Select(phases.For(doc), doc.CurrentPhase, phaseID); err != nil {
			return err
		}
	}

	updates, unwatch := viewer.Watch()
	defer unwatch()
	for {
		shown := browser.Shown(phases.For(doc), doc.CurrentPhase)
		v, err := views.Project(doc, a.rules, shown.ID)
		if err != nil {
			return err
		}
		if err := PrintView(w, v); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-updates:
			if !ok {
				return nil
			}
			doc = next
		}
	}
}

// PrintView writes a plain-text board for one phase view.
func PrintView(w io.Writer, v views.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== %s | %s (live: %s)\n", v.Tournament.Name, v.Phase.Label, v.LivePhase)

	switch {
	case v.Roster != nil:
		fmt.Fprintln(tw, "TEAM\tPLAYER\tCOACH")
		for _, t := range v.Roster {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.PlayerName, t.CoachName)
		}
	case v.Draft != nil:
		fmt.Fprintf(tw, "Pool: %v\nBanned: %v\nInherited: %v\nAvailable: %v\n",
			v.Draft.Pool, v.Draft.Banned, v.Draft.Inherited, v.Draft.Available)
	case v.Game != nil:
		fmt.Fprintln(tw, "#\tTEAM\tTOTAL\tSTRIKES\tBONUS")
		for _, t := range v.Game.Teams {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", t.Rank, t.Name, t.Total, t.LiveStrikes, t.LiveBonus)
		}
	case v.Results != nil:
		fmt.Fprintln(tw, "TEAM\tSTATUS\tPOINTS")
		for _, line := range v.Results.Results {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", line.Name, line.Status, line.Points)
		}
		printRows(tw, v.Results.Standings)
	case v.Podium != nil:
		printRows(tw, v.Podium.Standings)
		fmt.Fprintln(tw, "COACH\tTEAM\tBONUS\tSTRIKES")
		for _, r := range v.Podium.Coaches {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.CoachName, r.Name, r.Bonus, r.Strikes)
		}
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func printRows(w io.Writer, rows []views.Row) {
	fmt.Fprintln(w, "#\tTEAM\tTOTAL\tBONUS\tSTRIKES")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", r.Rank, r.Name, r.Total, r.Bonus, r.Strikes)
	}
}

// Export writes the standings workbook and, when chartPath is set, the
// standings chart.
func (a *App) Export(ctx context.Context, xlsxPath, chartPath string) error {
	doc := a.Load(ctx)

	f, err := os.Create(xlsxPath)
	if err != nil {
		return err
	}
	if err := export.WriteWorkbook(f, doc, a.rules); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("workbook written", zap.String("path", xlsxPath))

	if chartPath == "" {
		return nil
	}
	png, err := export.StandingsChart(doc, a.rules)
	if err != nil {
		return err
	}
	if err := os.WriteFile(chartPath, png, 0o644); err != nil {
		return err
	}
	a.logger.Info("chart written", zap.String("path", chartPath))
	return nil
}

// Reset soft-resets the stored document through the normal write path and
// waits for the remote push.
func (a *App) Reset(ctx context.Context) (models.Tournament, error) {
	doc := a.Load(ctx)
	publisher := a.publisher(nil)
	tournament := services.NewTournamentService(doc, a.rules, publisher, a.logger, a.metrics)
	fresh, err := tournament.Reset(ctx)
	if err != nil {
		return models.Tournament{}, err
	}
	if err := publisher.Flush(ctx); err != nil {
		return fresh, fmt.Errorf("push reset document: %w", err)
	}
	return fresh, nil
}
