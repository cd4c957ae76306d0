package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"quipcup/models"
	"quipcup/scoring"
	"quipcup/views"
)

const (
	StandingsSheet = "Standings"
	CoachesSheet   = "Coaches"
)

// Workbook builds a spreadsheet with the final standings, the coach board
// and one results sheet per game.
func Workbook(doc models.Tournament, rules scoring.Rules) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), StandingsSheet); err != nil {
		f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	games := doc.NumGames()
	standingsHeader := []interface{}{"Rank", "Team", "Player", "Coach"}
	for g := 1; g <= games; g++ {
		standingsHeader = append(standingsHeader, fmt.Sprintf("Game %d", g))
	}
	standingsHeader = append(standingsHeader, "Bonus", "Strikes", "Total")

	if err := writeRows(f, StandingsSheet, header, standingsHeader, standingsRows(views.Standings(doc, rules, games))); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(CoachesSheet); err != nil {
		f.Close()
		return nil, err
	}
	coaches := [][]interface{}{}
	for _, r := range views.Coaches(doc, rules, games) {
		coaches = append(coaches, []interface{}{r.Rank, r.CoachName, r.Name, r.Bonus, r.Strikes})
	}
	if err := writeRows(f, CoachesSheet, header, []interface{}{"Rank", "Coach", "Team", "Bonus", "Strikes"}, coaches); err != nil {
		f.Close()
		return nil, err
	}

	for g := 1; g <= games; g++ {
		name := GameSheet(g)
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
		results := [][]interface{}{}
		for _, line := range views.Results(doc, rules, g).Results {
			place := ""
			if line.Status == views.StatusPlaced {
				place = fmt.Sprint(*line.Placement + 1)
			}
			results = append(results, []interface{}{place, line.Name, line.Status, line.Points, line.Strikes, line.Bonus})
		}
		if err := writeRows(f, name, header, []interface{}{"Place", "Team", "Status", "Points", "Strikes", "Bonus"}, results); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func GameSheet(game int) string {
	return fmt.Sprintf("Game %d", game)
}

// WriteWorkbook streams the workbook to w.
func WriteWorkbook(w io.Writer, doc models.Tournament, rules scoring.Rules) error {
	f, err := Workbook(doc, rules)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func standingsRows(rows []views.Row) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		row := []interface{}{r.Rank, r.Name, r.PlayerName, r.CoachName}
		for _, pts := range r.Games {
			row = append(row, pts)
		}
		out = append(out, append(row, r.Bonus, r.Strikes, r.Total))
	}
	return out
}

func writeRows(f *excelize.File, sheet string, style int, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 14)
}
