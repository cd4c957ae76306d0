package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"quipcup/models"
	"quipcup/scoring"
	"quipcup/views"
)

// Palette colors a chart after the tournament theme.
type Palette struct {
	Background drawing.Color
	Text       drawing.Color
	Bar        drawing.Color
	Leader     drawing.Color
}

func PaletteFor(doc models.Tournament) Palette {
	p := Palette{
		Background: drawing.ColorFromHex("ffffff"),
		Text:       drawing.ColorFromHex("1a1a2e"),
		Bar:        hexColor(doc.Accent2, "ff6b35"),
		Leader:     hexColor(doc.Accent, "f7c948"),
	}
	if doc.IsDark {
		p.Background = drawing.ColorFromHex("0f0f1a")
		p.Text = drawing.ColorFromHex("f0f0f0")
	}
	return p
}

func hexColor(value, fallback string) drawing.Color {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) != 6 && len(v) != 3 {
		v = fallback
	}
	return drawing.ColorFromHex(v)
}

// StandingsChart renders final totals as a PNG bar chart, leader highlighted.
func StandingsChart(doc models.Tournament, rules scoring.Rules) ([]byte, error) {
	palette := PaletteFor(doc)
	rows := views.Standings(doc, rules, doc.NumGames())

	top := 0
	for _, r := range rows {
		top = max(top, r.Total)
	}
	if top == 0 {
		return renderPlaceholder(palette, "No scores yet")
	}

	bars := make([]chart.Value, len(rows))
	for i, r := range rows {
		color := palette.Bar
		if r.Rank == 1 {
			color = palette.Leader
		}
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%d. %s", r.Rank, r.Name),
			Value: float64(r.Total),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
	}

	graph := chart.BarChart{
		Title:      doc.TournamentName,
		TitleStyle: chart.Style{FontColor: palette.Text},
		Width:      1024,
		Height:     512,
		BarWidth:   72,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis:      chart.Style{FontColor: palette.Text},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.Text},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render standings chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// renderPlaceholder draws msg on an empty canvas. go-chart will not render
// without a series, so it carries one that draws nothing.
func renderPlaceholder(palette Palette, msg string) ([]byte, error) {
	graph := chart.Chart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis:      chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis:      chart.YAxis{Style: chart.Style{Hidden: true}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 1},
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					FillColor:   drawing.ColorTransparent,
				},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
				r.SetFont(defaults.GetFont())
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, cb.Left+(cb.Width()-tb.Width())/2, cb.Top+(cb.Height()+tb.Height())/2)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render chart placeholder: %w", err)
	}
	return buffer.Bytes(), nil
}
