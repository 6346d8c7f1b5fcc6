// Package layout turns normalized widget configs into pixel geometry.
//
// Every function here is pure and total. Inputs with nothing to draw (no skills,
// zero language bytes) produce a geometry with Empty set instead of dividing by zero,
// so no coordinate is ever NaN or infinite.
package layout

import (
	"math"

	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	progressPadding    = 20.0
	progressTitleArea  = 45.0
	progressLabelGap   = 8.0
	progressLabelSize  = 13.0
	progressRowSpacing = 14.0
	progressStaggerMs  = 150
)

// Bar is one skill row.
type Bar struct {
	Name    string
	Value   float64
	Percent int // round(value/max*100)

	LabelY     float64
	BarX       float64
	BarY       float64
	TrackWidth float64
	FillWidth  float64
	DelayMs    int
}

type ProgressGeometry struct {
	Width     float64
	Height    float64
	TitleX    float64
	TitleY    float64
	BarHeight float64
	Bars      []Bar
	Empty     bool
}

// Progress lays out one bar per skill under a title.
func Progress(cfg *widget.Progress) ProgressGeometry {
	g := ProgressGeometry{
		Width:     float64(cfg.Width),
		TitleX:    progressPadding,
		TitleY:    progressPadding + 10,
		BarHeight: float64(cfg.BarHeight),
	}
	if len(cfg.Skills) == 0 {
		g.Empty = true
		g.Height = progressTitleArea + progressPadding
		return g
	}

	track := math.Max(g.Width-2*progressPadding, 0)
	maxValue := float64(cfg.Max)
	rowHeight := progressLabelSize + progressLabelGap + g.BarHeight + progressRowSpacing

	y := progressTitleArea
	for i, s := range cfg.Skills {
		ratio := 0.0
		if maxValue > 0 {
			ratio = math.Min(math.Max(s.Value/maxValue, 0), 1)
		}
		g.Bars = append(g.Bars, Bar{
			Name:       s.Name,
			Value:      s.Value,
			Percent:    int(math.Round(ratio * 100)),
			LabelY:     y + progressLabelSize,
			BarX:       progressPadding,
			BarY:       y + progressLabelSize + progressLabelGap,
			TrackWidth: track,
			FillWidth:  ratio * track,
			DelayMs:    i * progressStaggerMs,
		})
		y += rowHeight
	}
	g.Height = y + progressPadding - progressRowSpacing
	return g
}
