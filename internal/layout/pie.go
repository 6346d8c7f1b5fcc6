package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	pieTitleArea     = 40.0
	piePadding       = 20.0
	pieLegendRow     = 22.0
	pieDonutRatio    = 0.6
	pieMinRadius     = 10.0
	pieStartAngle    = -math.Pi / 2
	pieFullThreshold = 2*math.Pi - 1e-9
)

// Segment is one slice of the pie. Angles are radians, clockwise from 12 o'clock.
type Segment struct {
	Name    string
	Bytes   int64
	Percent float64 // share of all non-excluded bytes, one decimal
	Color   string

	StartAngle float64
	EndAngle   float64
	Angle      float64
	LargeArc   bool
	// Full is set for a lone segment covering the whole circle, which cannot be drawn as an arc.
	Full bool

	StartX, StartY float64
	EndX, EndY     float64
}

type LegendEntry struct {
	Name    string
	Percent float64
	Color   string
	X, Y    float64
}

type PieGeometry struct {
	Width, Height float64
	TitleX        float64
	TitleY        float64
	ShowTitle     bool
	CX, CY        float64
	Radius        float64
	InnerRadius   float64 // 0 for a pie
	Segments      []Segment
	Legend        []LegendEntry
	Empty         bool
}

// Pie filters languages below the minimum share, sorts the rest by size and keeps the
// top entries, then sweeps their angles clockwise from the top of the circle.
func Pie(cfg *widget.LanguageChart, bytes map[string]int64) PieGeometry {
	g := PieGeometry{
		Width:     float64(cfg.Width),
		Height:    float64(cfg.Height),
		TitleX:    piePadding,
		TitleY:    piePadding + 10,
		ShowTitle: !cfg.HideTitle,
	}

	type lang struct {
		name  string
		bytes int64
	}
	var total int64
	var langs []lang
	for name, b := range bytes {
		if b <= 0 || cfg.Excluded(name) {
			continue
		}
		total += b
		langs = append(langs, lang{name, b})
	}

	top := piePadding
	if g.ShowTitle {
		top = pieTitleArea
	}
	chartWidth := g.Width
	if cfg.Legend {
		chartWidth = g.Width * 0.55
	}
	g.Radius = math.Max(math.Min(chartWidth-2*piePadding, g.Height-top-piePadding)/2, pieMinRadius)
	g.CX = piePadding + g.Radius
	g.CY = top + (g.Height-top-piePadding)/2
	if cfg.ChartType == "donut" {
		g.InnerRadius = g.Radius * pieDonutRatio
	}

	if total == 0 {
		g.Empty = true
		return g
	}

	// Filter, then sort, then cap.
	kept := langs[:0]
	for _, l := range langs {
		if percentOf(l.bytes, total) >= cfg.MinPercentage {
			kept = append(kept, l)
		}
	}
	slices.SortFunc(kept, func(a, b lang) int {
		if c := cmp.Compare(b.bytes, a.bytes); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	if len(kept) > cfg.MaxLanguages {
		kept = kept[:cfg.MaxLanguages]
	}
	if len(kept) == 0 {
		g.Empty = true
		return g
	}

	var keptBytes int64
	for _, l := range kept {
		keptBytes += l.bytes
	}
	whole := keptBytes == total

	angle := pieStartAngle
	for i, l := range kept {
		sweep := float64(l.bytes) / float64(total) * 2 * math.Pi
		end := angle + sweep
		if whole && i == len(kept)-1 {
			end = pieStartAngle + 2*math.Pi
			sweep = end - angle
		}
		s := Segment{
			Name:       l.name,
			Bytes:      l.bytes,
			Percent:    round1(percentOf(l.bytes, total)),
			Color:      theme.LanguageColor(l.name, i),
			StartAngle: angle,
			EndAngle:   end,
			Angle:      sweep,
			LargeArc:   sweep > math.Pi,
			Full:       sweep >= pieFullThreshold,
		}
		s.StartX, s.StartY = g.point(angle)
		s.EndX, s.EndY = g.point(end)
		g.Segments = append(g.Segments, s)
		angle = end
	}

	if cfg.Legend {
		legendX := chartWidth + piePadding/2
		legendY := top + pieLegendRow/2
		for i, s := range g.Segments {
			g.Legend = append(g.Legend, LegendEntry{
				Name:    s.Name,
				Percent: s.Percent,
				Color:   s.Color,
				X:       legendX,
				Y:       legendY + float64(i)*pieLegendRow,
			})
		}
	}
	return g
}

// TotalAngle sums the segment sweeps.
func (g PieGeometry) TotalAngle() float64 {
	sum := 0.0
	for _, s := range g.Segments {
		sum += s.Angle
	}
	return sum
}

func (g PieGeometry) point(angle float64) (float64, float64) {
	return g.CX + g.Radius*math.Cos(angle), g.CY + g.Radius*math.Sin(angle)
}

func percentOf(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
