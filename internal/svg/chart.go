package svg

import (
	"fmt"
	"math"

	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// LanguageChart renders a pie or donut from per-language byte totals.
func LanguageChart(cfg *widget.LanguageChart, languages map[string]int64) string {
	g := layout.Pie(cfg, languages)
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	d := newDocument(cfg, g.Width, g.Height, cfg.Title)
	d.background(p, frame{radius: 4.5, border: true})
	if g.ShowTitle {
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="18" font-weight="600" fill="%s">%s</text>`,
			num(g.TitleX), num(g.TitleY), Escape(sansFont), p.Title, Escape(cfg.Title))
	}

	if g.Empty {
		d.add(`<text x="%s" y="%s" text-anchor="middle" font-family="%s" font-size="14" fill="%s">No language data</text>`,
			num(g.Width/2), num(g.CY), Escape(sansFont), p.Muted)
		return d.String()
	}

	for i, s := range g.Segments {
		reveal := ""
		opacity := ""
		if cfg.Animate {
			opacity = ` opacity="0"`
			reveal = fmt.Sprintf(`<animate attributeName="opacity" from="0" to="1" begin="%ss" dur="0.4s" fill="freeze"/>`, num(float64(i)*0.1))
		}
		d.add(`<g%s>`, opacity)
		d.add(`<title>%s</title>`, Escape(s.Name+" "+formatFixed(s.Percent, 1)+"%"))
		d.raw(segmentShape(g, s))
		d.add(`%s</g>`, reveal)
	}

	for _, e := range g.Legend {
		d.add(`<rect x="%s" y="%s" width="10" height="10" rx="2" fill="%s"/>`, num(e.X), num(e.Y-9), e.Color)
		label := e.Name
		if cfg.Percent {
			label += " " + formatFixed(e.Percent, 1) + "%"
		}
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="12" fill="%s">%s</text>`,
			num(e.X+16), num(e.Y), Escape(sansFont), p.Text, Escape(label))
	}
	return d.String()
}

// segmentShape draws one slice. A lone full segment has coincident arc ends,
// which SVG arcs cannot express, so it becomes a circle.
func segmentShape(g layout.PieGeometry, s layout.Segment) string {
	large := 0
	if s.LargeArc {
		large = 1
	}
	r := num(g.Radius)

	if g.InnerRadius == 0 {
		if s.Full {
			return fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s"/>`, num(g.CX), num(g.CY), r, s.Color)
		}
		return fmt.Sprintf(`<path d="M%s %s L%s %s A%s %s 0 %d 1 %s %s Z" fill="%s"/>`,
			num(g.CX), num(g.CY), num(s.StartX), num(s.StartY), r, r, large, num(s.EndX), num(s.EndY), s.Color)
	}

	if s.Full {
		mid := (g.Radius + g.InnerRadius) / 2
		return fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="%s"/>`,
			num(g.CX), num(g.CY), num(mid), s.Color, num(g.Radius-g.InnerRadius))
	}
	ir := num(g.InnerRadius)
	isx, isy := innerPoint(g, s.StartAngle)
	iex, iey := innerPoint(g, s.EndAngle)
	return fmt.Sprintf(`<path d="M%s %s A%s %s 0 %d 1 %s %s L%s %s A%s %s 0 %d 0 %s %s Z" fill="%s"/>`,
		num(s.StartX), num(s.StartY), r, r, large, num(s.EndX), num(s.EndY),
		num(iex), num(iey), ir, ir, large, num(isx), num(isy), s.Color)
}

func innerPoint(g layout.PieGeometry, angle float64) (float64, float64) {
	return g.CX + g.InnerRadius*math.Cos(angle), g.CY + g.InnerRadius*math.Sin(angle)
}
