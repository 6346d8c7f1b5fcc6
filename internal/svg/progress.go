package svg

import (
	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Progress renders the skill bars. With no skills it renders the title alone.
func Progress(cfg *widget.Progress) string {
	g := layout.Progress(cfg)
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	d := newDocument(cfg, g.Width, g.Height, cfg.Title)
	d.background(p, frame{radius: 4.5, border: true})
	d.add(`<text x="%s" y="%s" font-family="%s" font-size="18" font-weight="600" fill="%s">%s</text>`,
		num(g.TitleX), num(g.TitleY), Escape(sansFont), p.Title, Escape(cfg.Title))

	barColor := pick(cfg.BarColor, p.Accent)
	radius := num(g.BarHeight / 2)
	duration := seconds(cfg.DurationMs)

	for _, bar := range g.Bars {
		d.add(`<g>`)
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="13" fill="%s">%s</text>`,
			num(bar.BarX), num(bar.LabelY), Escape(sansFont), p.Text, Escape(bar.Name))
		if cfg.ShowPercent {
			d.add(`<text x="%s" y="%s" text-anchor="end" font-family="%s" font-size="12" fill="%s">%d%%</text>`,
				num(bar.BarX+bar.TrackWidth), num(bar.LabelY), Escape(sansFont), p.Muted, bar.Percent)
		}
		d.add(`<rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" fill-opacity="0.2"/>`,
			num(bar.BarX), num(bar.BarY), num(bar.TrackWidth), num(g.BarHeight), radius, p.Muted)

		if cfg.Animate && cfg.DurationMs > 0 {
			d.add(`<rect x="%s" y="%s" width="0" height="%s" rx="%s" fill="%s"><animate attributeName="width" from="0" to="%s" begin="%s" dur="%s" fill="freeze" calcMode="spline" keySplines="0.4 0 0.2 1" keyTimes="0;1"/></rect>`,
				num(bar.BarX), num(bar.BarY), num(g.BarHeight), radius, barColor, num(bar.FillWidth), seconds(bar.DelayMs), duration)
		} else {
			d.add(`<rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"/>`,
				num(bar.BarX), num(bar.BarY), num(bar.FillWidth), num(g.BarHeight), radius, barColor)
		}
		d.add(`</g>`)
	}
	return d.String()
}
