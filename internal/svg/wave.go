package svg

import (
	"strings"

	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Wave renders the banner. Each wave path is two banner widths long and drifts
// left by one width per cycle, which lines up because a width holds a whole
// number of wavelengths.
func Wave(cfg *widget.Wave) string {
	g := layout.Wave(cfg)
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	d := newDocument(cfg, g.Width, g.Height, cfg.Text)
	if cfg.Subtitle != "" {
		d.desc = cfg.Subtitle
	}
	d.background(p, frame{})

	waveColor := pick(cfg.Color, p.Accent)
	textColor := pick(cfg.TextColor, p.Title)

	if cfg.Animate {
		d.css(`@keyframes %s{from{transform:translateX(0)}to{transform:translateX(-%spx)}}`, d.id("drift"), num(g.Width))
	}
	for i, l := range g.Layers {
		class := ""
		if cfg.Animate {
			name := d.id("wave" + itoa(i))
			d.css(`.%s{animation:%s %ss linear %ss infinite}`, name, d.id("drift"), num(l.DurationSec), num(l.DelaySec))
			class = ` class="` + name + `"`
		}
		d.add(`<path%s d="%s" fill="%s" fill-opacity="%s"/>`, class, wavePath(l, g.Height), waveColor, num(l.Opacity))
	}

	fade := ""
	if cfg.Animate {
		fade = ` class="` + d.fadeIn() + `"`
	}
	d.add(`<text%s x="%s" y="%s" text-anchor="middle" font-family="%s" font-size="%s" font-weight="700" fill="%s">%s</text>`,
		fade, num(g.CenterX), num(g.TextY), Escape(sansFont), num(g.FontSize), textColor, Escape(cfg.Text))
	if cfg.Subtitle != "" {
		d.add(`<text%s x="%s" y="%s" text-anchor="middle" font-family="%s" font-size="%s" fill="%s" fill-opacity="0.85">%s</text>`,
			fade, num(g.CenterX), num(g.SubtitleY), Escape(sansFont), num(g.SubtitleSize), textColor, Escape(cfg.Subtitle))
	}
	return d.String()
}

// wavePath traces quadratic half-waves along BaseY and closes the shape at the bottom edge.
func wavePath(l layout.WaveLayer, height float64) string {
	var b strings.Builder
	half := l.Wavelength / 2
	b.WriteString("M0 " + num(l.BaseY))
	x := 0.0
	for i := range l.Periods * 2 {
		peak := l.BaseY - l.Amplitude
		if i%2 == 1 {
			peak = l.BaseY + l.Amplitude
		}
		b.WriteString(" Q" + num(x+half/2) + " " + num(peak) + " " + num(x+half) + " " + num(l.BaseY))
		x += half
	}
	b.WriteString(" L" + num(x) + " " + num(height) + " L0 " + num(height) + " Z")
	return b.String()
}
