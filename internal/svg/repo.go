package svg

import (
	"github.com/dustin/go-humanize"

	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Repo renders a repository card: name, wrapped description, then a footer
// with language, stars and forks.
func Repo(cfg *widget.Repo, r model.RepoMetadata) string {
	g := layout.Repo(cfg, r.Description)
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	name := r.Name
	if cfg.Layout == "detailed" || cfg.Layout == "default" {
		name = r.FullName()
	}
	d := newDocument(cfg, g.Width, g.Height, r.FullName())
	d.background(p, frame{radius: cfg.Radius, border: true})

	titleX := g.Padding
	if g.IconSize > 0 {
		d.add(`<path transform="translate(%s %s) scale(%s)" d="%s" fill="%s"/>`,
			num(g.Padding), num(g.TitleY-g.IconSize+3), num(g.IconSize/16), icons["repos"], p.Muted)
		titleX += g.IconSize + 8
	}
	d.add(`<text x="%s" y="%s" font-family="%s" font-size="%s" font-weight="600" fill="%s">%s</text>`,
		num(titleX), num(g.TitleY), Escape(sansFont), num(g.TitleSize), p.Title, Escape(name))
	if r.Archived {
		d.add(`<text x="%s" y="%s" text-anchor="end" font-family="%s" font-size="11" fill="%s">Archived</text>`,
			num(g.Width-g.Padding), num(g.TitleY), Escape(sansFont), p.Muted)
	}

	for i, line := range g.Description {
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="%s" fill="%s">%s</text>`,
			num(g.Padding), num(g.DescY+float64(i)*g.RowHeight), Escape(sansFont), num(g.TextSize), p.Text, Escape(line))
	}

	x := g.Padding
	footer := num(g.FooterY)
	if cfg.Language && r.Language != "" {
		d.add(`<circle cx="%s" cy="%s" r="6" fill="%s"/>`, num(x+6), num(g.FooterY-4), theme.LanguageColor(r.Language, 0))
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="12" fill="%s">%s</text>`,
			num(x+18), footer, Escape(sansFont), p.Text, Escape(r.Language))
		x += 18 + float64(len([]rune(r.Language)))*7 + 16
	}
	if cfg.Stats {
		for _, stat := range []struct {
			icon  string
			value int
		}{{"stars", r.Stars}, {"forks", r.Forks}} {
			d.add(`<path transform="translate(%s %s)" d="%s" fill="%s"/>`, num(x), num(g.FooterY-12), icons[stat.icon], p.Muted)
			text := compactNumber(stat.value)
			d.add(`<text x="%s" y="%s" font-family="%s" font-size="12" fill="%s">%s</text>`,
				num(x+20), footer, Escape(sansFont), p.Text, text)
			x += 20 + float64(len(text))*7 + 16
		}
	}
	if cfg.Layout == "detailed" && !r.PushedAt.IsZero() && !r.FetchedAt.IsZero() {
		d.add(`<text x="%s" y="%s" text-anchor="end" font-family="%s" font-size="11" fill="%s">Updated %s</text>`,
			num(g.Width-g.Padding), footer, Escape(sansFont), p.Muted, Escape(humanize.RelTime(r.PushedAt, r.FetchedAt, "ago", "from now")))
	}
	return d.String()
}
