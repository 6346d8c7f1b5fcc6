package svg

import (
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// 16x16 glyphs, drawn with fill.
var icons = map[string]string{
	"stars":     "M8 .25l2.33 4.73 5.22.76-3.78 3.68.89 5.2L8 12.17l-4.67 2.45.89-5.2L.45 5.74l5.22-.76z",
	"commits":   "M1 7.25h4.07a3 3 0 015.86 0H15v1.5h-4.07a3 3 0 01-5.86 0H1z",
	"prs":       "M3.5 1a2 2 0 01.75 3.86v6.28a2 2 0 11-1.5 0V4.86A2 2 0 013.5 1zm9 9.14V6.5a2 2 0 00-2-2H9l1.5-1.5L9.44 1.94 6.19 5.19l3.25 3.25L10.5 7.38 9 5.88h1.5a.5.5 0 01.5.5v3.76a2 2 0 101.5 0z",
	"issues":    "M8 1.5a6.5 6.5 0 100 13 6.5 6.5 0 000-13zM8 6a2 2 0 110 4 2 2 0 010-4z",
	"contribs":  "M2 2.5A2.5 2.5 0 014.5 0h8.75a.75.75 0 01.75.75v12.5a.75.75 0 01-.75.75H4.5A2.5 2.5 0 012 11.5z",
	"merged":    "M5 3.25a2 2 0 11-1.5 1.94v5.62a2 2 0 101.5 0V7.5a4 4 0 003.5 2.06h1.19a2 2 0 100-1.5H8.5A2.5 2.5 0 016 5.56V5.2A2 2 0 015 3.25z",
	"followers": "M8 8a3 3 0 100-6 3 3 0 000 6zm-5 6a5 5 0 0110 0z",
	"repos":     "M2 2.5A2.5 2.5 0 014.5 0h8.75a.75.75 0 01.75.75v12.5a.75.75 0 01-.75.75H4.5A2.5 2.5 0 012 11.5z",
	"joined":    "M8 1.5a6.5 6.5 0 100 13 6.5 6.5 0 000-13zM7.25 4h1.5v3.69l2.28 2.28-1.06 1.06L7.25 8.31z",
	"forks":     "M5 3.25a1.75 1.75 0 11-2.5 1.58v.67A2.5 2.5 0 005 8h6a2.5 2.5 0 002.5-2.5v-.67A1.75 1.75 0 1111 3.25v2.25a1 1 0 01-1 1H6a1 1 0 01-1-1zM7.25 9.5h1.5v1.67a1.75 1.75 0 11-1.5 0z",
}

type statRow struct {
	key      string
	label    string
	value    int
	display  string // overrides the formatted value
	degraded bool
}

// statRows lists the card rows for s in display order, honoring hide.
func statRows(cfg *widget.Stats, s model.AggregatedStats) []statRow {
	rows := []statRow{
		{key: "stars", label: "Total Stars Earned", value: s.TotalStars, degraded: s.Degraded("totalStars")},
		{key: "commits", label: "Total Commits", value: s.TotalCommits, degraded: s.Degraded("totalCommits")},
		{key: "prs", label: "Total PRs", value: s.TotalPRs, degraded: s.Degraded("totalPRs")},
		{key: "issues", label: "Total Issues", value: s.TotalIssues, degraded: s.Degraded("totalIssues")},
		{key: "contribs", label: "Contributed to (last year)", value: s.ContributedTo, degraded: s.Degraded("contributedTo")},
	}
	if cfg.Layout == "detailed" {
		joined := "N/A"
		if !s.AccountCreated.IsZero() && !s.FetchedAt.IsZero() {
			joined = humanize.RelTime(s.AccountCreated, s.FetchedAt, "ago", "from now")
		}
		rows = append(rows,
			statRow{key: "merged", label: "Merged PRs", value: s.MergedPRs, degraded: s.Degraded("mergedPRs")},
			statRow{key: "followers", label: "Followers", value: s.Followers},
			statRow{key: "repos", label: "Public Repos", value: s.PublicRepos},
			statRow{key: "joined", label: "Joined", display: joined},
		)
	}

	out := rows[:0]
	for _, r := range rows {
		if !cfg.Hidden(r.key) {
			out = append(out, r)
		}
	}
	return out
}

// Stats renders the profile stats card.
func Stats(cfg *widget.Stats, s model.AggregatedStats) string {
	rows := statRows(cfg, s)
	g := layout.Card(cfg.Layout, len(rows))
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	title := cfg.Title
	if title == "" {
		name := s.Name
		if name == "" {
			name = pick(s.Username, cfg.Username)
		}
		title = possessive(name) + " GitHub Stats"
	}

	d := newDocument(cfg, g.Width, g.Height, title)
	d.background(p, frame{radius: cfg.Radius, fill: cfg.BgColor, border: !cfg.HideBorder})

	titleColor := pick(cfg.TitleColor, p.Title)
	textColor := pick(cfg.TextColor, p.Text)
	iconColor := pick(cfg.IconColor, p.Accent)
	fade := d.fadeIn()

	d.add(`<text class="%s" x="%s" y="%s" font-family="%s" font-size="%s" font-weight="600" fill="%s">%s</text>`,
		fade, num(g.Padding), num(g.TitleY), Escape(sansFont), num(g.TitleSize), titleColor, Escape(title))

	for i, row := range rows {
		pos := g.Rows[i]
		d.add(`<g class="%s" style="animation-delay:%dms">`, fade, 150*(i+1))
		if cfg.Icons && g.IconSize > 0 {
			scale := g.IconSize / 16
			d.add(`<path transform="translate(%s %s) scale(%s)" d="%s" fill="%s" fill-rule="evenodd"/>`,
				num(pos.IconX), num(pos.Y-g.IconSize+3), num(scale), icons[row.key], iconColor)
		}
		labelX := pos.TextX
		if !cfg.Icons {
			labelX = pos.X
		}
		d.add(`<text x="%s" y="%s" font-family="%s" font-size="%s" fill="%s">%s:</text>`,
			num(labelX), num(pos.Y), Escape(sansFont), num(g.TextSize), textColor, Escape(row.label))
		d.add(`<text x="%s" y="%s" text-anchor="end" font-family="%s" font-size="%s" font-weight="700" fill="%s">%s</text>`,
			num(pos.ValueX), num(pos.Y), Escape(sansFont), num(g.TextSize), textColor, Escape(formatStat(cfg.Layout, row)))
		d.add(`</g>`)
	}
	return d.String()
}

func formatStat(layoutName string, row statRow) string {
	switch {
	case row.display != "":
		return row.display
	case row.degraded:
		return "N/A"
	case layoutName == "detailed":
		return humanize.Comma(int64(row.value))
	}
	return compactNumber(row.value)
}

// compactNumber prints 999, 1.2k, 3.4M.
func compactNumber(n int) string {
	if n < 1000 && n > -1000 {
		return itoa(n)
	}
	return strings.ReplaceAll(humanize.SIWithDigits(float64(n), 1, ""), " ", "")
}

func possessive(name string) string {
	if strings.HasSuffix(name, "s") {
		return name + "'"
	}
	return name + "'s"
}
