package svg

import (
	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	errorCardWidth  = 495.0
	errorCardHeight = 120.0
	errorWrapRunes  = 70
)

// errorRed stays readable on every palette background.
const errorRed = "#E5534B"

// ErrorCard draws an in-band error in cfg's theme, so a broken widget still shows
// up as an image inside the README instead of a broken <img>.
func ErrorCard(cfg widget.Config, heading, detail string) string {
	p := theme.Resolve(string(cfg.Type()), cfg.ThemeName())

	d := newDocument(cfg, errorCardWidth, errorCardHeight, heading)
	d.desc = detail
	d.background(p, frame{radius: 4.5, border: true})

	d.add(`<text x="25" y="40" font-family="%s" font-size="16" font-weight="600" fill="%s">%s</text>`,
		Escape(sansFont), errorRed, Escape(heading))
	for i, line := range layout.Wrap(detail, errorWrapRunes, 3) {
		d.add(`<text x="25" y="%d" font-family="%s" font-size="12" fill="%s">%s</text>`,
			66+i*18, Escape(sansFont), p.Text, Escape(line))
	}
	return d.String()
}
