package svg

import (
	"strings"

	"github.com/sakif/readme-widgets/internal/layout"
	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Typing renders the typing animation. Characters are revealed by discrete SMIL
// opacity steps on a shared cycle; the cursor follows with CSS keyframes.
func Typing(cfg *widget.Typing) string {
	g := layout.Typing(cfg)
	p := theme.Resolve(string(cfg.Type()), cfg.Theme)

	d := newDocument(cfg, g.Width, g.Height, strings.Join(cfg.Lines, " / "))
	d.background(p, frame{fill: cfg.Background})

	color := pick(cfg.Color, p.Title)
	cycle := seconds(g.CycleMs)
	repeatCount := "indefinite"
	if !cfg.Repeat {
		repeatCount = "1"
	}

	d.add(`<g font-family="%s" font-size="%s" fill="%s">`, Escape(fontFamily(cfg.Font)), num(g.FontSize), color)
	for li, line := range g.Lines {
		holdLast := !cfg.Repeat && li == len(g.Lines)-1
		for _, ch := range line.Chars {
			if strings.TrimSpace(ch.Text) == "" {
				continue
			}
			appear := g.KeyTime(ch.AppearMs)
			values, keyTimes := "0;1;0", "0;"+keyTime(appear)+";"+keyTime(g.KeyTime(line.EndMs))
			if holdLast {
				values, keyTimes = "0;1", "0;"+keyTime(appear)
			}
			d.add(`<text x="%s" y="%s" opacity="0">%s<animate attributeName="opacity" calcMode="discrete" values="%s" keyTimes="%s" dur="%s" repeatCount="%s" fill="freeze"/></text>`,
				num(ch.X), num(g.BaselineY), Escape(ch.Text), values, keyTimes, cycle, repeatCount)
		}
	}
	d.add(`</g>`)

	if cfg.Cursor && len(g.Cursor) > 0 {
		typingCursor(d, g, cfg, color, cycle)
	}
	return d.String()
}

func typingCursor(d *document, g layout.TypingGeometry, cfg *widget.Typing, color, cycle string) {
	caret, blink := d.id("caret"), d.id("blink")

	d.css(`@keyframes %s{`, caret)
	for _, f := range g.Cursor {
		timing := ""
		switch {
		case f.Hold || (f.Steps == 0 && f.Percent < 100):
			timing = "animation-timing-function:steps(1,end)"
		case f.Steps > 0:
			timing = "animation-timing-function:steps(" + itoa(f.Steps) + ",jump-start)"
		}
		d.css(`%s%%{transform:translateX(%spx);%s}`, num(f.Percent), num(f.X), timing)
	}
	d.css(`}`)
	d.css(`@keyframes %s{50%%{opacity:0}}`, blink)

	iterations := "infinite"
	if !cfg.Repeat {
		iterations = "1"
	}
	d.css(`.%s{animation:%s %s linear %s forwards,%s 1s step-end infinite}`, caret, caret, cycle, iterations, blink)

	top := g.BaselineY - g.FontSize*0.85
	d.add(`<rect class="%s" x="0" y="%s" width="2" height="%s" fill="%s"/>`, caret, num(top), num(g.CursorHeight), color)
}

// seconds formats milliseconds as an SMIL/CSS clock value.
func seconds(ms int) string {
	return num(float64(ms)/1000) + "s"
}

// keyTime keeps four decimals so adjacent characters stay distinct on long cycles.
func keyTime(v float64) string {
	s := strings.TrimRight(strings.TrimRight(formatFixed(v, 4), "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}
