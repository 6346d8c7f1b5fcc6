// Package svg composes widget geometry and theme palettes into standalone SVG documents.
//
// Output is deterministic: the same config (and upstream snapshot) always yields
// byte-identical markup. All timing is embedded as static SMIL attributes or CSS
// keyframes, so no animation state lives on the server.
//
// Two animation mechanisms are used. SMIL <animate fill="freeze"> drives bar growth,
// pie reveal and the per-character typing reveal. CSS @keyframes with
// animation-delay drives the typing cursor, fade-ins and wave drift.
//
// Every piece of user-controlled or upstream text goes through Escape before it is
// written into a text node or attribute.
package svg

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/sakif/readme-widgets/internal/theme"
	"github.com/sakif/readme-widgets/internal/widget"
)

// Escape makes s safe inside SVG text nodes and quoted attributes. It escapes
// < > & ' " and drops characters XML 1.0 cannot carry.
func Escape(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar || r == 0xFFFE || r == 0xFFFF {
			return -1
		}
		return r
	}, s)
	return html.EscapeString(s)
}

// num formats a coordinate with at most two decimals. Non-finite values become 0.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// document accumulates the parts of one <svg>. Parts are written in order:
// title, desc, defs, style, body.
type document struct {
	width, height float64
	title         string
	desc          string
	idPrefix      string
	defs          strings.Builder
	style         strings.Builder
	body          strings.Builder
	hasFade       bool
}

func newDocument(cfg widget.Config, width, height float64, title string) *document {
	return &document{
		width:    width,
		height:   height,
		title:    title,
		idPrefix: "w" + widget.FingerprintOf(cfg).Short()[:8],
	}
}

// id namespaces an element id so several widgets can be inlined on one page.
func (d *document) id(name string) string {
	return d.idPrefix + "-" + name
}

func (d *document) def(format string, args ...any) {
	fmt.Fprintf(&d.defs, format, args...)
}

func (d *document) css(format string, args ...any) {
	fmt.Fprintf(&d.style, format, args...)
}

func (d *document) add(format string, args ...any) {
	fmt.Fprintf(&d.body, format, args...)
}

func (d *document) raw(markup string) {
	d.body.WriteString(markup)
}

func (d *document) String() string {
	var b strings.Builder
	w, h := num(d.width), num(d.height)
	titleID := d.id("title")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" fill="none" role="img" aria-labelledby="%s">`, w, h, w, h, titleID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, Escape(d.title))
	if d.desc != "" {
		fmt.Fprintf(&b, `<desc>%s</desc>`, Escape(d.desc))
	}
	if d.defs.Len() > 0 {
		b.WriteString("<defs>")
		b.WriteString(d.defs.String())
		b.WriteString("</defs>")
	}
	if d.style.Len() > 0 {
		b.WriteString("<style>")
		b.WriteString(d.style.String())
		b.WriteString("</style>")
	}
	b.WriteString(d.body.String())
	b.WriteString("</svg>")
	return b.String()
}

// frame describes the card background.
type frame struct {
	radius      float64
	fill        string // explicit color override; "" uses the palette
	border      bool
	borderColor string
}

// background draws the card rect. A gradient palette becomes a <linearGradient>
// in <defs> referenced by id.
func (d *document) background(p theme.Palette, f frame) {
	fill := p.Background
	if f.fill != "" {
		fill = f.fill
	} else if p.HasGradient() {
		gid := d.id("bg")
		d.def(`<linearGradient id="%s" x1="0%%" y1="0%%" x2="100%%" y2="100%%">`, gid)
		last := len(p.Gradient) - 1
		for i, stop := range p.Gradient {
			d.def(`<stop offset="%s%%" stop-color="%s"/>`, num(float64(i)/float64(last)*100), stop)
		}
		d.def(`</linearGradient>`)
		fill = "url(#" + gid + ")"
	}

	stroke := `stroke="none"`
	if f.border {
		color := p.Border
		if f.borderColor != "" {
			color = f.borderColor
		}
		stroke = fmt.Sprintf(`stroke="%s" stroke-opacity="1"`, color)
	}
	d.add(`<rect x="0.5" y="0.5" rx="%s" width="%s" height="%s" fill="%s" %s/>`,
		num(f.radius), num(d.width-1), num(d.height-1), fill, stroke)
}

// pick returns override when set, else fallback.
func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

// fadeIn registers the shared fade-in keyframes once and returns the class name.
func (d *document) fadeIn() string {
	if !d.hasFade {
		d.hasFade = true
		d.css(`@keyframes fadein{from{opacity:0}to{opacity:1}}`)
		d.css(`.fade{opacity:0;animation:fadein .6s ease-in-out forwards}`)
	}
	return "fade"
}

func fontFamily(name string) string {
	if name == "monospace" {
		return "monospace"
	}
	return fmt.Sprintf("'%s', monospace", name)
}

const sansFont = `'Segoe UI', Ubuntu, 'Helvetica Neue', Sans-Serif`

func itoa(i int) string { return strconv.Itoa(i) }

func formatFixed(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
