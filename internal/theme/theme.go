// Package theme resolves a widget's theme name to a fixed color palette.
//
// The palette table is closed: every (widget type, theme) pair either exists or
// resolves to that widget type's "default" entry. Widget types are passed as their
// string names so this package stays a leaf that the normalizer can import.
package theme

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Default is the fallback theme name for every widget type.
const Default = "default"

// Palette is the resolved set of colors for one render.
type Palette struct {
	Name       string
	Background string

	// Gradient holds ordered stop colors when the background is a gradient.
	// Background is still set (to the first stop) for consumers that cannot draw gradients.
	Gradient []string
	Title    string
	Text     string
	Accent   string
	Border   string
	Muted    string
}

// HasGradient reports whether the background must be drawn as a <linearGradient>.
func (p Palette) HasGradient() bool {
	return len(p.Gradient) >= 2
}

var palettes = map[string]Palette{
	"default": {
		Background: "#FFFEFE",
		Title:      "#2F80ED",
		Text:       "#434D58",
		Accent:     "#4C71F2",
		Border:     "#E4E2E2",
		Muted:      "#8B949E",
	},
	"dark": {
		Background: "#151515",
		Title:      "#FFFFFF",
		Text:       "#9F9F9F",
		Accent:     "#79FF97",
		Border:     "#E4E2E2",
		Muted:      "#6E7681",
	},
	"radical": {
		Background: "#141321",
		Title:      "#FE428E",
		Text:       "#A9FEF7",
		Accent:     "#F8D847",
		Border:     "#FE428E",
		Muted:      "#7A7A9D",
	},
	"tokyonight": {
		Background: "#1A1B27",
		Title:      "#70A5FD",
		Text:       "#38BDAE",
		Accent:     "#BF91F3",
		Border:     "#70A5FD",
		Muted:      "#565F89",
	},
	"dracula": {
		Background: "#282A36",
		Title:      "#FF6E96",
		Text:       "#F8F8F2",
		Accent:     "#79DAFA",
		Border:     "#44475A",
		Muted:      "#6272A4",
	},
	"gruvbox": {
		Background: "#282828",
		Title:      "#FABD2F",
		Text:       "#8EC07C",
		Accent:     "#FE8019",
		Border:     "#504945",
		Muted:      "#A89984",
	},
	"github_dark": {
		Background: "#0D1117",
		Title:      "#58A6FF",
		Text:       "#C9D1D9",
		Accent:     "#1F6FEB",
		Border:     "#30363D",
		Muted:      "#8B949E",
	},
	"ocean": {
		Gradient: []string{"#0F2027", "#203A43", "#2C5364"},
		Title:    "#7FDBFF",
		Text:     "#E0F7FA",
		Accent:   "#39CCCC",
		Border:   "#2C5364",
		Muted:    "#B0BEC5",
	},
	"sunset": {
		Gradient: []string{"#FF512F", "#DD2476"},
		Title:    "#FFFFFF",
		Text:     "#FFF3E0",
		Accent:   "#FFD54F",
		Border:   "#DD2476",
		Muted:    "#FFE0B2",
	},
	"aurora": {
		Gradient: []string{"#00C9FF", "#92FE9D"},
		Title:    "#0B3D4F",
		Text:     "#12343B",
		Accent:   "#005F73",
		Border:   "#00C9FF",
		Muted:    "#2F5D62",
	},
}

var (
	solidThemes    = []string{"default", "dark", "radical", "tokyonight", "dracula", "gruvbox", "github_dark"}
	gradientThemes = []string{"ocean", "sunset", "aurora"}
)

// allowed maps a widget type name to its closed theme set. Charts and progress bars
// draw series colors on the background, so they only get solid backgrounds.
var allowed = map[string][]string{
	"typing-animation": append(append([]string{}, solidThemes...), gradientThemes...),
	"wave-banner":      append(append([]string{}, solidThemes...), gradientThemes...),
	"github-stats":     append(append([]string{}, solidThemes...), gradientThemes...),
	"repo-showcase":    append(append([]string{}, solidThemes...), gradientThemes...),
	"language-chart":   solidThemes,
	"skill-progress":   solidThemes,
}

// Names returns the theme names allowed for widgetType, in display order.
func Names(widgetType string) []string {
	names, ok := allowed[widgetType]
	if !ok {
		return []string{Default}
	}
	return append([]string(nil), names...)
}

// Allowed reports whether name is in widgetType's theme set. The test is case-sensitive.
func Allowed(widgetType, name string) bool {
	for _, n := range allowed[widgetType] {
		if n == name {
			return true
		}
	}
	return false
}

// Resolve returns the palette for (widgetType, name), falling back to the
// widget type's default palette.
func Resolve(widgetType, name string) Palette {
	if !Allowed(widgetType, name) {
		name = Default
	}
	p := palettes[name]
	p.Name = name
	p.Gradient = append([]string(nil), p.Gradient...)
	if p.HasGradient() {
		p.Background = p.Gradient[0]
	}
	return p
}

// Suggest returns the allowed theme closest to name, for "did you mean" warnings.
// It returns "" when name is allowed or nothing is reasonably close.
func Suggest(widgetType, name string) string {
	if name == "" || Allowed(widgetType, name) {
		return ""
	}
	lowered := strings.ToLower(strings.TrimSpace(name))
	best, bestDist := "", -1
	for _, candidate := range Names(widgetType) {
		d := levenshtein.ComputeDistance(lowered, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	// More than a third of the word changed is a different word, not a typo.
	if bestDist < 0 || bestDist > max(2, len(best)/3) {
		return ""
	}
	return best
}

// All returns every palette in the table, sorted by name.
func All() []Palette {
	out := make([]Palette, 0, len(palettes))
	for name := range palettes {
		out = append(out, Resolve(typeAllowing(name), name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func typeAllowing(name string) string {
	for t, names := range allowed {
		for _, n := range names {
			if n == name {
				return t
			}
		}
	}
	return ""
}
