package widget

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sakif/readme-widgets/internal/theme"
)

// Field bounds and defaults. Exported where other packages display or reuse them.
const (
	MaxTypingLines     = 10
	MaxTypingLineRunes = 80
	MaxSkills          = 20
	MaxSkillNameRunes  = 40
	MaxTitleRunes      = 60
	MaxExcludes        = 20

	DefaultTypingLine = "Hello, World!"
	DefaultWaveText   = "Welcome to my profile"
	DefaultSkillTitle = "Skills"
	DefaultChartTitle = "Most Used Languages"
)

var (
	Fonts       = []string{"monospace", "Fira Code", "JetBrains Mono", "Courier New", "Roboto Mono", "Source Code Pro"}
	CardLayouts = []string{"default", "compact", "minimal", "detailed"}
	ChartTypes  = []string{"donut", "pie"}
	StatRows    = []string{"stars", "commits", "prs", "issues", "contribs"}
)

// Normalize turns raw parameters into a complete, bounded Config. It only fails for
// an unknown widget type.
func Normalize(t Type, raw Params) (Config, error) {
	r := reader{p: raw}
	switch t {
	case TypeTyping:
		return normalizeTyping(r), nil
	case TypeWave:
		return normalizeWave(r), nil
	case TypeProgress:
		return normalizeProgress(r), nil
	case TypeStats:
		return normalizeStats(r), nil
	case TypeLanguageChart:
		return normalizeLanguageChart(r), nil
	case TypeRepo:
		return normalizeRepo(r), nil
	}
	return nil, fmt.Errorf("widget: unknown type %q", t)
}

// MustNormalize is Normalize for types known at compile time.
func MustNormalize(t Type, raw Params) Config {
	cfg, err := Normalize(t, raw)
	if err != nil {
		panic(err)
	}
	return cfg
}

func themeOf(r reader, t Type) string {
	return r.enum("theme", theme.Names(string(t)), theme.Default)
}

func normalizeTyping(r reader) *Typing {
	raw, _ := r.raw("lines", "text")
	var lines []string
	for _, l := range strings.Split(raw, ";") {
		if l = cleanText(l, MaxTypingLineRunes, ";"); l != "" {
			lines = append(lines, l)
		}
		if len(lines) == MaxTypingLines {
			break
		}
	}
	if len(lines) == 0 {
		lines = []string{DefaultTypingLine}
	}
	return &Typing{
		Lines:      lines,
		Font:       r.enum("font", Fonts, "monospace"),
		FontSize:   r.intIn("fontSize", 8, 72, 20, "size"),
		Width:      r.intIn("width", 100, 1200, 500),
		Height:     r.intIn("height", 20, 400, 50),
		SpeedMs:    r.intIn("speed", 10, 1000, 100),
		PauseMs:    r.intIn("pause", 0, 10000, 1000),
		Cursor:     r.optOut("cursor"),
		Center:     r.optIn("center"),
		Repeat:     r.optOut("repeat"),
		Color:      r.color("color"),
		Background: r.color("background"),
		Theme:      themeOf(r, TypeTyping),
	}
}

func normalizeWave(r reader) *Wave {
	return &Wave{
		Text:      r.text("text", 60, DefaultWaveText),
		Subtitle:  r.text("subtitle", 80, ""),
		Width:     r.intIn("width", 300, 1500, 850),
		Height:    r.intIn("height", 60, 400, 150),
		Waves:     r.intIn("waves", 1, 5, 3),
		Amplitude: r.intIn("amplitude", 5, 60, 20),
		SpeedSec:  r.floatIn("speed", 1, 30, 8),
		FontSize:  r.intIn("fontSize", 8, 72, 32, "size"),
		Animate:   r.optOut("animate"),
		Color:     r.color("color"),
		TextColor: r.color("textColor"),
		Theme:     themeOf(r, TypeWave),
	}
}

func normalizeProgress(r reader) *Progress {
	maxValue := r.intIn("max", 1, 1000, 100)
	raw, _ := r.raw("skills")
	var skills []Skill
	for _, entry := range strings.Split(raw, ",") {
		name, value, _ := strings.Cut(entry, ":")
		name = cleanText(name, MaxSkillNameRunes, ",:")
		if name == "" {
			continue
		}
		skills = append(skills, Skill{Name: name, Value: skillValue(value, maxValue)})
		if len(skills) == MaxSkills {
			break
		}
	}
	return &Progress{
		Skills:      skills,
		Title:       r.text("title", MaxTitleRunes, DefaultSkillTitle),
		Max:         maxValue,
		Width:       r.intIn("width", 200, 1000, 400),
		BarHeight:   r.intIn("barHeight", 4, 40, 12),
		DurationMs:  r.intIn("duration", 0, 10000, 1200),
		ShowPercent: r.optOut("showPercent"),
		Animate:     r.optOut("animate"),
		BarColor:    r.color("barColor"),
		Theme:       themeOf(r, TypeProgress),
	}
}

// skillValue parses a bar value; anything unusable counts as zero.
func skillValue(s string, maxValue int) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if (err != nil && !isRangeError(err)) || math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), float64(maxValue))
}

func normalizeStats(r reader) *Stats {
	raw, _ := r.raw("hide")
	requested := strings.Split(raw, ",")
	var hide []string
	for _, row := range StatRows {
		if slices.ContainsFunc(requested, func(s string) bool { return strings.TrimSpace(s) == row }) {
			hide = append(hide, row)
		}
	}
	username, _ := r.raw("username")
	return &Stats{
		Username:   githubLogin(username),
		Title:      r.text("title", MaxTitleRunes, ""),
		Layout:     r.enum("layout", CardLayouts, "default"),
		Hide:       hide,
		Icons:      r.optOut("icons"),
		HideBorder: r.optIn("hideBorder"),
		Radius:     r.floatIn("radius", 0, 30, 4.5),
		CacheSec:   r.intIn("cache", 1800, 86400, 14400),
		TitleColor: r.color("titleColor"),
		TextColor:  r.color("textColor"),
		IconColor:  r.color("iconColor"),
		BgColor:    r.color("bgColor"),
		Theme:      themeOf(r, TypeStats),
	}
}

func normalizeLanguageChart(r reader) *LanguageChart {
	raw, _ := r.raw("exclude")
	var exclude []string
	for _, e := range strings.Split(raw, ",") {
		e = cleanText(e, MaxSkillNameRunes, ",")
		if e == "" || slices.ContainsFunc(exclude, func(s string) bool { return strings.EqualFold(s, e) }) {
			continue
		}
		exclude = append(exclude, e)
	}
	slices.SortFunc(exclude, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(exclude) > MaxExcludes {
		exclude = exclude[:MaxExcludes]
	}
	username, _ := r.raw("username")
	return &LanguageChart{
		Username:      githubLogin(username),
		Title:         r.text("title", MaxTitleRunes, DefaultChartTitle),
		ChartType:     r.enum("type", ChartTypes, "donut"),
		MaxLanguages:  r.intIn("maxLanguages", 1, 20, 8),
		MinPercentage: r.floatIn("minPercentage", 0, 100, 1),
		Width:         r.intIn("width", 200, 800, 400),
		Height:        r.intIn("height", 150, 800, 300),
		Legend:        r.optOut("legend"),
		Percent:       r.optOut("percent"),
		Animate:       r.optOut("animate"),
		HideTitle:     r.optIn("hideTitle"),
		Exclude:       exclude,
		Theme:         themeOf(r, TypeLanguageChart),
	}
}

func normalizeRepo(r reader) *Repo {
	username, _ := r.raw("username")
	repo, _ := r.raw("repo")
	// "owner/name" wins over a separate username.
	if owner, name, ok := strings.Cut(repo, "/"); ok {
		username, repo = owner, name
	}
	return &Repo{
		Username:    githubLogin(username),
		Repo:        githubRepo(repo),
		Layout:      r.enum("layout", CardLayouts, "default"),
		Description: r.optOut("description"),
		Stats:       r.optOut("stats"),
		Language:    r.optOut("language"),
		DescLines:   r.intIn("descLines", 1, 5, 2),
		Radius:      r.floatIn("radius", 0, 30, 4.5),
		Theme:       themeOf(r, TypeRepo),
	}
}
