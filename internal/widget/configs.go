package widget

import (
	"strconv"
	"strings"
)

// Typing renders lines of text typed out one character at a time.
type Typing struct {
	Lines      []string
	Font       string
	FontSize   int
	Width      int
	Height     int
	SpeedMs    int // per character
	PauseMs    int // after each line is fully typed
	Cursor     bool
	Center     bool
	Repeat     bool
	Color      string
	Background string
	Theme      string
}

func (c *Typing) Type() Type        { return TypeTyping }
func (c *Typing) ThemeName() string { return c.Theme }

func (c *Typing) Params() Params {
	p := Params{}
	w := writer(p)
	w.setList("lines", ";", c.Lines)
	w.setStr("font", c.Font)
	w.setInt("fontSize", c.FontSize)
	w.setInt("width", c.Width)
	w.setInt("height", c.Height)
	w.setInt("speed", c.SpeedMs)
	w.setInt("pause", c.PauseMs)
	w.setBool("cursor", c.Cursor)
	w.setBool("center", c.Center)
	w.setBool("repeat", c.Repeat)
	w.setStr("color", c.Color)
	w.setStr("background", c.Background)
	w.setStr("theme", c.Theme)
	return p
}

// Wave renders a banner with animated sine waves under a headline.
type Wave struct {
	Text      string
	Subtitle  string
	Width     int
	Height    int
	Waves     int
	Amplitude int
	SpeedSec  float64 // one full drift cycle
	FontSize  int
	Animate   bool
	Color     string
	TextColor string
	Theme     string
}

func (c *Wave) Type() Type        { return TypeWave }
func (c *Wave) ThemeName() string { return c.Theme }

func (c *Wave) Params() Params {
	p := Params{}
	w := writer(p)
	w.setStr("text", c.Text)
	w.setStr("subtitle", c.Subtitle)
	w.setInt("width", c.Width)
	w.setInt("height", c.Height)
	w.setInt("waves", c.Waves)
	w.setInt("amplitude", c.Amplitude)
	w.setFloat("speed", c.SpeedSec)
	w.setInt("fontSize", c.FontSize)
	w.setBool("animate", c.Animate)
	w.setStr("color", c.Color)
	w.setStr("textColor", c.TextColor)
	w.setStr("theme", c.Theme)
	return p
}

// Skill is one labelled bar of a Progress widget.
type Skill struct {
	Name  string
	Value float64
}

// Progress renders labelled horizontal bars.
type Progress struct {
	Skills      []Skill
	Title       string
	Max         int
	Width       int
	BarHeight   int
	DurationMs  int
	ShowPercent bool
	Animate     bool
	BarColor    string
	Theme       string
}

func (c *Progress) Type() Type        { return TypeProgress }
func (c *Progress) ThemeName() string { return c.Theme }

func (c *Progress) Params() Params {
	skills := make([]string, len(c.Skills))
	for i, s := range c.Skills {
		skills[i] = s.Name + ":" + strconv.FormatFloat(s.Value, 'f', -1, 64)
	}
	p := Params{}
	w := writer(p)
	w.setList("skills", ",", skills)
	w.setStr("title", c.Title)
	w.setInt("max", c.Max)
	w.setInt("width", c.Width)
	w.setInt("barHeight", c.BarHeight)
	w.setInt("duration", c.DurationMs)
	w.setBool("showPercent", c.ShowPercent)
	w.setBool("animate", c.Animate)
	w.setStr("barColor", c.BarColor)
	w.setStr("theme", c.Theme)
	return p
}

// Stats renders a GitHub profile summary card.
type Stats struct {
	Username   string
	Title      string // "" means "<name>'s GitHub Stats"
	Layout     string
	Hide       []string
	Icons      bool
	HideBorder bool
	Radius     float64
	CacheSec   int
	TitleColor string
	TextColor  string
	IconColor  string
	BgColor    string
	Theme      string
}

func (c *Stats) Type() Type        { return TypeStats }
func (c *Stats) ThemeName() string { return c.Theme }

// Hidden reports whether the named stat row is suppressed.
func (c *Stats) Hidden(stat string) bool {
	for _, h := range c.Hide {
		if h == stat {
			return true
		}
	}
	return false
}

func (c *Stats) Params() Params {
	p := Params{}
	w := writer(p)
	w.setStr("username", c.Username)
	w.setStr("title", c.Title)
	w.setStr("layout", c.Layout)
	w.setList("hide", ",", c.Hide)
	w.setBool("icons", c.Icons)
	w.setBool("hideBorder", c.HideBorder)
	w.setFloat("radius", c.Radius)
	w.setInt("cache", c.CacheSec)
	w.setStr("titleColor", c.TitleColor)
	w.setStr("textColor", c.TextColor)
	w.setStr("iconColor", c.IconColor)
	w.setStr("bgColor", c.BgColor)
	w.setStr("theme", c.Theme)
	return p
}

// LanguageChart renders a user's language byte share as a pie or donut.
type LanguageChart struct {
	Username      string
	Title         string
	ChartType     string
	MaxLanguages  int
	MinPercentage float64
	Width         int
	Height        int
	Legend        bool
	Percent       bool
	Animate       bool
	HideTitle     bool
	Exclude       []string
	Theme         string
}

func (c *LanguageChart) Type() Type        { return TypeLanguageChart }
func (c *LanguageChart) ThemeName() string { return c.Theme }

// Excluded reports whether lang is in the exclusion list, ignoring case.
func (c *LanguageChart) Excluded(lang string) bool {
	for _, e := range c.Exclude {
		if strings.EqualFold(e, lang) {
			return true
		}
	}
	return false
}

func (c *LanguageChart) Params() Params {
	p := Params{}
	w := writer(p)
	w.setStr("username", c.Username)
	w.setStr("title", c.Title)
	w.setStr("type", c.ChartType)
	w.setInt("maxLanguages", c.MaxLanguages)
	w.setFloat("minPercentage", c.MinPercentage)
	w.setInt("width", c.Width)
	w.setInt("height", c.Height)
	w.setBool("legend", c.Legend)
	w.setBool("percent", c.Percent)
	w.setBool("animate", c.Animate)
	w.setBool("hideTitle", c.HideTitle)
	w.setList("exclude", ",", c.Exclude)
	w.setStr("theme", c.Theme)
	return p
}

// Repo renders a single repository card.
type Repo struct {
	Username    string
	Repo        string
	Layout      string
	Description bool
	Stats       bool
	Language    bool
	DescLines   int
	Radius      float64
	Theme       string
}

func (c *Repo) Type() Type        { return TypeRepo }
func (c *Repo) ThemeName() string { return c.Theme }

// FullName is "owner/name".
func (c *Repo) FullName() string { return c.Username + "/" + c.Repo }

func (c *Repo) Params() Params {
	p := Params{}
	w := writer(p)
	w.setStr("username", c.Username)
	w.setStr("repo", c.Repo)
	w.setStr("layout", c.Layout)
	w.setBool("description", c.Description)
	w.setBool("stats", c.Stats)
	w.setBool("language", c.Language)
	w.setInt("descLines", c.DescLines)
	w.setFloat("radius", c.Radius)
	w.setStr("theme", c.Theme)
	return p
}
