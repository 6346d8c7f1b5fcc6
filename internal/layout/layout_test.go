package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-widgets/internal/widget"
)

func chart(t *testing.T, raw widget.Params) *widget.LanguageChart {
	t.Helper()
	return widget.MustNormalize(widget.TypeLanguageChart, raw).(*widget.LanguageChart)
}

func assertFinite(t *testing.T, values ...float64) {
	t.Helper()
	for i, v := range values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d is %v", i, v)
	}
}

// === PIE ===

func TestPie_TwoLanguages(t *testing.T) {
	g := Pie(chart(t, widget.Params{"minPercentage": "1"}), map[string]int64{"Go": 800, "JS": 200})

	require.Len(t, g.Segments, 2)
	assert.Equal(t, "Go", g.Segments[0].Name)
	assert.Equal(t, 80.0, g.Segments[0].Percent)
	assert.Equal(t, "JS", g.Segments[1].Name)
	assert.Equal(t, 20.0, g.Segments[1].Percent)
	assert.InDelta(t, 2*math.Pi, g.TotalAngle(), 1e-9)
	assert.Equal(t, -math.Pi/2, g.Segments[0].StartAngle, "sweep starts at 12 o'clock")
	assert.True(t, g.Segments[0].LargeArc)
	assert.False(t, g.Segments[1].LargeArc)
}

func TestPie_FilterThenSortThenCap(t *testing.T) {
	bytes := map[string]int64{"Go": 500, "Rust": 300, "C": 150, "Lua": 45, "Nix": 5}
	g := Pie(chart(t, widget.Params{"minPercentage": "4", "maxLanguages": "2"}), bytes)

	require.Len(t, g.Segments, 2)
	assert.Equal(t, "Go", g.Segments[0].Name)
	assert.Equal(t, "Rust", g.Segments[1].Name)
	// Percentages stay relative to every non-excluded byte.
	assert.Equal(t, 50.0, g.Segments[0].Percent)
	assert.Less(t, g.TotalAngle(), 2*math.Pi)
}

func TestPie_AngleSumNeverExceedsFullCircle(t *testing.T) {
	bytes := map[string]int64{"A": 1, "B": 1, "C": 1, "D": 3, "E": 7, "F": 11, "G": 13}
	for _, minPct := range []string{"0", "5", "10", "30", "100"} {
		g := Pie(chart(t, widget.Params{"minPercentage": minPct, "maxLanguages": "20"}), bytes)
		assert.LessOrEqual(t, g.TotalAngle(), 2*math.Pi+1e-12, "minPercentage=%s", minPct)
	}
	g := Pie(chart(t, widget.Params{"minPercentage": "0", "maxLanguages": "20"}), bytes)
	assert.InDelta(t, 2*math.Pi, g.TotalAngle(), 1e-9)
}

func TestPie_TiesBrokenByName(t *testing.T) {
	g := Pie(chart(t, nil), map[string]int64{"Zig": 10, "Ada": 10, "Go": 10})
	require.Len(t, g.Segments, 3)
	assert.Equal(t, []string{"Ada", "Go", "Zig"}, []string{g.Segments[0].Name, g.Segments[1].Name, g.Segments[2].Name})
}

func TestPie_SingleLanguageIsFullCircle(t *testing.T) {
	g := Pie(chart(t, nil), map[string]int64{"Go": 42})
	require.Len(t, g.Segments, 1)
	assert.True(t, g.Segments[0].Full)
	assert.Equal(t, 100.0, g.Segments[0].Percent)
}

func TestPie_Empty(t *testing.T) {
	tests := []struct {
		name  string
		raw   widget.Params
		bytes map[string]int64
	}{
		{"no languages", nil, nil},
		{"all zero bytes", nil, map[string]int64{"Go": 0}},
		{"everything excluded", widget.Params{"exclude": "go,html"}, map[string]int64{"Go": 10, "HTML": 5}},
		{"everything filtered", widget.Params{"minPercentage": "100"}, map[string]int64{"Go": 1, "C": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Pie(chart(t, tt.raw), tt.bytes)
			assert.True(t, g.Empty)
			assert.Empty(t, g.Segments)
			assertFinite(t, g.CX, g.CY, g.Radius, g.InnerRadius)
		})
	}
}

func TestPie_DonutHasInnerRadius(t *testing.T) {
	donut := Pie(chart(t, widget.Params{"type": "donut"}), map[string]int64{"Go": 1})
	pie := Pie(chart(t, widget.Params{"type": "pie"}), map[string]int64{"Go": 1})
	assert.Greater(t, donut.InnerRadius, 0.0)
	assert.Zero(t, pie.InnerRadius)
}

// === PROGRESS ===

func TestProgress_EmptySkillsIsTitleOnly(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeProgress, widget.Params{"skills": ""}).(*widget.Progress)
	g := Progress(cfg)

	assert.True(t, g.Empty)
	assert.Empty(t, g.Bars)
	assert.Greater(t, g.Height, g.TitleY)
	assertFinite(t, g.Width, g.Height)
}

func TestProgress_BarWidths(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeProgress, widget.Params{
		"skills": "Go:50,Rust:100,C:0", "max": "100", "width": "440",
	}).(*widget.Progress)
	g := Progress(cfg)

	require.Len(t, g.Bars, 3)
	track := 440.0 - 2*progressPadding
	assert.Equal(t, track/2, g.Bars[0].FillWidth)
	assert.Equal(t, 50, g.Bars[0].Percent)
	assert.Equal(t, track, g.Bars[1].FillWidth)
	assert.Zero(t, g.Bars[2].FillWidth)
	assert.Less(t, g.Bars[0].BarY, g.Bars[1].BarY)
	assert.Greater(t, g.Height, g.Bars[2].BarY+g.BarHeight)
}

func TestProgress_PercentRoundsAgainstMax(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeProgress, widget.Params{"skills": "Go:2", "max": "3"}).(*widget.Progress)
	assert.Equal(t, 67, Progress(cfg).Bars[0].Percent)
}

// === TYPING ===

func TestTyping_Timeline(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeTyping, widget.Params{
		"lines": "Hi;Bye", "speed": "100", "pause": "500", "fontSize": "20",
	}).(*widget.Typing)
	g := Typing(cfg)

	require.Len(t, g.Lines, 2)
	assert.Equal(t, 0, g.Lines[0].StartMs)
	assert.Equal(t, 200, g.Lines[0].TypingMs)
	assert.Equal(t, 700, g.Lines[0].EndMs)
	assert.Equal(t, 700, g.Lines[1].StartMs)
	assert.Equal(t, 1500, g.CycleMs)

	assert.Equal(t, 12.0, g.CharWidth)
	assert.Equal(t, typingMargin+12.0, g.Lines[0].Chars[1].X)
	assert.Equal(t, 100, g.Lines[0].Chars[1].AppearMs)
}

func TestTyping_SingleLineCursorKeyframe(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeTyping, widget.Params{
		"lines": "abcd", "speed": "100", "pause": "600",
	}).(*widget.Typing)
	g := Typing(cfg)

	// typing / total * 100 = 400 / 1000 * 100
	require.GreaterOrEqual(t, len(g.Cursor), 2)
	assert.Equal(t, 0.0, g.Cursor[0].Percent)
	assert.Equal(t, 4, g.Cursor[0].Steps)
	assert.InDelta(t, 40.0, g.Cursor[1].Percent, 1e-9)
	assert.True(t, g.Cursor[1].Hold)
}

func TestTyping_Centered(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeTyping, widget.Params{
		"lines": "abcd", "center": "true", "width": "500", "fontSize": "10",
	}).(*widget.Typing)
	g := Typing(cfg)

	// (index - len/2) * charWidth + width/2
	assert.Equal(t, (0-2)*6.0+250, g.Lines[0].Chars[0].X)
	assert.Equal(t, 250.0, g.Lines[0].Chars[2].X)
}

// === CARDS ===

func TestCard_LayoutTable(t *testing.T) {
	for _, name := range widget.CardLayouts {
		g := Card(name, 5)
		assert.Len(t, g.Rows, 5, name)
		assert.GreaterOrEqual(t, g.Height, g.MinHeight, name)
	}
	assert.Equal(t, Card("default", 3).Width, Card("unknown", 3).Width)
}

func TestCard_DetailedUsesTwoColumns(t *testing.T) {
	g := Card("detailed", 4)
	assert.Equal(t, g.Rows[0].Y, g.Rows[2].Y)
	assert.Greater(t, g.Rows[2].X, g.Rows[0].X)
}

func TestCard_ZeroRows(t *testing.T) {
	g := Card("compact", 0)
	assert.Empty(t, g.Rows)
	assert.Equal(t, g.MinHeight, g.Height)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		maxLines int
		want     []string
	}{
		{"fits", "hello world", 20, 2, []string{"hello world"}},
		{"wraps", "the quick brown fox", 10, 2, []string{"the quick", "brown fox"}},
		{"truncates", "the quick brown fox jumps", 10, 2, []string{"the quick", "brown fox…"}},
		{"breaks long words", "abcdefghij", 4, 3, []string{"abcd", "efgh", "ij"}},
		{"empty", "", 10, 2, nil},
		{"no room", "text", 0, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.text, tt.width, tt.maxLines))
		})
	}
}

func TestRepo_DescriptionDrivesHeight(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeRepo, widget.Params{"username": "a", "repo": "b", "descLines": "5"}).(*widget.Repo)
	short := Repo(cfg, "tiny")
	long := Repo(cfg, "a much longer description that certainly needs more than one line to fit inside the card body area and then some more words")

	assert.Len(t, short.Description, 1)
	assert.Greater(t, len(long.Description), 1)
	assert.GreaterOrEqual(t, long.Height, short.Height)

	cfg.Description = false
	assert.Empty(t, Repo(cfg, "tiny").Description)
}

// === WAVE ===

func TestWave_LayersStayInsideBanner(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeWave, widget.Params{"waves": "5", "amplitude": "60", "height": "60"}).(*widget.Wave)
	g := Wave(cfg)

	require.Len(t, g.Layers, 5)
	for _, l := range g.Layers {
		assert.LessOrEqual(t, l.BaseY, g.Height)
		assert.LessOrEqual(t, l.Amplitude, g.Height/6)
		assert.Greater(t, l.DurationSec, 0.0)
		assertFinite(t, l.BaseY, l.Amplitude, l.Opacity)
	}
}
