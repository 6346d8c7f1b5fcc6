package layout

import (
	"math"

	"github.com/sakif/readme-widgets/internal/widget"
)

const (
	charWidthRatio = 0.6
	typingMargin   = 10.0
)

// TypedChar is one glyph and the moment it appears.
type TypedChar struct {
	Text     string
	X        float64
	AppearMs int
}

// TypedLine is one line of the cycle. All lines share the baseline and replace
// each other in turn.
type TypedLine struct {
	Text     string
	StartMs  int
	TypingMs int // len * speed
	EndMs    int // StartMs + TypingMs + pause
	StartX   float64
	EndX     float64
	Chars    []TypedChar
}

// CursorFrame is one CSS keyframe for the cursor. The segment starting at a frame
// either advances one character per step (Steps > 0) or holds its position until
// the next frame (Hold).
type CursorFrame struct {
	Percent float64
	X       float64
	Steps   int
	Hold    bool
}

type TypingGeometry struct {
	Width, Height float64
	FontSize      float64
	CharWidth     float64
	BaselineY     float64
	CycleMs       int
	Lines         []TypedLine
	Cursor        []CursorFrame
	CursorHeight  float64
}

// Typing computes per-character offsets and the animation timeline.
func Typing(cfg *widget.Typing) TypingGeometry {
	g := TypingGeometry{
		Width:        float64(cfg.Width),
		Height:       float64(cfg.Height),
		FontSize:     float64(cfg.FontSize),
		CharWidth:    charWidthRatio * float64(cfg.FontSize),
		BaselineY:    float64(cfg.Height)/2 + float64(cfg.FontSize)*0.35,
		CursorHeight: float64(cfg.FontSize) * 1.1,
	}

	start := 0
	for _, text := range cfg.Lines {
		runes := []rune(text)
		n := len(runes)
		line := TypedLine{
			Text:     text,
			StartMs:  start,
			TypingMs: n * cfg.SpeedMs,
		}
		line.EndMs = start + line.TypingMs + cfg.PauseMs
		for i, r := range runes {
			line.Chars = append(line.Chars, TypedChar{
				Text:     string(r),
				X:        g.charX(i, n, cfg.Center),
				AppearMs: start + i*cfg.SpeedMs,
			})
		}
		line.StartX = g.charX(0, n, cfg.Center)
		line.EndX = g.charX(n, n, cfg.Center)
		g.Lines = append(g.Lines, line)
		start = line.EndMs
	}
	g.CycleMs = start
	if g.CycleMs <= 0 {
		// Only reachable with zero pause and no characters; keep percentages finite.
		g.CycleMs = 1
	}

	for _, l := range g.Lines {
		g.Cursor = append(g.Cursor,
			CursorFrame{Percent: g.percent(l.StartMs), X: l.StartX, Steps: len(l.Chars)},
			CursorFrame{Percent: g.percent(l.StartMs + l.TypingMs), X: l.EndX, Hold: true},
		)
	}
	if n := len(g.Lines); n > 0 {
		g.Cursor = append(g.Cursor, CursorFrame{Percent: 100, X: g.Lines[n-1].EndX})
	}
	return g
}

// charX is index*charWidth from the left margin, or (index - len/2)*charWidth around
// the horizontal center.
func (g TypingGeometry) charX(index, length int, center bool) float64 {
	if center {
		return (float64(index)-float64(length)/2)*g.CharWidth + g.Width/2
	}
	return typingMargin + float64(index)*g.CharWidth
}

// KeyTime converts a timeline offset to a fraction of the cycle.
func (g TypingGeometry) KeyTime(ms int) float64 {
	return math.Min(math.Max(float64(ms)/float64(g.CycleMs), 0), 1)
}

func (g TypingGeometry) percent(ms int) float64 {
	return g.KeyTime(ms) * 100
}
