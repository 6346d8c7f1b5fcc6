package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/sakif/readme-widgets/internal/widget"
)

// CardSpec is the fixed frame of one named card layout.
type CardSpec struct {
	Width     float64
	MinHeight float64
	Padding   float64
	TitleY    float64
	TitleSize float64
	BodyY     float64 // baseline of the first row
	RowHeight float64
	TextSize  float64
	IconSize  float64
	Columns   int
}

var statsCards = map[string]CardSpec{
	"default":  {Width: 495, MinHeight: 195, Padding: 25, TitleY: 35, TitleSize: 18, BodyY: 70, RowHeight: 25, TextSize: 14, IconSize: 16, Columns: 1},
	"compact":  {Width: 350, MinHeight: 140, Padding: 18, TitleY: 30, TitleSize: 16, BodyY: 58, RowHeight: 20, TextSize: 12, IconSize: 14, Columns: 1},
	"minimal":  {Width: 300, MinHeight: 120, Padding: 16, TitleY: 28, TitleSize: 15, BodyY: 54, RowHeight: 20, TextSize: 12, IconSize: 0, Columns: 1},
	"detailed": {Width: 560, MinHeight: 220, Padding: 25, TitleY: 35, TitleSize: 18, BodyY: 70, RowHeight: 25, TextSize: 14, IconSize: 16, Columns: 2},
}

var repoCards = map[string]CardSpec{
	"default":  {Width: 400, MinHeight: 120, Padding: 25, TitleY: 35, TitleSize: 16, BodyY: 60, RowHeight: 18, TextSize: 13, IconSize: 16, Columns: 1},
	"compact":  {Width: 330, MinHeight: 100, Padding: 18, TitleY: 30, TitleSize: 14, BodyY: 52, RowHeight: 16, TextSize: 12, IconSize: 14, Columns: 1},
	"minimal":  {Width: 300, MinHeight: 80, Padding: 16, TitleY: 28, TitleSize: 14, BodyY: 48, RowHeight: 16, TextSize: 12, IconSize: 0, Columns: 1},
	"detailed": {Width: 450, MinHeight: 150, Padding: 25, TitleY: 38, TitleSize: 18, BodyY: 66, RowHeight: 19, TextSize: 13, IconSize: 16, Columns: 1},
}

// Row is the anchor of one stat line.
type Row struct {
	X, Y  float64
	IconX float64
	TextX float64
	// ValueX is where the right-aligned value ends.
	ValueX float64
}

type CardGeometry struct {
	CardSpec
	Height float64
	Rows   []Row
}

// Card places rows rows inside the named stats layout, spilling into a second
// column for layouts that have one. Unknown names use "default".
func Card(layoutName string, rows int) CardGeometry {
	spec, ok := statsCards[layoutName]
	if !ok {
		spec = statsCards["default"]
	}
	g := CardGeometry{CardSpec: spec}

	perColumn := rows
	if spec.Columns > 1 {
		perColumn = (rows + spec.Columns - 1) / spec.Columns
	}
	columnWidth := (spec.Width - 2*spec.Padding) / float64(spec.Columns)

	for i := range rows {
		col, row := 0, i
		if perColumn > 0 {
			col, row = i/perColumn, i%perColumn
		}
		x := spec.Padding + float64(col)*columnWidth
		textX := x
		if spec.IconSize > 0 {
			textX = x + spec.IconSize + 8
		}
		g.Rows = append(g.Rows, Row{
			X:      x,
			Y:      spec.BodyY + float64(row)*spec.RowHeight,
			IconX:  x,
			TextX:  textX,
			ValueX: x + columnWidth - 10,
		})
	}

	g.Height = spec.MinHeight
	if perColumn > 0 {
		g.Height = max(g.Height, spec.BodyY+float64(perColumn-1)*spec.RowHeight+spec.Padding)
	}
	return g
}

type RepoGeometry struct {
	CardSpec
	Height      float64
	Description []string
	DescY       float64
	FooterY     float64
}

// Repo sizes a repository card around its wrapped description.
func Repo(cfg *widget.Repo, description string) RepoGeometry {
	spec, ok := repoCards[cfg.Layout]
	if !ok {
		spec = repoCards["default"]
	}
	g := RepoGeometry{CardSpec: spec, DescY: spec.BodyY}

	if cfg.Description && description != "" {
		perLine := int((spec.Width - 2*spec.Padding) / (spec.TextSize * 0.55))
		g.Description = Wrap(description, perLine, cfg.DescLines)
	}

	y := spec.BodyY + float64(len(g.Description))*spec.RowHeight
	if len(g.Description) == 0 {
		y = spec.BodyY - spec.RowHeight/2
	}
	g.FooterY = y + spec.RowHeight/2
	g.Height = max(spec.MinHeight, g.FooterY+spec.Padding)
	return g
}

// Wrap breaks text into at most maxLines lines of at most width runes, on word
// boundaries where possible. Overflow is marked with an ellipsis.
func Wrap(text string, width, maxLines int) []string {
	if width < 1 || maxLines < 1 {
		return nil
	}
	words := strings.Fields(text)
	var lines []string
	var current strings.Builder
	truncated := false

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
	}

	for i, word := range words {
		for utf8.RuneCountInString(word) > width {
			flush()
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) <= width:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			flush()
			current.WriteString(word)
		}
		if len(lines) >= maxLines {
			truncated = len(lines) > maxLines || current.Len() > 0 || i < len(words)-1
			break
		}
	}
	flush()

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	if truncated && len(lines) > 0 {
		last := []rune(lines[len(lines)-1])
		if len(last) >= width {
			last = last[:width-1]
		}
		lines[len(lines)-1] = strings.TrimRight(string(last), " ") + "…"
	}
	return lines
}
