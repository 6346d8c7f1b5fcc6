package markdown

import (
	"bytes"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sakif/readme-widgets/internal/widget"
)

// Position locates a widget reference in the source text.
type Position struct {
	Offset int `json:"offset"` // byte offset of the URL
	Line   int `json:"line"`   // 1-based
}

// ParsedWidget is a widget reference found in markdown. Params are raw query
// values; Config normalizes them.
type ParsedWidget struct {
	Type     widget.Type   `json:"type"`
	Params   widget.Params `json:"params"`
	Alt      string        `json:"alt,omitempty"`
	URL      string        `json:"url"`
	Position Position      `json:"position"`
}

// Config normalizes the parsed parameters.
func (p ParsedWidget) Config() (widget.Config, error) {
	return widget.Normalize(p.Type, p.Params)
}

var (
	// endpointPattern matches a widget endpoint at the end of a URL path, under
	// any mount prefix.
	endpointPattern = regexp.MustCompile(`(?:^|/)api/(` + typeAlternation() + `)/?$`)

	imgTag  = regexp.MustCompile(`(?is)<img\s[^>]*?\bsrc\s*=\s*(?:"([^"]*)"|'([^']*)')[^>]*>`)
	altAttr = regexp.MustCompile(`(?is)\balt\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

func typeAlternation() string {
	names := make([]string, len(widget.Types))
	for i, t := range widget.Types {
		names[i] = regexp.QuoteMeta(string(t))
	}
	return strings.Join(names, "|")
}

// Parse returns every widget reference in md, in document order. Both markdown
// images and HTML <img> tags are recognized; other images are ignored.
func Parse(md string) []ParsedWidget {
	src := []byte(md)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var (
		out    []ParsedWidget
		cursor int
	)
	emit := func(dest, alt string, offset int) {
		t, params, ok := match(dest)
		if !ok {
			return
		}
		out = append(out, ParsedWidget{
			Type:     t,
			Params:   params,
			Alt:      alt,
			URL:      dest,
			Position: Position{Offset: offset, Line: 1 + bytes.Count(src[:offset], []byte("\n"))},
		})
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			dest := string(node.Destination)
			offset := cursor
			if i := bytes.Index(src[cursor:], node.Destination); i >= 0 {
				offset = cursor + i
				cursor = offset + len(node.Destination)
			}
			emit(dest, imageAlt(node, src), offset)
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				cursor = max(cursor, scanHTML(seg.Value(src), seg.Start, emit))
			}
		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				cursor = max(cursor, scanHTML(seg.Value(src), seg.Start, emit))
			}
		}
		return ast.WalkContinue, nil
	})
	return out
}

// scanHTML reports every <img src> in fragment and returns the offset just past
// the last one.
func scanHTML(fragment []byte, base int, emit func(dest, alt string, offset int)) int {
	end := base
	for _, m := range imgTag.FindAllSubmatchIndex(fragment, -1) {
		start, stop := m[2], m[3]
		if start < 0 {
			start, stop = m[4], m[5]
		}
		tag := fragment[m[0]:m[1]]
		alt := ""
		if a := altAttr.FindSubmatch(tag); a != nil {
			alt = html.UnescapeString(string(a[1]) + string(a[2]))
		}
		emit(html.UnescapeString(string(fragment[start:stop])), alt, base+start)
		end = base + m[1]
	}
	return end
}

func imageAlt(img *ast.Image, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(img, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// match recognizes a widget endpoint URL and extracts its query parameters.
func match(dest string) (widget.Type, widget.Params, bool) {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil {
		return "", nil, false
	}
	m := endpointPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", nil, false
	}
	t, ok := widget.ParseType(m[1])
	if !ok {
		return "", nil, false
	}
	return t, widget.FromValues(u.Query()), true
}
