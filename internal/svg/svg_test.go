package svg

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/widget"
)

const hostile = `<script>alert('x')</script> & "quoted"`

// textNodes parses markup as XML and returns the character data inside every
// <text> and <title> element. Parsing fails on malformed markup.
func textNodes(t *testing.T, markup string) []string {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(markup))
	var out []string
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err, "markup must be well-formed XML")
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "text" || el.Name.Local == "title" {
				depth++
			}
		case xml.EndElement:
			if el.Name.Local == "text" || el.Name.Local == "title" {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				out = append(out, string(el))
			}
		}
	}
	return out
}

// rawTextContent returns the unparsed bytes between <text ...> and </text>.
func rawTextContent(markup string) []string {
	var out []string
	rest := markup
	for {
		start := strings.Index(rest, "<text")
		if start < 0 {
			return out
		}
		open := strings.Index(rest[start:], ">")
		end := strings.Index(rest[start:], "</text>")
		if open < 0 || end < 0 {
			return out
		}
		inner := rest[start+open+1 : start+end]
		// Drop nested <animate .../> children.
		if i := strings.Index(inner, "<animate"); i >= 0 {
			inner = inner[:i]
		}
		out = append(out, inner)
		rest = rest[start+end+len("</text>"):]
	}
}

func TestEscape(t *testing.T) {
	got := Escape(hostile)
	for _, c := range []string{"<", ">", `"`, "'"} {
		assert.NotContains(t, got, c)
	}
	assert.Equal(t, "a &amp; b", Escape("a & b"))
	assert.Equal(t, "line one", Escape("line\u0000 one"))
	assert.Equal(t, "a b", Escape("a\nb"))
}

func TestCompositors_EscapeUserText(t *testing.T) {
	docs := map[string]string{
		"typing": Typing(widget.MustNormalize(widget.TypeTyping, widget.Params{"lines": hostile}).(*widget.Typing)),
		"wave":   Wave(widget.MustNormalize(widget.TypeWave, widget.Params{"text": hostile, "subtitle": hostile}).(*widget.Wave)),
		"progress": Progress(widget.MustNormalize(widget.TypeProgress, widget.Params{
			"title": hostile, "skills": "<b>:50",
		}).(*widget.Progress)),
		"chart": LanguageChart(widget.MustNormalize(widget.TypeLanguageChart, widget.Params{
			"username": "octocat", "title": hostile,
		}).(*widget.LanguageChart), map[string]int64{hostile: 10, "Go": 5}),
		"stats": Stats(widget.MustNormalize(widget.TypeStats, widget.Params{
			"username": "octocat", "title": hostile,
		}).(*widget.Stats), model.AggregatedStats{Username: "octocat"}),
		"repo": Repo(widget.MustNormalize(widget.TypeRepo, widget.Params{"repo": "octocat/hello"}).(*widget.Repo),
			model.RepoMetadata{Owner: "octocat", Name: "hello", Description: hostile, Language: hostile}),
		"error": ErrorCard(widget.MustNormalize(widget.TypeStats, nil), hostile, hostile),
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			textNodes(t, doc)
			for _, inner := range rawTextContent(doc) {
				assert.NotContains(t, inner, "<", "raw text node: %q", inner)
				assert.NotContains(t, inner, ">")
				assert.NotContains(t, inner, `"`)
				assert.NotContains(t, inner, "'")
			}
		})
	}
}

func TestDocument_HasSizeAndViewBox(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeWave, widget.Params{"width": "600", "height": "120"}).(*widget.Wave)
	doc := Wave(cfg)

	assert.True(t, strings.HasPrefix(doc, `<svg xmlns="http://www.w3.org/2000/svg" width="600" height="120" viewBox="0 0 600 120"`))
	assert.True(t, strings.HasSuffix(doc, "</svg>"))
	assert.Contains(t, doc, "<title")
}

func TestRender_Deterministic(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeTyping, widget.Params{"lines": "Hello;World", "theme": "ocean"})
	a, err := Render(cfg, Data{})
	require.NoError(t, err)
	b, err := Render(cfg, Data{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGradientThemeUsesDefs(t *testing.T) {
	doc := Wave(widget.MustNormalize(widget.TypeWave, widget.Params{"theme": "sunset"}).(*widget.Wave))
	assert.Contains(t, doc, "<linearGradient")
	assert.Regexp(t, `fill="url\(#w[0-9a-f]{8}-bg\)"`, doc)
	assert.NotContains(t, doc, "linear-gradient(")
}

func TestTyping_Animation(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeTyping, widget.Params{"lines": "ab", "speed": "100", "pause": "800"}).(*widget.Typing)
	doc := Typing(cfg)

	assert.Equal(t, 2, strings.Count(doc, `<animate attributeName="opacity" calcMode="discrete"`))
	assert.Contains(t, doc, `keyTimes="0;0.1;1"`, "second char appears at 100ms of a 1s cycle")
	assert.Contains(t, doc, `repeatCount="indefinite"`)
	assert.Contains(t, doc, "@keyframes")
	assert.Contains(t, doc, "steps(2,jump-start)")

	cfg.Repeat = false
	cfg.Cursor = false
	doc = Typing(cfg)
	assert.Contains(t, doc, `values="0;1" keyTimes="0;0.1"`)
	assert.Contains(t, doc, `repeatCount="1"`)
	assert.NotContains(t, doc, "@keyframes")
}

func TestProgress_EmptyRendersTitleOnly(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeProgress, widget.Params{"skills": "", "title": "My Skills"}).(*widget.Progress)
	doc := Progress(cfg)

	texts := textNodes(t, doc)
	assert.Contains(t, texts, "My Skills")
	assert.NotContains(t, doc, "<animate")
	assert.Equal(t, 1, strings.Count(doc, "<text"), "only the heading is drawn")
}

func TestProgress_AnimatedBars(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeProgress, widget.Params{"skills": "Go:90,Rust:60"}).(*widget.Progress)
	doc := Progress(cfg)
	assert.Equal(t, 2, strings.Count(doc, `<animate attributeName="width"`))
	assert.Contains(t, doc, `fill="freeze"`)
	assert.Contains(t, doc, "90%")
}

func TestLanguageChart(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeLanguageChart, widget.Params{"username": "octocat", "type": "pie"}).(*widget.LanguageChart)
	doc := LanguageChart(cfg, map[string]int64{"Go": 800, "JS": 200})

	texts := textNodes(t, doc)
	assert.Contains(t, texts, "Go 80.0%")
	assert.Contains(t, texts, "JS 20.0%")
	assert.Equal(t, 2, strings.Count(doc, "<path"))

	empty := LanguageChart(cfg, nil)
	assert.Contains(t, textNodes(t, empty), "No language data")
}

func TestStats_DegradedFieldsShowNA(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeStats, widget.Params{"username": "octocat"}).(*widget.Stats)
	doc := Stats(cfg, model.AggregatedStats{
		Username:   "octocat",
		Name:       "The Octocat",
		TotalStars: 12345,
		Warnings:   []model.Warning{{Field: "totalCommits", Kind: model.WarnRateLimited}},
	})

	texts := textNodes(t, doc)
	assert.Contains(t, texts, "The Octocat's GitHub Stats")
	assert.Contains(t, texts, "12.3k")
	assert.Contains(t, texts, "N/A")
}

func TestStats_HideRows(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeStats, widget.Params{"username": "octocat", "hide": "stars,commits"}).(*widget.Stats)
	texts := textNodes(t, Stats(cfg, model.AggregatedStats{Username: "octocat"}))
	assert.NotContains(t, texts, "Total Stars Earned:")
	assert.Contains(t, texts, "Total PRs:")
}

func TestStats_DetailedLayout(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeStats, widget.Params{"username": "octocat", "layout": "detailed"}).(*widget.Stats)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	texts := textNodes(t, Stats(cfg, model.AggregatedStats{
		Username:       "octocat",
		TotalStars:     12345,
		AccountCreated: now.AddDate(-3, 0, 0),
		FetchedAt:      now,
	}))
	assert.Contains(t, texts, "12,345")
	assert.Contains(t, texts, "3 years ago")
}

func TestRepo_Card(t *testing.T) {
	cfg := widget.MustNormalize(widget.TypeRepo, widget.Params{"repo": "golang/go"}).(*widget.Repo)
	texts := textNodes(t, Repo(cfg, model.RepoMetadata{
		Owner: "golang", Name: "go", Description: "The Go programming language",
		Language: "Go", Stars: 120000, Forks: 17500,
	}))
	assert.Contains(t, texts, "golang/go")
	assert.Contains(t, texts, "The Go programming language")
	assert.Contains(t, texts, "120k")
}

func TestRender_MissingDataIsGenerationError(t *testing.T) {
	_, err := Render(widget.MustNormalize(widget.TypeStats, widget.Params{"username": "octocat"}), Data{})
	assert.ErrorIs(t, err, apperror.ErrGeneration)
}

func TestNum(t *testing.T) {
	assert.Equal(t, "0", num(-0.0001))
	assert.Equal(t, "1.5", num(1.5))
	assert.Equal(t, "3.33", num(10.0/3))
	assert.Equal(t, "0", num(0.0/zero()))
}

func zero() float64 { return 0 }
