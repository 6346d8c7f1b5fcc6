// Package markdown is the embedding contract between widgets and README text.
//
// Every widget ends up in a README as a plain image reference:
//
//	![GitHub stats for octocat](https://widgets.example/api/github-stats?username=octocat "octocat")
//
// ImageRef and WidgetURL build that reference; Parse goes the other way and pulls
// widget references back out of arbitrary markdown, so imported or AI-edited text
// can be edited block by block again.
package markdown

import (
	"strings"

	"github.com/sakif/readme-widgets/internal/widget"
)

// ImageRef formats a markdown image reference. The title is omitted when empty.
func ImageRef(alt, url, title string) string {
	var b strings.Builder
	b.WriteString("![")
	b.WriteString(escapeAlt(alt))
	b.WriteString("](")
	b.WriteString(escapeDestination(url))
	if title = oneLine(title); title != "" {
		b.WriteString(` "`)
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title))
		b.WriteString(`"`)
	}
	b.WriteString(")")
	return b.String()
}

// WidgetURL is the absolute URL that renders cfg. Parameters equal to the widget
// type's defaults are left out; normalizing the query again yields cfg.
func WidgetURL(base string, cfg widget.Config) string {
	defaults := widget.MustNormalize(cfg.Type(), nil).Params()
	params := cfg.Params().Compact()
	for k, v := range params {
		if defaults[k] == v {
			delete(params, k)
		}
	}

	u := strings.TrimRight(base, "/") + cfg.Type().Endpoint()
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// Fragment is the markdown a widget contributes to a README.
func Fragment(base string, cfg widget.Config) string {
	return ImageRef(Alt(cfg), WidgetURL(base, cfg), "")
}

// Alt describes cfg for screen readers.
func Alt(cfg widget.Config) string {
	switch c := cfg.(type) {
	case *widget.Typing:
		if len(c.Lines) > 0 {
			return c.Lines[0]
		}
		return "Typing animation"
	case *widget.Wave:
		return c.Text
	case *widget.Progress:
		return c.Title
	case *widget.Stats:
		return "GitHub stats for " + c.Username
	case *widget.LanguageChart:
		return "Top languages for " + c.Username
	case *widget.Repo:
		return c.FullName()
	}
	return string(cfg.Type())
}

func escapeAlt(s string) string {
	return strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`).Replace(oneLine(s))
}

// escapeDestination percent-encodes the characters that would end an inline link
// destination early.
func escapeDestination(s string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E").Replace(oneLine(s))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
