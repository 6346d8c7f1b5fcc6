// Package widget defines the closed set of README widget types and their
// normalized configurations.
//
// A raw query (or parsed markdown URL) becomes a Config through Normalize. Normalize
// never fails for a known type: out-of-range numbers are clamped, bad colors and enums
// fall back, and missing fields take the type's default. The only input problem that
// reaches a caller is a missing required field on a data-driven widget, which
// Validate reports.
//
// Every Config can be turned back into parameters with Params, and
//
//	Normalize(cfg.Type(), cfg.Params()) == cfg
//
// holds for every normalized cfg. Fingerprint relies on that to produce a stable
// cache key.
package widget

import (
	"fmt"
	"slices"

	"github.com/sakif/readme-widgets/internal/apperror"
)

// Type identifies a widget variant. The string value doubles as the endpoint name.
type Type string

const (
	TypeTyping        Type = "typing-animation"
	TypeWave          Type = "wave-banner"
	TypeProgress      Type = "skill-progress"
	TypeStats         Type = "github-stats"
	TypeLanguageChart Type = "language-chart"
	TypeRepo          Type = "repo-showcase"
)

// Types lists every widget type in catalog order.
var Types = []Type{TypeTyping, TypeWave, TypeProgress, TypeStats, TypeLanguageChart, TypeRepo}

// ParseType maps an endpoint name to its Type.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	return t, slices.Contains(Types, t)
}

// Endpoint is the path of the SVG endpoint serving t.
func (t Type) Endpoint() string {
	return "/api/" + string(t)
}

// DataDriven reports whether rendering t needs upstream GitHub data.
func (t Type) DataDriven() bool {
	switch t {
	case TypeStats, TypeLanguageChart, TypeRepo:
		return true
	}
	return false
}

// Required lists the parameter names t cannot render without.
func (t Type) Required() []string {
	switch t {
	case TypeStats, TypeLanguageChart:
		return []string{"username"}
	case TypeRepo:
		return []string{"username", "repo"}
	}
	return nil
}

// Config is implemented by each widget's normalized configuration.
type Config interface {
	Type() Type
	// Params emits every field, defaults included, in the form Normalize accepts.
	Params() Params
	// ThemeName is the already-validated theme for this render.
	ThemeName() string
}

// Validate reports the first missing required field as a validation error.
func Validate(cfg Config) error {
	var username, repo string
	switch c := cfg.(type) {
	case *Stats:
		username = c.Username
	case *LanguageChart:
		username = c.Username
	case *Repo:
		username, repo = c.Username, c.Repo
	default:
		return nil
	}
	if username == "" {
		return apperror.ValidationFailed("username", fmt.Sprintf("%s requires a GitHub username", cfg.Type()))
	}
	if cfg.Type() == TypeRepo && repo == "" {
		return apperror.ValidationFailed("repo", "repo-showcase requires a repository name")
	}
	return nil
}
