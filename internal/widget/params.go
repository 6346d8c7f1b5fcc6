package widget

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Params is a flat string map of raw widget parameters, one value per key.
type Params map[string]string

// FromValues keeps the first value of every key in q.
func FromValues(q url.Values) Params {
	p := make(Params, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, s := range p {
		v.Set(k, s)
	}
	return v
}

// Encode is the canonical query form: keys sorted, values escaped.
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Compact drops empty values, which Normalize treats the same as absent keys.
func (p Params) Compact() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// reader pulls typed, bounded fields out of raw params. None of its methods fail.
type reader struct {
	p Params
}

// raw returns the first present value among key and its aliases.
func (r reader) raw(key string, aliases ...string) (string, bool) {
	if v, ok := r.p[key]; ok {
		return v, true
	}
	for _, a := range aliases {
		if v, ok := r.p[a]; ok {
			return v, true
		}
	}
	return "", false
}

func (r reader) intIn(key string, lo, hi, def int, aliases ...string) int {
	v, ok := r.raw(key, aliases...)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil && !isRangeError(err) {
		return def
	}
	if math.IsNaN(f) {
		return def
	}
	f = math.Round(f)
	switch {
	case f < float64(lo):
		return lo
	case f > float64(hi):
		return hi
	}
	return int(f)
}

func (r reader) floatIn(key string, lo, hi, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil && !isRangeError(err) {
		return def
	}
	if math.IsNaN(f) {
		return def
	}
	return math.Min(math.Max(f, lo), hi)
}

// isRangeError lets "1e999" clamp like +Inf instead of falling back to the default.
func isRangeError(err error) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)
}

// color returns an upper-cased #RRGGBB or "" (use the theme color).
func (r reader) color(key string) string {
	v, ok := r.raw(key)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	if !colorPattern.MatchString(v) {
		return ""
	}
	return strings.ToUpper(v)
}

func (r reader) enum(key string, allowed []string, def string) string {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// optOut is a flag that is true unless the value is the literal "false".
func (r reader) optOut(key string) bool {
	v, _ := r.raw(key)
	return v != "false"
}

// optIn is a flag that is false unless the value is the literal "true".
func (r reader) optIn(key string) bool {
	v, _ := r.raw(key)
	return v == "true"
}

// text reads a free-text field. An empty result takes def.
func (r reader) text(key string, limit int, def string, aliases ...string) string {
	v, _ := r.raw(key, aliases...)
	if s := cleanText(v, limit, ""); s != "" {
		return s
	}
	return def
}

// cleanText drops control characters and the runes in strip, trims, and truncates
// to limit runes. The result is a fixed point: cleanText(cleanText(s)) == cleanText(s).
func cleanText(s string, limit int, strip string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError || strings.ContainsRune(strip, r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > limit {
		s = strings.TrimSpace(string([]rune(s)[:limit]))
	}
	return s
}

var (
	usernamePattern = regexp.MustCompile(`[^A-Za-z0-9-]`)
	repoPattern     = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// githubLogin keeps only characters GitHub allows in a login, up to 39 of them.
func githubLogin(s string) string {
	s = usernamePattern.ReplaceAllString(strings.TrimSpace(s), "")
	if len(s) > 39 {
		s = s[:39]
	}
	return s
}

func githubRepo(s string) string {
	s = repoPattern.ReplaceAllString(strings.TrimSpace(s), "")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// writer emits canonical parameter strings. Formatting must round-trip through reader.
type writer Params

func (w writer) setStr(key, v string) { w[key] = v }

func (w writer) setInt(key string, v int) { w[key] = strconv.Itoa(v) }

func (w writer) setFloat(key string, v float64) { w[key] = strconv.FormatFloat(v, 'f', -1, 64) }

func (w writer) setBool(key string, v bool) { w[key] = strconv.FormatBool(v) }

func (w writer) setList(key, sep string, vs []string) { w[key] = strings.Join(vs, sep) }
