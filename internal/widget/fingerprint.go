package widget

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the canonical identity of a normalized config.
type Fingerprint struct {
	// Canonical is "type?sorted-query" with every field present. It is the cache key.
	Canonical string
	// Hash is the 64-bit xxhash of Canonical, used for ETags and ids.
	Hash uint64
}

// FingerprintOf computes the fingerprint of cfg.
func FingerprintOf(cfg Config) Fingerprint {
	canonical := string(cfg.Type()) + "?" + cfg.Params().Encode()
	return Fingerprint{Canonical: canonical, Hash: xxhash.Sum64String(canonical)}
}

// Short is the hash as 16 lowercase hex digits.
func (f Fingerprint) Short() string {
	return hex16(f.Hash)
}

// ETag is the strong entity tag for an SVG rendered from this fingerprint. It
// only identifies the output of widgets that draw no upstream data.
func (f Fingerprint) ETag() string {
	return `"` + f.Short() + `"`
}

// ContentETag is the strong entity tag of a rendered document.
func ContentETag(doc string) string {
	return `"` + hex16(xxhash.Sum64String(doc)) + `"`
}

func hex16(h uint64) string {
	s := strconv.FormatUint(h, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

func (f Fingerprint) IsZero() bool {
	return f.Canonical == ""
}

func (f Fingerprint) String() string {
	return f.Canonical
}
