package model

import "time"

// Artifact is one rendered widget. It is never mutated after creation; a config
// change produces a new Artifact.
type Artifact struct {
	SVG         string    `json:"-"`
	URL         string    `json:"url"`
	Markdown    string    `json:"markdown"`
	Fingerprint string    `json:"fingerprint"`
	ETag        string    `json:"etag"`
	// Username is the GitHub account the artifact draws data from, if any.
	Username    string    `json:"username,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Warnings    []Warning `json:"warnings,omitempty"`
}
