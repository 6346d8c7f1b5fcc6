// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: plain values with JSON struct tags,
// no behavior beyond small helpers.
package model

import "time"

// BlockKind says how a README block is rendered.
type BlockKind string

const (
	BlockMarkdown BlockKind = "markdown"
	BlockWidget   BlockKind = "widget"
)

// Project is a saved README being assembled from blocks.
//
// The `json:"..."` tags define the API shape. Blocks are stored as one JSON
// column, so the same tags also define the stored form:
//
//	project := Project{ID: "abc", Name: "profile"}
//	json.Marshal(project) → {"id":"abc","name":"profile","blocks":[],...}
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Owner is the token subject that created the project; empty when the
	// server runs without auth.
	Owner     string    `json:"owner,omitempty"`
	Blocks    []Block   `json:"blocks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Block is one section of a README: either literal markdown or a widget embed.
type Block struct {
	Kind    BlockKind    `json:"kind"`
	Content string       `json:"content,omitempty"` // markdown blocks
	Widget  *WidgetBlock `json:"widget,omitempty"`  // widget blocks
}

// WidgetBlock is a widget reference inside a project. Params are raw; they are
// normalized every time the README is assembled.
type WidgetBlock struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
	Alt    string            `json:"alt,omitempty"`
}
