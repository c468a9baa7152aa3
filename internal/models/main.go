// Package models defines the core data structures for mockups, their archived
// versions and the comments attached to them.
package models

import (
	"encoding/json"
	"time"
)

// FirstVersion is the version number every mockup starts at.
const FirstVersion = 1

// Mockup is the single editable product page a designer authors.
type Mockup struct {
	// ID is the opaque share identifier of the mockup.
	ID string `json:"id"`
	// Content is the product page document. It is stored and returned as-is.
	Content json.RawMessage `json:"content"`
	// PasswordHash guards reads when set. Nil means the mockup is public.
	PasswordHash *string `json:"-"`
	// ViewCount counts successful reads.
	ViewCount int64 `json:"viewCount"`
	// CurrentVersion is the live, editable version number.
	CurrentVersion int `json:"currentVersion"`
	// CreatedAt is the creation time of the mockup.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time of the last content edit or version cut.
	UpdatedAt time.Time `json:"updatedAt"`
	// VersionStartedAt is when the current version began: the last cut,
	// or creation before any cut.
	VersionStartedAt time.Time `json:"-"`
}

// PasswordRequired reports whether reads of the mockup are password gated.
func (m *Mockup) PasswordRequired() bool {
	return m.PasswordHash != nil && *m.PasswordHash != ""
}

// MockupUpdate describes an in-place edit of the live mockup.
// PasswordHash replaces the digest when non-nil and ClearPassword removes
// it. With neither set the digest is left unchanged.
type MockupUpdate struct {
	Content       json.RawMessage
	PasswordHash  *string
	ClearPassword bool
	UpdatedAt     time.Time
}

// MockupSummary is the dashboard view of a mockup, without its content.
type MockupSummary struct {
	ID                string    `json:"id"`
	CurrentVersion    int       `json:"currentVersion"`
	ViewCount         int64     `json:"viewCount"`
	PasswordProtected bool      `json:"passwordProtected"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Position places an annotation box over one of the product images.
// Coordinates are normalized to the image size.
type Position struct {
	X          float64 `json:"x" validate:"gte=0,lte=1"`
	Y          float64 `json:"y" validate:"gte=0,lte=1"`
	Width      float64 `json:"width" validate:"gte=0,lte=1"`
	Height     float64 `json:"height" validate:"gte=0,lte=1"`
	ImageIndex int     `json:"imageIndex" validate:"gte=0"`
}

// Comment is a positional annotation bound to exactly one version.
type Comment struct {
	ID            string `json:"id"`
	MockupID      string `json:"mockupId"`
	VersionNumber int    `json:"versionNumber"`
	Position
	Body       string `json:"body"`
	AuthorName string `json:"authorName"`
	// AuthorToken is the bearer secret proving ownership of the comment.
	// It never leaves the server.
	AuthorToken string    `json:"-"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VersionSnapshot is an immutable checkpoint of a past version.
type VersionSnapshot struct {
	ID            string          `json:"id"`
	MockupID      string          `json:"mockupId"`
	VersionNumber int             `json:"versionNumber"`
	Content       json.RawMessage `json:"content"`
	Comments      []Comment       `json:"commentSnapshot"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// VersionSummary is one entry of a mockup's version history.
// The live version is synthesized with Current set and no ID.
type VersionSummary struct {
	ID            string    `json:"id,omitempty"`
	VersionNumber int       `json:"versionNumber"`
	CreatedAt     time.Time `json:"createdAt"`
	Current       bool      `json:"current"`
}

// ReadResult is what a viewer gets back from a successful read.
type ReadResult struct {
	Content        json.RawMessage `json:"content"`
	ViewCount      int64           `json:"viewCount"`
	CurrentVersion int             `json:"currentVersion"`
	ViewingVersion int             `json:"viewingVersion"`
	IsArchived     bool            `json:"isArchived"`
}

// CutResult reports the version numbers around a cut.
type CutResult struct {
	PreviousVersion int `json:"previousVersion"`
	NewVersion      int `json:"newVersion"`
}
