package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType is the kind of a document node
type EntryType string

const (
	EntryTypePage    EntryType = "page"
	EntryTypeSection EntryType = "section"
	EntryTypeFile    EntryType = "file"
	// EntryTypePDF is accepted as an alias of EntryTypeFile
	EntryTypePDF EntryType = "pdf"
)

// FirstSeenDateLayout is the layout of RawEntry.FirstSeenDate (month/day/year)
const FirstSeenDateLayout = "01/02/2006"

// RawEntry is a node of the input document tree.
// Content and Title are cleaned in place while indexing.
type RawEntry struct {
	Type          EntryType  `json:"type"`
	Path          string     `json:"path"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Language      string     `json:"language"`
	FirstSeenDate string     `json:"first_seen_date"`
	Children      []RawEntry `json:"children,omitempty"`
}

// Validate checks the fields needed to index the node (children are not checked).
// Type and path are optional, a type that is set has to be known.
func (e *RawEntry) Validate() error {
	switch e.Type {
	case "", EntryTypePage, EntryTypeSection, EntryTypeFile, EntryTypePDF:
	default:
		return fmt.Errorf("%w: unknown type %q at path %q", ErrMalformedEntry, e.Type, e.Path)
	}
	if e.FirstSeenDate == "" {
		return fmt.Errorf("%w: missing first_seen_date at path %q", ErrMalformedEntry, e.Path)
	}
	return nil
}

// ParseFirstSeenDate parses the first seen date of the node
func (e *RawEntry) ParseFirstSeenDate() (time.Time, error) {
	return ParseFirstSeenDate(e.FirstSeenDate)
}

// ParseFirstSeenDate parses a date in FirstSeenDateLayout
func ParseFirstSeenDate(value string) (time.Time, error) {
	t, err := time.Parse(FirstSeenDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unparsable first_seen_date %q: %v", ErrMalformedEntry, value, err)
	}
	return t, nil
}

// Entry is the persisted record of an indexed RawEntry node
type Entry struct {
	ID            int64     `json:"id"`
	RID           uuid.UUID `json:"rid"`
	OriginalHash  string    `json:"original_hash"`
	Path          string    `json:"path"`
	Title         string    `json:"title"`
	Type          EntryType `json:"type"`
	Language      string    `json:"language"`
	FirstSeenDate time.Time `json:"first_seen_date"`
	ChunkCount    int       `json:"chunk_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IndexStats summarizes one indexing run
type IndexStats struct {
	Nodes         int           `json:"nodes"`
	ChunksCreated int           `json:"chunks_created"`
	ChunksWritten int           `json:"chunks_written"`
	ChunksSkipped int           `json:"chunks_skipped"`
	Elapsed       time.Duration `json:"elapsed"`
}
