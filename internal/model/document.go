package model

import "time"

// Document represents a stored contract file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
	// LocalPath is the working copy inside the upload directory; the
	// extraction engine only ever reads from there.
	LocalPath        string    `json:"local_path"`
	Size             int64     `json:"size"`
	ContentType      string    `json:"content_type"`
	ExtractedText    string    `json:"extracted_text,omitempty"`
	ExtractionEngine string    `json:"extraction_engine,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
