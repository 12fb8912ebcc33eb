package models

import (
	"time"
)

// Sensitivity categories a document can be classified into.
const (
	CategoryPublic          = "Public"
	CategoryConfidential    = "Confidential"
	CategoryHighlySensitive = "Highly Sensitive"
	CategoryUnsafe          = "Unsafe"
)

// Categories lists the allowed classification labels in display order.
func Categories() []string {
	return []string{
		CategoryPublic,
		CategoryConfidential,
		CategoryHighlySensitive,
		CategoryUnsafe,
	}
}

// IsKnownCategory reports whether label is one of the four fixed categories.
func IsKnownCategory(label string) bool {
	switch label {
	case CategoryPublic, CategoryConfidential, CategoryHighlySensitive, CategoryUnsafe:
		return true
	}
	return false
}

// UploadedDocument is the user-selected file held for the current session.
// It is replaced wholesale on each new selection; the previous content (and
// with it the preview) is released when superseded.
type UploadedDocument struct {
	Content    []byte    `json:"-"`
	MimeType   string    `json:"mime_type"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ClassificationRequest is the ephemeral payload sent to the model for one
// attempt: the base64 image data (no data-URI prefix), its MIME type, and
// an implied fixed instruction plus output schema owned by the provider
// client. Constructed fresh per attempt, never persisted.
type ClassificationRequest struct {
	ImageB64 string
	MimeType string
}

// ClassificationResult is the validated model output. Both fields must be
// present and non-empty; a response missing either is a failure, not a
// partial result.
type ClassificationResult struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Status is the session's presentation state. Exactly one applies at a
// time; classifying excludes both result and error by construction.
type Status string

const (
	StatusNoFile      Status = "no_file"
	StatusReady       Status = "ready"
	StatusClassifying Status = "classifying"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
)
