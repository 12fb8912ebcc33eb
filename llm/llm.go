package llm

import "context"

// Client abstracts the vision-capable model provider used by the
// classifier. Implementations must be concurrency-safe if used across
// goroutines.
type Client interface {
	// ClassifyDocument sends a single request carrying the base64 image
	// payload (no data-URI prefix) tagged with its MIME type, plus the
	// fixed classification instruction and output schema, and returns the
	// raw text of the model's JSON reply. One attempt, no retries.
	ClassifyDocument(ctx context.Context, imageB64, mimeType string) (string, error)
	// SourceName returns a short provider label for logs (e.g., "Gemini").
	SourceName() string
}
