package stubllm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"document-classify-service/models"
)

// Client is a deterministic, no-network provider stub intended for CI and
// local end-to-end runs. It returns schema-valid JSON so parsing and state
// transitions exercise the full flow.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) ClassifyDocument(ctx context.Context, imageB64, mimeType string) (string, error) {
	// Make output deterministic per-input so runs are stable in CI.
	sum := sha256.Sum256([]byte(mimeType + ":" + imageB64))
	short := hex.EncodeToString(sum[:8])

	categories := models.Categories()
	category := categories[int(sum[0])%len(categories)]

	out := map[string]string{
		"category": category,
		"reason":   fmt.Sprintf("Stubbed classification (%s); no model was consulted.", short),
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
