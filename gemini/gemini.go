package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

const promptInstruction = `You are a document sensitivity reviewer. Look at the attached document image and classify it into exactly one of the following categories:

- Public: safe for unrestricted distribution.
- Confidential: internal business information that should not leave the organization.
- Highly Sensitive: regulated or high-impact content such as personal data, financial records, credentials or legal matters.
- Unsafe: content that should not be processed or shared at all.

Respond with a single JSON object containing the chosen "category" and a brief "reason" justifying the choice. Output JSON only, no wrapping markdown.`

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type schemaProperty struct {
	Type string   `json:"type"`
	Enum []string `json:"enum,omitempty"`
}

type responseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"response_mime_type,omitempty"`
	ResponseSchema   *responseSchema `json:"response_schema,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{},
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

// classificationSchema constrains the model reply to the two required
// string fields, with category limited to the four sensitivity labels.
func classificationSchema() *responseSchema {
	return &responseSchema{
		Type: "OBJECT",
		Properties: map[string]schemaProperty{
			"category": {
				Type: "STRING",
				Enum: []string{"Public", "Confidential", "Highly Sensitive", "Unsafe"},
			},
			"reason": {
				Type: "STRING",
			},
		},
		Required: []string{"category", "reason"},
	}
}

// ClassifyDocument sends one generateContent request with the instruction
// text part and the inline image payload, requesting a schema-conforming
// JSON response.
func (c *Client) ClassifyDocument(ctx context.Context, imageB64, mimeType string) (string, error) {
	parts := []part{{Text: promptInstruction}}
	if imageB64 != "" {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: mimeType,
				Data:     imageB64,
			},
		})
	}

	reqBody := geminiRequest{
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   classificationSchema(),
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
	}

	return c.generateContent(ctx, reqBody)
}

func (c *Client) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	// try v1beta first, then v1
	base := strings.TrimRight(c.baseURL, "/")
	endpoints := []string{
		fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", base, c.model, c.apiKey),
		fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", base, c.model, c.apiKey),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			continue
		}
		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
			// try next endpoint if available
			continue
		}
		var gr geminiResponse
		if err := json.Unmarshal(bodyBytes, &gr); err != nil {
			lastErr = fmt.Errorf("failed to parse response: %w", err)
			continue
		}
		if len(gr.Candidates) == 0 {
			lastErr = fmt.Errorf("no candidates in response")
			continue
		}
		// find first text part
		for _, p := range gr.Candidates[0].Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
		lastErr = fmt.Errorf("no text part in response")
	}
	return "", lastErr
}
