package parser

import (
	"encoding/json"
	"strings"

	"document-classify-service/models"
)

// invalidFormatMessage is surfaced verbatim when the model reply is missing
// a required field or is not parseable JSON.
const invalidFormatMessage = "Invalid response format from the model"

// ExtractJSONFromMarkdown extracts JSON from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find JSON object directly
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseClassification parses the raw model reply and validates that both
// required fields are present. A reply missing either field is a terminal
// format failure for the attempt, never a partial result.
func ParseClassification(response string) (*models.ClassificationResult, error) {
	// Clean the response
	cleaned := strings.TrimSpace(response)

	// Extract JSON from markdown if present
	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var result models.ClassificationResult
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, models.NewFormatError(invalidFormatMessage)
	}

	if result.Category == "" || result.Reason == "" {
		return nil, models.NewFormatError(invalidFormatMessage)
	}

	return &result, nil
}
