package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

const fence = "```"

// CodeText extracts the body of a fenced code block from raw model output.
// When lang is non-empty a block opened with that language tag is preferred;
// otherwise (or when no tagged block exists) the first fenced block of any
// language is used. Text without any code fence is returned whole, trimmed,
// so callers can pass model output through unconditionally.
func CodeText(text, lang string) string {
	if lang != "" {
		if body, ok := fencedBlock(text, fence+lang); ok {
			return body
		}
	}
	if body, ok := fencedBlock(text, fence); ok {
		return body
	}
	return strings.TrimSpace(text)
}

// fencedBlock finds the first block opened by marker and returns its body.
// The opening line (marker plus any trailing language tag) is skipped; the
// body runs until the closing fence or, for truncated output, end of text.
func fencedBlock(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}

	body := text[start+len(marker):]
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		body = body[newline+1:]
	} else {
		// Opening fence with no following line: nothing inside.
		return "", false
	}

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// JSONAs parses raw model output as JSON into T. The content may be wrapped
// in a markdown code fence or prose; the first JSON-looking block is used.
// If standard unmarshaling fails the content is run through jsonrepair
// (single quotes, trailing commas, unquoted keys) and retried, and as a last
// resort schema-style {"type": ..., "value": ...} wrappers are unwrapped.
//
// Example usage:
//
//	type Person struct {
//	    Name string `json:"name"`
//	    Age  int    `json:"age"`
//	}
//
//	person, err := parse.JSONAs[Person]("```json\n{\"name\":\"John\",\"age\":30}\n```")
func JSONAs[T any](content string) (T, error) {
	var result T

	candidate := CodeText(content, "json")

	err := json.Unmarshal([]byte(candidate), &result)
	if err == nil {
		return result, nil
	}

	// Unmarshaling failed; attempt to repair the JSON and retry.
	repairedJSON, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	err = json.Unmarshal([]byte(repairedJSON), &result)
	if err != nil {
		// Try to unwrap schema-like {type, value} structures. This handles
		// cases where models confuse JSON schema with actual data.
		unwrapped, unwrapErr := unwrapSchemaValues(repairedJSON)
		if unwrapErr == nil {
			if retryErr := json.Unmarshal([]byte(unwrapped), &result); retryErr == nil {
				return result, nil
			}
		}

		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (original content: %s, repaired: %s)", result, err, content, repairedJSON)
	}
	return result, nil
}

// unwrapSchemaValues attempts to detect and unwrap values that are wrapped
// in a schema-like structure with "type" and "value" fields.
//
// Example input:
//
//	{"name": {"type": "string", "value": "John"}, "age": {"type": "integer", "value": 30}}
//
// Example output:
//
//	{"name": "John", "age": 30}
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}

	unwrapped := recursiveUnwrap(data)

	result, err := json.Marshal(unwrapped)
	if err != nil {
		return "", err
	}

	return string(result), nil
}

// recursiveUnwrap recursively processes data structures to unwrap schema-like values
func recursiveUnwrap(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		// Check if this map has the schema pattern: {"type": "...", "value": ...}
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				// Recursively unwrap in case the value itself contains wrapped data
				return recursiveUnwrap(value)
			}
		}

		result := make(map[string]interface{})
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result

	default:
		return data
	}
}
