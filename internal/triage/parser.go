// internal/triage/parser.go
package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedCompletion labels completions that could not be decoded into
// the expected record shape.
var ErrMalformedCompletion = errors.New("MALFORMED_COMPLETION")

// recordSchema pins the six-field object shape from the prompt template.
// No field is required: a partially conformant completion still yields a
// usable record. A present field with the wrong type is classed with
// malformed JSON.
const recordSchema = `{
	"type": "object",
	"properties": {
		"category":        {"type": "string"},
		"tags":            {"type": "array", "items": {"type": "string"}},
		"priority":        {"type": "string"},
		"suggested_eta":   {"type": "string"},
		"generated_reply": {"type": "string"},
		"sentiment":       {"type": "string"}
	}
}`

var recordSchemaLoader = gojsonschema.NewStringLoader(recordSchema)

// ParseCompletion extracts a Record from the raw completion text. It is
// total over all string inputs: malformed input yields the Error sentinel,
// never a panic or an unusable record. The returned error labels the
// failure for logging and metrics; the record is always valid either way.
func ParseCompletion(raw string) (Record, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		desc := fmt.Sprintf("Error decoding the model's JSON response: %v", err)
		return NewSentinelRecord(desc), fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	if err := validateShape(payload); err != nil {
		desc := fmt.Sprintf("Error decoding the model's JSON response: %v", err)
		return NewSentinelRecord(desc), fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	var fields struct {
		Category       *string  `json:"category"`
		Tags           []string `json:"tags"`
		Priority       *string  `json:"priority"`
		SuggestedETA   *string  `json:"suggested_eta"`
		GeneratedReply *string  `json:"generated_reply"`
		Sentiment      *string  `json:"sentiment"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		desc := fmt.Sprintf("Error decoding the model's JSON response: %v", err)
		return NewSentinelRecord(desc), fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	record := Record{
		Category:       stringOrDefault(fields.Category, DefaultCategory),
		Tags:           fields.Tags,
		Priority:       stringOrDefault(fields.Priority, DefaultPriority),
		SuggestedETA:   stringOrDefault(fields.SuggestedETA, DefaultETA),
		GeneratedReply: stringOrDefault(fields.GeneratedReply, DefaultReply),
		Sentiment:      stringOrDefault(fields.Sentiment, DefaultSentiment),
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}

	return record, nil
}

// extractJSON locates the JSON object in the completion. Models wrap the
// object in whitespace or prose often enough that a strict full-string
// decode throws away salvageable rows.
func extractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)

	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return json.RawMessage(trimmed), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in completion")
	}

	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("completion is not valid JSON")
	}

	return json.RawMessage(candidate), nil
}

func validateShape(payload json.RawMessage) error {
	result, err := gojsonschema.Validate(recordSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		descs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			descs[i] = desc.String()
		}
		return fmt.Errorf("completion does not match the expected shape: %s", strings.Join(descs, "; "))
	}

	return nil
}

func stringOrDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
