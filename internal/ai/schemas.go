package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// The model's replies are trusted for content but never for shape: every
// payload is validated against one of these schemas before it is decoded.

const questionSetSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["text", "stage", "type"],
        "properties": {
          "id":    {"type": "string"},
          "text":  {"type": "string", "minLength": 1},
          "stage": {"type": "string", "enum": ["oral", "technical_written"]},
          "type":  {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

const feedbackSchema = `{
  "type": "object",
  "required": [
    "overallFeedback",
    "strengthsSummary",
    "weaknessesSummary",
    "overallAreasForImprovement",
    "detailedQuestionFeedback"
  ],
  "properties": {
    "overallScore":               {"type": "integer", "minimum": 0, "maximum": 100},
    "overallFeedback":            {"type": "string"},
    "strengthsSummary":           {"type": "string"},
    "weaknessesSummary":          {"type": "string"},
    "overallAreasForImprovement": {"type": "string"},
    "detailedQuestionFeedback": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["questionId", "questionText", "userAnswer", "idealAnswer", "refinementSuggestions", "score"],
        "properties": {
          "questionId":            {"type": "string"},
          "questionText":          {"type": "string"},
          "userAnswer":            {"type": "string"},
          "idealAnswer":           {"type": "string"},
          "refinementSuggestions": {"type": "string"},
          "score":                 {"type": "integer", "minimum": 0, "maximum": 10}
        }
      }
    }
  }
}`

// FieldError is one schema violation at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError reports a model reply that did not match the expected shape.
// Callers treat it as a degraded (absent) result, not a crash.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("model reply failed schema validation:")
	for _, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return sb.String()
}

func validateAgainst(schema, document string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		// not even parseable JSON
		return &SchemaError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	se := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		se.Errors = append(se.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return se
}
