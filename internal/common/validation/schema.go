// Package validation checks job variables against JSON schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "brokerage-matchmaking/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Result lists every violation found in a document.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Validate checks document against schema. A nil or empty schema accepts anything.
func Validate(schema map[string]interface{}, document interface{}) (*Result, error) {
	if len(schema) == 0 {
		return &Result{Valid: true}, nil
	}

	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, desc := range res.Errors() {
		out.Errors = append(out.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

// ValidateJSON validates a raw JSON payload such as a job's variables and
// returns a VALIDATION_FAILED StandardError listing the violations.
func ValidateJSON(schema map[string]interface{}, payload string) error {
	var document interface{}
	if err := json.Unmarshal([]byte(payload), &document); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("variables are not valid JSON: %v", err))
	}

	res, err := Validate(schema, document)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if res.Valid {
		return nil
	}

	msgs := make([]string, len(res.Errors))
	for i, fe := range res.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return apperrors.NewValidationError(strings.Join(msgs, "; ")).
		WithMetadata("violations", res.Errors)
}
