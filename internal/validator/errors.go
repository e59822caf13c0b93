package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ValidationError names the first field that violated the template schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DecodeJSON reads a candidate template from a JSON document.
func DecodeJSON(r io.Reader) (CandidateTemplate, error) {
	var c CandidateTemplate
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return CandidateTemplate{}, newError("document", fmt.Sprintf("malformed JSON: %v", err))
	}
	return c, nil
}

// DecodeYAML reads a candidate template from a YAML document.
func DecodeYAML(data []byte) (CandidateTemplate, error) {
	var c CandidateTemplate
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return CandidateTemplate{}, newError("document", fmt.Sprintf("malformed YAML: %v", err))
	}
	return c, nil
}
