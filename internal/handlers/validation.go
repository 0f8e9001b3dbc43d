package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

const maxJSONBodyBytes = 64 << 10

// ValidationError reports malformed input. Fields maps each offending
// JSON property to a client-facing message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

func writeValidationError(w http.ResponseWriter, err *ValidationError) {
	message := err.Message
	writeJSON(w, http.StatusBadRequest, Envelope{
		Status:  http.StatusBadRequest,
		Message: &message,
		Data:    err.Fields,
	})
}

// requestSchema validates a JSON body against the schema reflected from a
// request struct, then decodes it.
type requestSchema struct {
	schema   *jschema.Schema
	messages map[string]string
}

// newRequestSchema reflects v into a JSON Schema. messages gives the
// client-facing message for each property; properties missing from it
// fall back to a generic one.
func newRequestSchema(id string, v any, messages map[string]string) (*requestSchema, error) {
	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	reflected := r.Reflect(v)
	reflected.ID = jsonschema.ID(id)

	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", id, err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", id, err)
	}

	c := jschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", id, err)
	}
	schema, err := c.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", id, err)
	}
	return &requestSchema{schema: schema, messages: messages}, nil
}

func mustRequestSchema(id string, v any, messages map[string]string) *requestSchema {
	s, err := newRequestSchema(id, v, messages)
	if err != nil {
		panic(err)
	}
	return s
}

// decode reads the request body into dst. Any failure is a
// *ValidationError.
func (s *requestSchema) decode(w http.ResponseWriter, r *http.Request, dst any) *ValidationError {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		return &ValidationError{Message: MessageInvalidBody}
	}
	return s.decodeBytes(body, dst)
}

func (s *requestSchema) decodeBytes(body []byte, dst any) *ValidationError {
	instance, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return &ValidationError{Message: MessageInvalidBody}
	}

	if err := s.schema.Validate(instance); err != nil {
		var verr *jschema.ValidationError
		if !errors.As(err, &verr) {
			return &ValidationError{Message: MessageInvalidBody}
		}
		return s.fieldErrors(verr)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ValidationError{Message: MessageInvalidBody}
	}
	return nil
}

func (s *requestSchema) fieldErrors(root *jschema.ValidationError) *ValidationError {
	fields := map[string]string{}
	for _, name := range failingProperties(root) {
		fields[name] = s.message(name)
	}
	if len(fields) == 0 {
		return &ValidationError{Message: MessageInvalidBody}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &ValidationError{Message: fields[names[0]], Fields: fields}
}

func (s *requestSchema) message(property string) string {
	if msg, ok := s.messages[property]; ok {
		return msg
	}
	return "Invalid value for " + property + "."
}

// failingProperties collects the top-level properties named by the leaf
// causes of a validation error.
func failingProperties(verr *jschema.ValidationError) []string {
	if len(verr.Causes) > 0 {
		var names []string
		for _, cause := range verr.Causes {
			names = append(names, failingProperties(cause)...)
		}
		return names
	}
	if required, ok := verr.ErrorKind.(*kind.Required); ok {
		return required.Missing
	}
	if len(verr.InstanceLocation) > 0 {
		return []string{verr.InstanceLocation[0]}
	}
	return nil
}

// trimmed reports whether s is non-empty after trimming, returning the
// trimmed value.
func trimmed(s string) (string, bool) {
	t := strings.TrimSpace(s)
	return t, t != ""
}
