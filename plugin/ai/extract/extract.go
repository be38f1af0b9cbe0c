// Package extract recovers structured objects from free-form model output.
//
// The model is asked for JSON but frequently wraps it in prose, code fences,
// trailing commas or comments. Decode locates the outermost object, parses it,
// and on failure applies a fixed pipeline of text repairs exactly once.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Kind classifies an extraction failure.
type Kind string

const (
	// KindNoObjectFound means the text contains no '{' ... '}' span.
	KindNoObjectFound Kind = "no_object_found"
	// KindUnrecoverable means the span did not parse, before or after repair.
	KindUnrecoverable Kind = "unrecoverable"
)

// Error is returned when no structured object can be recovered.
type Error struct {
	Kind  Kind
	Label string
	// Offset is the byte offset of the first parse error, reported against
	// the unrepaired span.
	Offset  int64
	Message string
}

func (e *Error) Error() string {
	if e.Kind == KindNoObjectFound {
		return fmt.Sprintf("no JSON object found in %s", e.Label)
	}
	return fmt.Sprintf("invalid JSON in %s: %s at position %d", e.Label, e.Message, e.Offset)
}

// IsKind reports whether err is an extraction Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var extractErr *Error
	if errors.As(err, &extractErr) {
		return extractErr.Kind == kind
	}
	return false
}

// Span returns the text from the first '{' to the last '}' inclusive.
func Span(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// Object extracts a JSON object from raw into a generic map.
func Object(raw, label string) (map[string]any, error) {
	var out map[string]any
	if err := Decode(raw, label, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode extracts a JSON object from raw and unmarshals it into v.
// The label names the call site in errors and logs.
//
// Only a syntax failure is an error. A well-formed object whose members do
// not fit v is accepted: mismatched members keep their zero value and the
// rest is decoded.
func Decode(raw, label string, v any) error {
	span, ok := Span(raw)
	if !ok {
		return &Error{Kind: KindNoObjectFound, Label: label}
	}

	firstErr := unmarshal(span, label, v)
	if firstErr == nil {
		return nil
	}
	slog.Debug("direct parse failed, applying repairs", "label", label, "error", firstErr)

	repaired := Apply(span, DefaultRepairs...)
	if err := unmarshal(repaired, label, v); err == nil {
		slog.Info("recovered model output after repair", "label", label)
		return nil
	}

	extractErr := &Error{Kind: KindUnrecoverable, Label: label, Message: firstErr.Error()}
	var syntaxErr *json.SyntaxError
	if errors.As(firstErr, &syntaxErr) {
		extractErr.Offset = syntaxErr.Offset
	}
	return extractErr
}

// unmarshal parses text into v and tolerates member type mismatches.
// json.Unmarshal validates the whole input before decoding, so a type
// error implies well-formed JSON.
func unmarshal(text, label string, v any) error {
	err := json.Unmarshal([]byte(text), v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		slog.Warn("model output member has unexpected type, keeping it unset",
			"label", label,
			"field", typeErr.Field,
			"value", typeErr.Value)
		return nil
	}
	return err
}
