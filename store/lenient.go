package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Model-produced records are accepted as long as they parse. The types below
// absorb the scalar mismatches models commonly emit instead of failing the
// whole document.

// Text is a string that also accepts a JSON number, boolean or nested value,
// keeping its literal text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(literalText(data))
	return nil
}

// Score is a number that also accepts a numeric string such as "90" or "85%".
// Non-numeric input decodes as 0.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	text := strings.TrimSuffix(strings.TrimSpace(literalText(data)), "%")
	if text == "" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Score(v)
	return nil
}

// StringList is a list of strings that also accepts a single value and
// non-string elements.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l = StringList{literalText(trimmed)}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	list := make(StringList, 0, len(items))
	for _, item := range items {
		list = append(list, literalText(item))
	}
	*l = list
	return nil
}

// literalText renders a JSON value as text: strings unquoted, null empty,
// everything else as its compact JSON literal.
func literalText(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// decodeTolerant unmarshals data into v, keeping whatever decoded when the
// only failures are type mismatches.
func decodeTolerant(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}
	return nil
}

// extraFields returns the members of the JSON object data not named in known.
func extraFields(data []byte, known ...string) map[string]any {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil
	}
	for _, key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// marshalWithExtra marshals v and adds the extra members it does not already carry.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
