package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

const observationPrefix = "Observation: "

// RenderObservation turns a tool result into the text fed back to the model.
// Strings pass through; other values are encoded as compact JSON with map keys
// sorted. A nil slice renders as [] so "nothing found" stays a list.
func RenderObservation(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	case nil:
		return "null", nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return "[]", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("render observation: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func observationMessage(rendered string) string {
	return observationPrefix + rendered
}
