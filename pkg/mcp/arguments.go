package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Arguments are the untyped tool arguments as decoded from the request.
type Arguments map[string]interface{}

// ArgumentError reports an argument that is missing or has the wrong shape.
type ArgumentError struct {
	Name string
	Want string
	Got  interface{}
}

func (e *ArgumentError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("missing required argument: %s", e.Name)
	}
	return fmt.Sprintf("invalid argument %s: expected %s, got %s", e.Name, e.Want, describe(e.Got))
}

// String returns the named string argument. Absent and null arguments read
// as the empty string.
func (a Arguments) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Name: name, Want: "string", Got: v}
	}
	return s, nil
}

// RequiredString is String but rejects absent or empty values.
func (a Arguments) RequiredString(name string) (string, error) {
	s, err := a.String(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ArgumentError{Name: name, Want: "string"}
	}
	return s, nil
}

// Int returns the named integer argument. JSON numbers must be integral and
// fit in 32 bits; numeric strings are accepted too.
func (a Arguments) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, nil
	}

	invalid := &ArgumentError{Name: name, Want: "integer", Got: v}

	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t > math.MaxInt32 || t < math.MinInt32 {
			return 0, invalid
		}
		n = int64(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, invalid
		}
		n = i
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, invalid
		}
		n = i
	default:
		return 0, invalid
	}

	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, invalid
	}
	return int(n), nil
}

// decodeArguments reads the raw arguments of a tool call. Numbers are kept
// as json.Number so Int sees them exactly.
func decodeArguments(raw json.RawMessage) (Arguments, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var args Arguments
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid arguments: expected a JSON object: %w", err)
	}
	return args, nil
}

// describe names a decoded JSON value by its JSON type.
func describe(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case float64, int, int32, int64, json.Number:
		return fmt.Sprintf("%v", t)
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
