package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse decodes arbitrary JSON into the canonical value model. Numbers keep
// full precision: integers that fit in int64 become Int, everything else Float.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("canonical: trailing data after document")
	}

	return FromAny(raw)
}

// FromAny converts the output of encoding/json (decoded with UseNumber) into
// a Value.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case float64:
		return Float(t), nil
	case []any:
		arr := make(Array, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		if isClearedTag(t) {
			return Cleared{}, nil
		}
		obj := make(Object, len(t))
		for k, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	}
	return nil, fmt.Errorf("canonical: unsupported type %T", raw)
}

func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("canonical: invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

func isClearedTag(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	v, ok := m[ClearedKey].(bool)
	return ok && v
}

// IsCanonical reports whether data is already the canonical encoding of the
// document it contains.
func IsCanonical(data []byte) bool {
	v, err := Parse(data)
	if err != nil {
		return false
	}
	return bytes.Equal(Marshal(v), data)
}

// Canonicalize parses JSON and returns its canonical bytes.
func Canonicalize(data []byte) ([]byte, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Marshal(v), nil
}
