package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/quantract/certledger/pkg/canonical"
)

type fieldState uint8

const (
	fieldAbsent fieldState = iota
	fieldSet
	fieldCleared
)

// Field is an optional scalar that distinguishes "never filled in" from
// "explicitly cleared by the inspector". Both states are meaningful on a
// legal record and hash differently.
type Field[T any] struct {
	value T
	state fieldState
}

func Set[T any](v T) Field[T] {
	return Field[T]{value: v, state: fieldSet}
}

func Clear[T any]() Field[T] {
	return Field[T]{state: fieldCleared}
}

func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

// Or returns the value when set, otherwise def.
func (f Field[T]) Or(def T) T {
	if f.state == fieldSet {
		return f.value
	}
	return def
}

func (f Field[T]) IsSet() bool     { return f.state == fieldSet }
func (f Field[T]) IsCleared() bool { return f.state == fieldCleared }

// IsZero reports absence so that `omitzero` drops untouched fields.
func (f Field[T]) IsZero() bool { return f.state == fieldAbsent }

var clearedJSON = []byte(`{"` + canonical.ClearedKey + `":true}`)

func (f Field[T]) MarshalJSON() ([]byte, error) {
	switch f.state {
	case fieldSet:
		return json.Marshal(f.value)
	case fieldCleared:
		return clearedJSON, nil
	default:
		return []byte("null"), nil
	}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = Field[T]{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var tag map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &tag); err == nil && len(tag) == 1 {
			if raw, ok := tag[canonical.ClearedKey]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("true")) {
				*f = Clear[T]()
				return nil
			}
		}
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	*f = Set(v)
	return nil
}

func canonField[T any](f Field[T], conv func(T) canonical.Value) canonical.Value {
	switch f.state {
	case fieldSet:
		return conv(f.value)
	case fieldCleared:
		return canonical.Cleared{}
	default:
		return nil
	}
}

func canonStr(f Field[string]) canonical.Value {
	return canonField(f, func(s string) canonical.Value { return canonical.String(s) })
}

func canonNum(f Field[float64]) canonical.Value {
	return canonField(f, func(n float64) canonical.Value { return canonical.Float(n) })
}

func canonBool(f Field[bool]) canonical.Value {
	return canonField(f, func(b bool) canonical.Value { return canonical.Bool(b) })
}

// finite reports whether a set numeric field holds a real number.
func finite(f Field[float64]) bool {
	v, ok := f.Get()
	return !ok || (!math.IsNaN(v) && !math.IsInf(v, 0))
}
