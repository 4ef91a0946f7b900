package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quantract/certledger/pkg/canonical"
)

type Type string

const (
	TypeEICR       Type = "EICR"
	TypeEIC        Type = "EIC"
	TypeMinorWorks Type = "MWC"
)

func (t Type) Valid() bool {
	_, ok := registry[t]
	return ok
}

// Title is the heading printed on the certificate.
func (t Type) Title() string {
	switch t {
	case TypeEICR:
		return "Electrical Installation Condition Report"
	case TypeEIC:
		return "Electrical Installation Certificate"
	case TypeMinorWorks:
		return "Minor Electrical Installation Works Certificate"
	}
	return string(t)
}

var ErrUnknownType = errors.New("document: unknown certificate type")

// Content is the typed body of a certificate. Each schema owns its canonical
// form and its own readiness rules.
type Content interface {
	Type() Type
	Canonical() canonical.Object
	// missing returns body field paths that block issuance.
	missing() []string
	// Sections is the human-readable rendering order of the body.
	Sections() []Section
}

var registry = map[Type]func() Content{
	TypeEICR:       func() Content { return &EICR{} },
	TypeEIC:        func() Content { return &EIC{} },
	TypeMinorWorks: func() Content { return &MinorWorks{} },
}

// Empty returns a zero body of the given type.
func Empty(t Type) (Content, error) {
	newFn, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return newFn(), nil
}

// DecodeContent parses a JSON body for type t. Unknown fields are rejected.
func DecodeContent(t Type, raw []byte) (Content, error) {
	c, err := Empty(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return c, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("document: decode %s body: %w", t, err)
	}
	return c, nil
}

// Section and Row describe content for the renderer without exposing the
// schema types to it.
type Section struct {
	Heading string
	Rows    []Row
}

type Row struct {
	Label string
	Value string
}
