// Package canonical serializes certificate content into a single
// deterministic byte sequence. Its output is the input to the signing hash,
// so any change to the encoding rules invalidates every issued revision.
//
// Rules:
//   - object keys are sorted by byte order at every nesting level
//   - arrays keep their order
//   - null, empty strings, empty arrays and empty objects are omitted from objects
//   - integral numbers (within ±2^53) print as integers, other floats use the
//     shortest round-tripping form; -0 prints as 0, NaN and ±Inf as null
//   - an explicitly cleared field prints as {"$cleared":true}
//   - strings are JSON-escaped without HTML escaping
package canonical

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Integral floats in [minInt64, maxInt64Bound) print as integer digits, the
// same form Int uses, so 1e16 and 10000000000000000 encode alike.
const (
	minInt64      = -1 << 63
	maxInt64Bound = 1 << 63
)

// Marshal returns the canonical bytes for v. It never fails: every Value has
// exactly one canonical encoding.
func Marshal(v Value) []byte {
	var buf bytes.Buffer
	encode(&buf, v)
	return buf.Bytes()
}

func encode(buf *bytes.Buffer, v Value) {
	switch t := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Int:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case Float:
		buf.WriteString(formatFloat(float64(t)))
	case String:
		writeString(buf, string(t))
	case Array:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			encode(buf, item)
		}
		buf.WriteByte(']')
	case Object:
		keys := make([]string, 0, len(t))
		for k, m := range t {
			if isEmpty(m) {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			encode(buf, t[k])
		}
		buf.WriteByte('}')
	case Cleared:
		buf.WriteString(`{"` + ClearedKey + `":true}`)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		// covers -0
		return "0"
	}
	if f == math.Trunc(f) && f >= minInt64 && f < maxInt64Bound {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xF])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString("\ufffd")
			i++
			continue
		}
		// U+2028 and U+2029 are valid JSON but break JavaScript string literals.
		if r == '\u2028' || r == '\u2029' {
			buf.WriteString(`\u202`)
			buf.WriteByte(hexDigits[r&0xF])
			i += size
			continue
		}
		buf.WriteString(s[i : i+size])
		i += size
	}
	buf.WriteByte('"')
}
