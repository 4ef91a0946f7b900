package canonical

import (
	"bytes"
	"math"
	"testing"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, `null`},
		{"bool", Bool(true), `true`},
		{"int", Int(-42), `-42`},
		{"integral float", Float(32), `32`},
		{"negative zero", Float(math.Copysign(0, -1)), `0`},
		{"fraction", Float(0.35), `0.35`},
		{"large float", Float(1e300), `1e+300`},
		{"integral beyond 2^53", Float(1 << 60), `1152921504606846976`},
		{"integral beyond int64", Float(1e19), `1e+19`},
		{"nan", Float(math.NaN()), `null`},
		{"inf", Float(math.Inf(1)), `null`},
		{"string escapes", String("a\"b\\c\n\x01<&>"), `"a\"b\\c\n\u0001<&>"`},
		{"line separator", String("x\u2028y"), `"x\u2028y"`},
		{"invalid utf8", String("a\xffb"), "\"a\ufffdb\""},
		{"array order kept", Array{Int(3), Int(1), Int(2)}, `[3,1,2]`},
		{"cleared", Cleared{}, `{"$cleared":true}`},
		{
			"object keys sorted and empties dropped",
			Object{"b": Int(1), "a": String("x"), "c": Null{}, "d": String(""), "e": Array{}, "f": Object{}, "g": Bool(false), "h": Int(0)},
			`{"a":"x","b":1,"g":false,"h":0}`,
		},
		{
			"nested",
			Object{"z": Object{"y": Int(1), "x": Array{Object{"b": Int(2), "a": Int(1)}}}},
			`{"z":{"x":[{"a":1,"b":2}],"y":1}}`,
		},
		{"cleared member kept", Object{"note": Cleared{}}, `{"note":{"$cleared":true}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Marshal(tt.in))
			if got != tt.want {
				t.Fatalf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	build := func(order []string) Object {
		obj := Object{}
		for _, k := range order {
			obj.Set(k, Object{"amps": Int(32), "type": String("EICR"), "readings": Array{Float(0.35), Float(1.2)}})
		}
		return obj
	}

	first := Marshal(build([]string{"alpha", "beta", "gamma", "delta"}))
	for i := 0; i < 20; i++ {
		again := Marshal(build([]string{"delta", "gamma", "beta", "alpha"}))
		if !bytes.Equal(first, again) {
			t.Fatalf("canonical bytes differ between runs:\n%s\n%s", first, again)
		}
	}
}

func TestParseKeyOrderIndependent(t *testing.T) {
	a, err := Canonicalize([]byte(`{"type":"EICR","amps":32,"site":{"postcode":"AB1 2CD","line1":"1 High St"}}`))
	if err != nil {
		t.Fatalf("Canonicalize(a): %v", err)
	}
	b, err := Canonicalize([]byte(`{ "site": {"line1":"1 High St", "postcode":"AB1 2CD"}, "amps": 32.0, "type": "EICR", "notes": null }`))
	if err != nil {
		t.Fatalf("Canonicalize(b): %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical canonical bytes:\n%s\n%s", a, b)
	}
	if want := `{"amps":32,"site":{"line1":"1 High St","postcode":"AB1 2CD"},"type":"EICR"}`; string(a) != want {
		t.Fatalf("Canonicalize() = %s, want %s", a, want)
	}
}

func TestParseClearedTag(t *testing.T) {
	v, err := Parse([]byte(`{"note":{"$cleared":true},"other":{"$cleared":false}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obj := v.(Object)
	if _, ok := obj["note"].(Cleared); !ok {
		t.Fatalf("expected Cleared, got %#v", obj["note"])
	}
	if _, ok := obj["other"].(Object); !ok {
		t.Fatalf("expected plain object for false tag, got %#v", obj["other"])
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatalf("expected error for trailing document")
	}
	if _, err := Parse([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}

func TestParseLargeIntegerKeepsPrecision(t *testing.T) {
	got, err := Canonicalize([]byte(`{"n":9007199254740993}`))
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if string(got) != `{"n":9007199254740993}` {
		t.Fatalf("precision lost: %s", got)
	}
}

func TestEquivalentNumbersCanonicalizeAlike(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"exponent and digits", `{"n":1e16}`, `{"n":10000000000000000}`},
		{"trailing fraction zero", `{"n":32.0}`, `{"n":32}`},
		{"int64 minimum", `{"n":-9.223372036854775808e18}`, `{"n":-9223372036854775808}`},
		{"small exponent", `{"n":2.5e2}`, `{"n":250}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Canonicalize([]byte(tt.a))
			if err != nil {
				t.Fatalf("Canonicalize(%s): %v", tt.a, err)
			}
			b, err := Canonicalize([]byte(tt.b))
			if err != nil {
				t.Fatalf("Canonicalize(%s): %v", tt.b, err)
			}
			if !bytes.Equal(a, b) {
				t.Fatalf("%s and %s canonicalize to %s and %s", tt.a, tt.b, a, b)
			}
		})
	}
}

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"a":1,"b":2}`, true},
		{`{"b":2,"a":1}`, false},
		{`{"a": 1}`, false},
		{`{"a":1.0}`, false},
		{`{"a":null}`, false},
		{`not json`, false},
	}
	for _, tt := range tests {
		if got := IsCanonical([]byte(tt.in)); got != tt.want {
			t.Errorf("IsCanonical(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
