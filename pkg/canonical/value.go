package canonical

// Value is one node of a canonical document. The set of implementations is
// closed: Null, Bool, Int, Float, String, Array, Object and Cleared.
type Value interface {
	isValue()
}

type Null struct{}

type Bool bool

type Int int64

type Float float64

type String string

// Array keeps the order it was built in. Marshal never sorts arrays.
type Array []Value

// Object members are emitted sorted by key regardless of insertion order.
type Object map[string]Value

// Cleared marks a field a user explicitly emptied. It canonicalizes to
// {"$cleared":true} so it stays distinguishable from a field never set.
type Cleared struct{}

func (Null) isValue()    {}
func (Bool) isValue()    {}
func (Int) isValue()     {}
func (Float) isValue()   {}
func (String) isValue()  {}
func (Array) isValue()   {}
func (Object) isValue()  {}
func (Cleared) isValue() {}

// ClearedKey is the tag member used to encode a Cleared value.
const ClearedKey = "$cleared"

// Set stores v under key. Nil values are ignored so optional fields can be
// passed through without a branch at every call site.
func (o Object) Set(key string, v Value) Object {
	if v == nil {
		return o
	}
	o[key] = v
	return o
}

// isEmpty reports whether v carries no information and is dropped from its
// parent object.
func isEmpty(v Value) bool {
	switch t := v.(type) {
	case nil, Null:
		return true
	case String:
		return t == ""
	case Array:
		return len(t) == 0
	case Object:
		for _, m := range t {
			if !isEmpty(m) {
				return false
			}
		}
		return true
	}
	return false
}
