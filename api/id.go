package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RootID is the reserved parent value marking a top-level record.
// It is never a valid record id.
const RootID = "root"

// Kind tags the dynamic type held by an ID.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	// KindOther holds any other value. It only appears when id-type
	// validation is switched off.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindOther:
		return "other"
	default:
		return "invalid"
	}
}

// ID is a comparable record identifier: an integer or a string.
// The zero value is invalid. IDs are usable as map keys.
type ID struct {
	kind Kind
	n    int64
	s    string
}

// IntID returns an integer id.
func IntID(n int64) ID { return ID{kind: KindInt, n: n} }

// StringID returns a string id.
func StringID(s string) ID { return ID{kind: KindString, s: s} }

// Root is the ID form of RootID.
var Root = StringID(RootID)

// ParseID converts a decoded value into an ID. It accepts Go integer kinds,
// integral floats (JSON numbers), json.Number, strings and ID itself.
// The boolean is false for any other value.
func ParseID(v any) (ID, bool) {
	switch x := v.(type) {
	case ID:
		return x, x.kind == KindInt || x.kind == KindString
	case string:
		return StringID(x), true
	case int:
		return IntID(int64(x)), true
	case int8:
		return IntID(int64(x)), true
	case int16:
		return IntID(int64(x)), true
	case int32:
		return IntID(int64(x)), true
	case int64:
		return IntID(x), true
	case uint:
		return uintID(uint64(x))
	case uint8:
		return IntID(int64(x)), true
	case uint16:
		return IntID(int64(x)), true
	case uint32:
		return IntID(int64(x)), true
	case uint64:
		return uintID(x)
	case float32:
		return floatID(float64(x))
	case float64:
		return floatID(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return IntID(n), true
		}
		if f, err := x.Float64(); err == nil {
			return floatID(f)
		}
	}
	return ID{}, false
}

func uintID(u uint64) (ID, bool) {
	if u > math.MaxInt64 {
		return ID{}, false
	}
	return IntID(int64(u)), true
}

func floatID(f float64) (ID, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return ID{}, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return ID{}, false
	}
	return IntID(int64(f)), true
}

// AnyID converts v into an ID without rejecting anything. Values outside
// the integer/string domain become KindOther ids keyed by their type and
// JSON encoding, so equal-looking values of the same type share an id.
func AnyID(v any) ID {
	if id, ok := ParseID(v); ok {
		return id
	}
	if id, ok := v.(ID); ok {
		return id
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ID{kind: KindOther, s: fmt.Sprintf("%T:%v", v, v)}
	}
	return ID{kind: KindOther, s: fmt.Sprintf("%T:%s", v, b)}
}

// ParseArg interprets a textual id from a command line or tool call.
// Base-10 integers become integer ids unless forceString is set.
func ParseArg(s string, forceString bool) ID {
	if !forceString {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntID(n)
		}
	}
	return StringID(s)
}

func (id ID) Kind() Kind   { return id.kind }
func (id ID) IsRoot() bool { return id == Root }

func (id ID) String() string {
	switch id.kind {
	case KindInt:
		return strconv.FormatInt(id.n, 10)
	case KindString, KindOther:
		return id.s
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes integer ids as JSON numbers and the rest as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.kind == KindInt {
		return []byte(strconv.FormatInt(id.n, 10)), nil
	}
	if id.kind == KindInvalid {
		return []byte("null"), nil
	}
	return json.Marshal(id.s)
}
