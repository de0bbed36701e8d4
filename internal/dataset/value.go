package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Null() Value { return Value{} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// IsBlank reports whether the value is null or the empty string.
func (v Value) IsBlank() bool {
	return v.kind == KindNull || (v.kind == KindString && v.str == "")
}

// NumberOrZero mirrors `Number(x) || 0`: numbers pass through, numeric text is
// parsed, and everything else (null, NaN, free text) contributes zero.
func (v Value) NumberOrZero() float64 {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return 0
		}
		return v.num
	case KindString:
		if strings.TrimSpace(v.str) == "" {
			return 0
		}
		if f, ok := ParseNumber(v.str); ok {
			return f
		}
	}
	return 0
}

// Text is the display form of the value. Null displays as empty.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Key is the grouping key used for frequency counts; null keys as "null".
func (v Value) Key() string {
	if v.kind == KindNull {
		return "null"
	}
	return v.Text()
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return strconv.Quote(v.str)
	default:
		return "null"
	}
}

// FormatNumber renders f the way a browser prints a number: integers without
// a fractional part and everything else in shortest round-trip form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if a := math.Abs(f); a != 0 && (a >= 1e21 || a < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts edited text with browser Number() rules: surrounding
// whitespace is ignored, decimal and exponent forms are accepted, as are
// unsigned 0x/0o/0b integers and signed Infinity. The caller decides what an
// empty string means.
func ParseNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	switch t {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(t) > 2 && t[0] == '0' {
		base := 0
		switch t[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.Contains(t, "_") {
				return 0, false
			}
			n, err := strconv.ParseUint(t[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	if !decimalRe.MatchString(t) {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		// out of range still yields ±Inf, which Number() also does
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// Coerce turns raw edited text into a cell value: numeric text becomes a
// number, anything else is kept verbatim as a string.
func Coerce(raw string) Value {
	if strings.TrimSpace(raw) != "" {
		if f, ok := ParseNumber(raw); ok {
			return Number(f)
		}
	}
	return String(raw)
}

// FromAny converts a decoded JSON scalar into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return String(strconv.FormatBool(t)), nil
	case json.Number, float64, float32, int, int64, int32:
		f, err := cast.ToFloat64E(t)
		if err != nil {
			return Null(), fmt.Errorf("number %v: %w", t, err)
		}
		return Number(f), nil
	default:
		return Null(), fmt.Errorf("unsupported cell type %T", x)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	out, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = out
	return nil
}
