package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Row maps column names to values and remembers the order in which the
// columns were first set, so the first row of a dataset can define the
// column list.
type Row struct {
	keys []string
	vals map[string]Value
}

// NewRow builds a row from parallel key/value slices.
func NewRow(keys []string, vals []Value) Row {
	r := Row{keys: make([]string, 0, len(keys)), vals: make(map[string]Value, len(keys))}
	for i, k := range keys {
		v := Null()
		if i < len(vals) {
			v = vals[i]
		}
		r.Set(k, v)
	}
	return r
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r Row) Len() int { return len(r.keys) }

// Get returns the value for key; missing keys read as null.
func (r Row) Get(key string) (Value, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Value is Get without the presence flag.
func (r Row) Value(key string) Value {
	return r.vals[key]
}

func (r *Row) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

func (r Row) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Clone returns a deep copy. Values are immutable, so copying the key slice
// and the map is enough.
func (r Row) Clone() Row {
	out := Row{keys: make([]string, len(r.keys)), vals: make(map[string]Value, len(r.vals))}
	copy(out.keys, r.keys)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// Equal compares keys (in order) and values.
func (r Row) Equal(o Row) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k {
			return false
		}
		if r.vals[k] != o.vals[k] {
			return false
		}
	}
	return true
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := r.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object while keeping its key order.
func (r *Row) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: got %v", ErrNotObject, tok)
	}
	out := Row{vals: make(map[string]Value)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", kt)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		v, err := FromAny(raw)
		if err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// ErrNotObject is returned when a row payload is not a JSON object.
var ErrNotObject = errors.New("row is not an object")
