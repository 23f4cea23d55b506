package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a nullable display attribute as delivered by the order-management API.
// The API is loose about types (quantities arrive as numbers or strings such as
// "12.5%"), so the raw text is kept and interpretation is left to the caller.
type Value struct {
	raw      string
	valid    bool
	isNumber bool
}

// NullValue returns an absent value.
func NullValue() Value { return Value{} }

// StringValue wraps a string attribute.
func StringValue(s string) Value { return Value{raw: s, valid: true} }

// NumberValue wraps a numeric attribute.
func NumberValue(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), valid: true, isNumber: true}
}

// Valid reports whether the attribute is present.
func (v Value) Valid() bool { return v.valid }

// IsNumber reports whether the API delivered the attribute as a JSON number.
func (v Value) IsNumber() bool { return v.valid && v.isNumber }

// String returns the raw text, or "" when absent.
func (v Value) String() string { return v.raw }

// Ptr returns the raw text as a pointer, nil when absent.
func (v Value) Ptr() *string {
	if !v.valid {
		return nil
	}
	s := v.raw
	return &s
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	if v.isNumber {
		return []byte(v.raw), nil
	}
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{raw: s, valid: true}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Value{raw: string(data), valid: true}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported attribute value %s: %w", string(data), err)
		}
		*v = Value{raw: n.String(), valid: true, isNumber: true}
	}
	return nil
}

// OrderID is an opaque order identifier. The API uses integers for some
// venues and strings for others, so both encodings are accepted.
type OrderID string

func (id OrderID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id OrderID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

func (id OrderID) MarshalJSON() ([]byte, error) {
	if isPlainInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid order id %s: %w", string(data), err)
	}
	*id = OrderID(n.String())
	return nil
}

// isPlainInteger matches canonical non-negative integers ("0", "42"), which are
// sent back to the API as JSON numbers.
func isPlainInteger(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
