package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OptionalString is a request field that distinguishes three states:
//
//   - absent:  the key was not in the JSON body at all
//   - present, non-string: the key was there but held null, a number, etc.
//   - present, string: the key held a JSON string (possibly empty)
//
// A plain *string cannot tell "absent" from "null", and the remark rules treat
// those differently, so the request types use this wrapper instead.
//
// encoding/json only calls UnmarshalJSON when the key exists, which is what
// makes the zero value mean "absent".
type OptionalString struct {
	present  bool
	isString bool
	value    string
}

// StringOf returns a present OptionalString holding s.
func StringOf(s string) OptionalString {
	return OptionalString{present: true, isString: true, value: s}
}

// UnmarshalJSON records presence and, if the value is a JSON string, its contents.
// It never fails: a wrong type is reported through IsString, not as a decode error.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.present = true
	o.isString = false
	o.value = ""
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.isString = true
		o.value = s
	}
	return nil
}

// MarshalJSON writes the string value, or null when absent or not a string.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.isString {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Present reports whether the key appeared in the request.
func (o OptionalString) Present() bool { return o.present }

// IsString reports whether the key held a JSON string.
func (o OptionalString) IsString() bool { return o.isString }

// Trimmed returns the value with surrounding whitespace removed.
// Non-string and absent values trim to "".
func (o OptionalString) Trimmed() string { return strings.TrimSpace(o.value) }

// OptionalNumber is a request field holding a number, or a string that parses
// as one. Like OptionalString it tracks presence separately from validity.
type OptionalNumber struct {
	present bool
	valid   bool
	value   float64
}

// NumberOf returns a present, valid OptionalNumber.
func NumberOf(f float64) OptionalNumber {
	return OptionalNumber{present: true, valid: !math.IsNaN(f) && !math.IsInf(f, 0), value: f}
}

// InvalidNumber returns a present OptionalNumber that did not parse.
func InvalidNumber() OptionalNumber {
	return OptionalNumber{present: true}
}

// UnmarshalJSON accepts a JSON number or a numeric string.
// null, booleans, empty strings and non-finite values are recorded as invalid.
func (o *OptionalNumber) UnmarshalJSON(b []byte) error {
	o.present = true
	o.valid = false
	o.value = 0

	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(trimmed, &f); err == nil {
		o.value = f
		o.valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	o.value = f
	o.valid = true
	return nil
}

// MarshalJSON writes the number, or null when absent or invalid.
func (o OptionalNumber) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Present reports whether the key appeared in the request.
func (o OptionalNumber) Present() bool { return o.present }

// Valid reports whether the value parsed to a finite number.
func (o OptionalNumber) Valid() bool { return o.valid }

// Value returns the parsed number; it is 0 when !Valid().
func (o OptionalNumber) Value() float64 { return o.value }
