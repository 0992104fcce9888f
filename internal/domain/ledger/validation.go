package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxNameLength is the longest member name kept, in characters.
	MaxNameLength = 100
	// MaxHours caps the hours a member can hold.
	MaxHours = 10_000_000
)

// Quantity is a numeric request field kept as received. Clients send JSON
// numbers, numeric strings, booleans or null; conversion happens when the
// registry validates the request.
type Quantity struct {
	raw string
}

// QuantityOf wraps a number already decoded elsewhere.
func QuantityOf(v float64) *Quantity {
	return &Quantity{raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

// UnmarshalJSON records the raw token. It never fails so that one bad field
// does not discard the rest of the body.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	q.raw = string(bytes.TrimSpace(data))
	return nil
}

// MarshalJSON writes the value back in its original form.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.raw == "" {
		return []byte("null"), nil
	}
	return []byte(q.raw), nil
}

// Empty reports whether the field carries a falsy value: absent, null, an
// empty string, false or zero.
func (q *Quantity) Empty() bool {
	if q == nil {
		return true
	}
	switch q.raw {
	case "", "null", "false", `""`:
		return true
	}
	v, err := q.Float()
	return err == nil && v == 0
}

// Float converts the field to a float64. Values that are not numbers or
// numeric strings return ErrInvalidHours.
func (q *Quantity) Float() (float64, error) {
	if q == nil {
		return 0, nil
	}
	raw := q.raw
	switch {
	case raw == "" || raw == "null" || raw == "false":
		return 0, nil
	case raw == "true":
		return 1, nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidHours, raw)
		}
		return parseFloat(strings.TrimSpace(s))
	case strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{"):
		return 0, fmt.Errorf("%w: not a number", ErrInvalidHours)
	default:
		return parseFloat(raw)
	}
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals come back as ±Inf, which the clamp handles.
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidHours, s)
	}
	return v, nil
}

// Text is a string request field that also tolerates non-string scalars.
type Text struct {
	value string
}

// TextOf wraps a plain string.
func TextOf(s string) *Text {
	return &Text{value: s}
}

// UnmarshalJSON keeps strings as-is and other scalars in their literal form.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		return json.Unmarshal(data, &t.value)
	}
	if string(data) == "null" {
		t.value = ""
		return nil
	}
	t.value = string(data)
	return nil
}

// String returns the field value.
func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return t.value
}

// NormalizeName composes, trims and truncates a member name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		name = strings.TrimSpace(string(runes[:MaxNameLength]))
	}
	return name
}

// ClampHours maps any float into [0, MaxHours]. Non-finite and negative
// values become zero.
func ClampHours(h float64) float64 {
	switch {
	case math.IsNaN(h), math.IsInf(h, 0), h < 0:
		return 0
	case h > MaxHours:
		return MaxHours
	default:
		return h
	}
}

// CoerceHours converts hours for add and submit: falsy values are zero and
// out-of-range values are clamped. Only unconvertible input is an error.
func CoerceHours(q *Quantity) (float64, error) {
	if q.Empty() {
		return 0, nil
	}
	v, err := q.Float()
	if err != nil {
		return 0, err
	}
	return ClampHours(v), nil
}

// StrictHours converts hours for explicit updates. Anything that would need
// coercing is rejected.
func StrictHours(q *Quantity) (float64, error) {
	if q == nil {
		return 0, fmt.Errorf("%w: missing", ErrInvalidHours)
	}
	if q.raw == "" || q.raw == `""` {
		return 0, fmt.Errorf("%w: empty", ErrInvalidHours)
	}
	v, err := q.Float()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: must be finite", ErrInvalidHours)
	}
	if v < 0 || v > MaxHours {
		return 0, fmt.Errorf("%w: must be between 0 and %d", ErrInvalidHours, MaxHours)
	}
	return v, nil
}

// ParameterValue converts a parameter field. ok is false when the field is
// absent or does not hold a finite number, in which case it is left alone.
func ParameterValue(q *Quantity) (v float64, ok bool) {
	if q == nil || q.raw == "" || q.raw == "null" {
		return 0, false
	}
	v, err := q.Float()
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
