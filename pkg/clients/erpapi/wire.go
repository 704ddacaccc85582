package erpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The PHP API is loosely typed: numbers arrive as strings, booleans as "0"/"1",
// empty values as "" or null. The scalars below absorb those variations so the
// rest of the code only sees typed values.

// Number is a float that accepts JSON numbers and numeric strings.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull || s == "" {
		*n = 0
		return err
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return fmt.Errorf("number %q: %w", s, err)
	}
	*n = Number(v)
	return nil
}

// Int is an integer that accepts JSON numbers and numeric strings.
type Int int64

func (n *Int) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull || s == "" {
		*n = 0
		return err
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = Int(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("int %q: %w", s, err)
	}
	*n = Int(int64(f))
	return nil
}

// Ptr returns nil for zero ids, which the API uses for "not set".
func (n Int) Ptr() *int64 {
	if n == 0 {
		return nil
	}
	v := int64(n)
	return &v
}

// Bool accepts true/false, 0/1 and their string forms.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull {
		*b = false
		return err
	}
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		*b = true
	default:
		*b = false
	}
	return nil
}

// Text is a string that also accepts numbers and null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull {
		*t = ""
		return err
	}
	*t = Text(s)
	return nil
}

// Quantity is a decimal that accepts numbers, numeric strings, "" and null.
type Quantity decimal.Decimal

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull || s == "" {
		*q = Quantity(decimal.Zero)
		return err
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return fmt.Errorf("quantity %q: %w", s, err)
	}
	*q = Quantity(d)
	return nil
}

// Decimal returns the underlying value.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.Decimal(q)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp parses the MySQL-style datetimes the API emits.
type Timestamp time.Time

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s, isNull, err := scalarString(data)
	if err != nil || isNull || s == "" || strings.HasPrefix(s, "0000-00-00") {
		*ts = Timestamp(time.Time{})
		return err
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*ts = Timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unsupported layout", s)
}

// Time returns the parsed time.
func (ts Timestamp) Time() time.Time {
	return time.Time(ts)
}

// Strings accepts a JSON array, a JSON-encoded array inside a string, or a
// comma separated string.
type Strings []string

func (s *Strings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	if data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*s = compact(items)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	str = strings.TrimSpace(str)
	if strings.HasPrefix(str, "[") {
		return s.UnmarshalJSON([]byte(str))
	}

	var items []Text
	for _, part := range strings.Split(str, ",") {
		items = append(items, Text(part))
	}
	*s = compact(items)
	return nil
}

// IntMap decodes {"S": "2", "M": 3} size breakdowns.
type IntMap map[string]int

func (m *IntMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` || string(data) == "[]" {
		*m = nil
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		return m.UnmarshalJSON([]byte(inner))
	}
	var raw map[string]Int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		out[k] = int(v)
	}
	*m = out
	return nil
}

func compact(items []Text) []string {
	var out []string
	for _, item := range items {
		if v := strings.TrimSpace(string(item)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func scalarString(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return "", true, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		return strings.TrimSpace(s), false, nil
	}
	if data[0] == '{' || data[0] == '[' {
		return "", false, fmt.Errorf("expected scalar, got %s", truncate(string(data), 32))
	}
	return string(data), false, nil
}
