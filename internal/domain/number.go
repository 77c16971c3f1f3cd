package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a monetary or quantity value that never fails to decode.
// Numbers, numeric strings and null are accepted; anything that does not
// parse cleanly becomes 0.
type Number float64

// Float returns the value as float64 with NaN and infinities mapped to 0.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// MarshalJSON always writes a finite number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(n.Float(), 'f', -1, 64)), nil
}

// UnmarshalJSON decodes leniently and never returns an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(ParseNumber(s))
		return nil
	}

	*n = Number(ParseNumber(string(data)))
	return nil
}

// NumberPtr returns a pointer to a Number holding f.
func NumberPtr(f float64) *Number {
	n := Number(f)
	return &n
}

// ParseNumber parses s as a float, returning 0 for empty or malformed input.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return Number(f).Float()
}

// ToNumber coerces an untyped value, typically from decoded JSON, to a float.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case Number:
		return x.Float()
	case *Number:
		if x == nil {
			return 0
		}
		return x.Float()
	case float64:
		return Number(x).Float()
	case float32:
		return Number(x).Float()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		return ParseNumber(string(x))
	case string:
		return ParseNumber(x)
	default:
		return 0
	}
}
