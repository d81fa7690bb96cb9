package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumeric parses a numeric string as published by the classification task.
// A value wrapped in parentheses denotes a negative number, so "(3.5)" is -3.5.
// Non-finite values are rejected.
func ParseNumeric(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty numeric value")
	}

	negative := false
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		negative = true
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid numeric value %q", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}

// Number is a float64 that decodes from a JSON number or a numeric string.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("missing numeric value")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseNumeric(s)
		if err != nil {
			return err
		}
		*n = Number(v)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s", data)
	}
	*n = Number(v)
	return nil
}

// Float64 returns the plain value.
func (n Number) Float64() float64 {
	return float64(n)
}
