// Package money coerces loosely typed upstream amounts into decimals.
//
// Upstream payloads carry prices as numbers, numeric strings or nothing at
// all. Coerce never fails: anything that is not a finite number becomes zero.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Coerce converts v to a decimal. NaN, ±Inf, nil, booleans, unparsable
// strings and unknown types all yield zero.
func Coerce(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case uint32:
		return decimal.NewFromInt(int64(x))
	case json.Number:
		return fromString(string(x))
	case string:
		return fromString(x)
	default:
		return decimal.Zero
	}
}

// FromJSON decodes a raw JSON value and coerces it. Empty or null input is
// zero.
func FromJSON(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero
	}
	return Coerce(v)
}

// Present reports whether raw carries a JSON value other than null.
func Present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// Sanitize clamps negative amounts to zero.
func Sanitize(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Number renders d as a JSON number rather than the quoted string decimal
// uses by default.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
