package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a provider value as the string stored in the index.
// nil yields nil (missing). Integers render in decimal, floats in their
// shortest form, booleans as true/false and lists as comma-separated values.
func FormatValue(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := formatScalar(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func formatScalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return formatFloat(float64(x)), nil
	case float64:
		return formatFloat(x), nil
	case json.Number:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				continue
			}
			s, err := formatScalar(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case []string:
		return strings.Join(x, ", "), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

// formatFloat prints integral floats without a fractional part, so a JSON
// number 3 indexes as "3" rather than "3.0".
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, uint64, float32, float64, json.Number:
		return true
	}
	return false
}
