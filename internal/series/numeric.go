package series

import (
	"math"
	"strconv"
	"strings"
)

// Numeric returns the named column as numbers, one per row. Missing, NaN,
// infinite and non-numeric cells read as 0; an absent column reads as all
// zeros. It never fails.
func Numeric(t *Table, name string) []float64 {
	out := make([]float64, t.Len())
	cells := t.Cells(name)
	for i := range out {
		if i < len(cells) {
			out[i] = toNumber(cells[i])
		}
	}
	return out
}

func toNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Max returns the largest value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
