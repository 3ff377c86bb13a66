package util

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// ParseFloat parses a decimal cell at 32-bit precision, which is what the
// feature matrices store.
func ParseFloat[T constraints.Float](s string) (T, error) {
	v, err := strconv.ParseFloat(s, 32)
	return T(v), err
}

// ParseInt parses a decimal cell into a signed integer type.
func ParseInt[T constraints.Signed](s string) (T, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return T(v), err
}
