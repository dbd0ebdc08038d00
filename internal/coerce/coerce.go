// Package coerce reads numbers out of loosely typed JSON values.
package coerce

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

var (
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
)

// Int reads a leading integer from strings ("10 reps" -> 10) and truncates
// other numerics. ok is false when no number can be read.
func Int(v any) (n int, ok bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		m := leadingInt.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0, false
		}
		n, err := strconv.Atoi(m)
		return n, err == nil
	}
	n, err := cast.ToIntE(v)
	return n, err == nil
}

// Float reads a leading decimal from strings ("12.5 lbs" -> 12.5) and
// converts other numerics. ok is false when no number can be read.
func Float(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		m := leadingFloat.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		return f, err == nil
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}
