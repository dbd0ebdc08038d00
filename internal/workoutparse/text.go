package workoutparse

import "github.com/spf13/cast"

// text returns v when it is a non-empty string or a number.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return cast.ToString(x)
	}
	return ""
}
