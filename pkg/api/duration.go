package api

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Duration is a flexible duration value accepted by step configuration
// and the sleep methods. It may be:
//
//   - a time.Duration, taken as-is;
//   - any integer or float value, interpreted as milliseconds;
//   - a string of the form "<n> <unit>", where unit is one of
//     second(s), minute(s), hour(s), day(s): "5 seconds", "1 minute".
//
// The string grammar is deliberately strict; callers needing
// sub-second or fractional durations pass a number or time.Duration.
type Duration any

// ErrInvalidDuration is returned by ParseDuration for values that do
// not match any accepted form.
var ErrInvalidDuration = errors.New("invalid duration")

var durationPattern = regexp.MustCompile(`^(\d+)\s+(second|seconds|minute|minutes|hour|hours|day|days)$`)

var durationUnits = map[string]time.Duration{
	"second":  time.Second,
	"seconds": time.Second,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

// ParseDuration converts a Duration value into a time.Duration.
//
// Malformed values are a programmer error: the result wraps
// ErrInvalidDuration and is never retried by the engine.
func ParseDuration(d Duration) (time.Duration, error) {
	switch v := d.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int32:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case uint:
		return time.Duration(v) * time.Millisecond, nil
	case uint32:
		return time.Duration(v) * time.Millisecond, nil
	case uint64:
		return time.Duration(v) * time.Millisecond, nil
	case float32:
		return time.Duration(float64(v) * float64(time.Millisecond)), nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		m := durationPattern.FindStringSubmatch(v)
		if m == nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, v)
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, v)
		}
		return time.Duration(n) * durationUnits[m[2]], nil
	case nil:
		return 0, fmt.Errorf("%w: <nil>", ErrInvalidDuration)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidDuration, d)
	}
}
