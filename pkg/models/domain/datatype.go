package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DataType is the closed set of column types a field or parameter may carry.
// New types are added here and nowhere else.
type DataType string

const (
	TypeInteger DataType = "integer"
	TypeDate    DataType = "date"
	TypeTime    DataType = "time"
	TypeString  DataType = "string"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var knownDataTypes = []DataType{TypeInteger, TypeDate, TypeTime, TypeString}

// DataTypes returns the supported data types in declaration order.
func DataTypes() []DataType {
	return append([]DataType(nil), knownDataTypes...)
}

func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, ":"))))
	if !dt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDataType, s)
	}
	return dt, nil
}

func (dt DataType) Valid() bool {
	for _, known := range knownDataTypes {
		if dt == known {
			return true
		}
	}
	return false
}

func (dt DataType) String() string {
	return string(dt)
}

// Accepts reports whether v already has the Go representation of dt.
// Integers accept every integer kind, dates and times accept time.Time.
func (dt DataType) Accepts(v any) bool {
	switch dt {
	case TypeInteger:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
	case TypeDate, TypeTime:
		_, ok := v.(time.Time)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	}
	return false
}

// Check returns ErrTypeMismatch when v is not a value of dt.
func (dt DataType) Check(v any) error {
	if !dt.Accepts(v) {
		return fmt.Errorf("%w: %v (%T) is not %s", ErrTypeMismatch, v, v, dt)
	}
	return nil
}

// Parse converts textual input (flags, query strings) into a value of dt.
func (dt DataType) Parse(raw string) (any, error) {
	switch dt {
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, raw)
		}
		return n, nil
	case TypeDate:
		t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date (want %s)", ErrTypeMismatch, raw, DateLayout)
		}
		return t, nil
	case TypeTime:
		s := strings.TrimSpace(raw)
		for _, layout := range []string{TimeLayout, "15:04"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a time of day (want %s)", ErrTypeMismatch, raw, TimeLayout)
	case TypeString:
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDataType, string(dt))
}

// maxExactFloatInt is the largest integer a float64 holds exactly, and with
// it every smaller one.
const maxExactFloatInt = 1<<53 - 1

// Coerce is Parse for loosely typed surface input: strings are parsed,
// integral JSON numbers within ±(2^53-1) become int64 and values already of dt pass through.
func (dt DataType) Coerce(v any) (any, error) {
	if dt.Accepts(v) {
		return v, nil
	}
	switch x := v.(type) {
	case string:
		return dt.Parse(x)
	case float64:
		if dt == TypeInteger && x == math.Trunc(x) && math.Abs(x) <= maxExactFloatInt {
			return int64(x), nil
		}
	}
	return nil, dt.Check(v)
}

// Format renders a value of dt the way Parse reads it back.
func (dt DataType) Format(v any) string {
	t, ok := v.(time.Time)
	switch {
	case ok && dt == TypeDate:
		return t.Format(DateLayout)
	case ok && dt == TypeTime:
		return t.Format(TimeLayout)
	case v == nil:
		return ""
	}
	return fmt.Sprint(v)
}

// TypeOf infers the data type of a value. A time.Time on year zero, as
// produced by parsing a time of day, is a time; any other time.Time is a date.
func TypeOf(v any) (DataType, bool) {
	for _, dt := range []DataType{TypeInteger, TypeString} {
		if dt.Accepts(v) {
			return dt, true
		}
	}
	if t, ok := v.(time.Time); ok {
		if t.Year() == 0 {
			return TypeTime, true
		}
		return TypeDate, true
	}
	return "", false
}
