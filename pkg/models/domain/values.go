package domain

import (
	"cmp"
	"fmt"
	"reflect"
	"time"
)

// Row is one generated record, positionally aligned to a pump's output shape.
type Row = []any

type valueClass int

const (
	classNil valueClass = iota
	classNumber
	classString
	classTime
	classOther
)

func classify(v any) valueClass {
	switch v.(type) {
	case nil:
		return classNil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return classNumber
	case string, []byte:
		return classString
	case time.Time:
		return classTime
	}
	return classOther
}

// Comparable reports whether a and b belong to the same value class,
// i.e. whether ordering them is meaningful.
func Comparable(a, b any) bool {
	return classify(a) == classify(b)
}

// CompareValues is a total order over row values: nil first, then numbers,
// strings, times and anything else by its printed form.
func CompareValues(a, b any) int {
	ca, cb := classify(a), classify(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	switch ca {
	case classNil:
		return 0
	case classNumber:
		return compareNumbers(a, b)
	case classString:
		return cmp.Compare(asString(a), asString(b))
	case classTime:
		return a.(time.Time).Compare(b.(time.Time))
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func EqualValues(a, b any) bool {
	return Comparable(a, b) && CompareValues(a, b) == 0
}

type timeKey int64

// KeyOf normalizes v into a comparable map key such that
// KeyOf(a) == KeyOf(b) exactly when EqualValues(a, b).
func KeyOf(v any) any {
	switch classify(v) {
	case classNil:
		return nil
	case classNumber:
		if i, ok := asInt64(v); ok {
			return i
		}
		f, _ := asFloat64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case classString:
		return asString(v)
	case classTime:
		return timeKey(v.(time.Time).UnixNano())
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func compareNumbers(a, b any) int {
	ia, aok := asInt64(a)
	ib, bok := asInt64(b)
	if aok && bok {
		return cmp.Compare(ia, ib)
	}
	fa, _ := asFloat64(a)
	fb, _ := asFloat64(b)
	return cmp.Compare(fa, fb)
}

func asInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}

// ToInt64 converts any integer kind that fits into an int64.
func ToInt64(v any) (int64, bool) {
	return asInt64(v)
}
