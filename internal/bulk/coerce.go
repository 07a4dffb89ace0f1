package bulk

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/vvka-141/ddlstore/internal/sqltype"
)

var decimalPattern = regexp.MustCompile(`^([+-]?\d+)\.\d*$`)

// Coerce converts v to the value streamed for a column of type t.
//
// nil, NaN and values printing as "NaN" become nil. Integer-like columns get
// an int64 or nil when v has no integer reading. Other columns pass v through.
func Coerce(v any, t sqltype.Resolved) any {
	if isNaNLike(v) {
		return nil
	}
	if !t.IntegerLike() {
		return v
	}
	n, ok := toInt64(v)
	if !ok {
		return nil
	}
	return n
}

func isNaNLike(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return x == "NaN"
	}
	return fmt.Sprint(v) == "NaN"
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case string:
		return parseIntString(x)
	case []byte:
		return parseIntString(string(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := math.Trunc(rv.Float())
		if math.IsInf(f, 0) || math.IsNaN(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	}
	if st, ok := v.(fmt.Stringer); ok {
		return parseIntString(st.String())
	}
	return 0, false
}

// parseIntString accepts an optionally signed integer, or a decimal whose
// fractional part is dropped.
func parseIntString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if m := decimalPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
