package dbobj

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gosexy/to"
)

// Format is the printf-style binding hint of a column.
type Format string

const (
	FormatInt    Format = "%d"
	FormatString Format = "%s"
	FormatFloat  Format = "%f"
)

// ParseFormat accepts "%d", "d", "int" and the like.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "%")) {
	case "d", "int", "integer":
		return FormatInt, nil
	case "s", "str", "string", "":
		return FormatString, nil
	case "f", "float", "real":
		return FormatFloat, nil
	}

	return "", fmt.Errorf("unknown column format %q", s)
}

// Coerce converts v to the Go type bound for f. nil and nil pointers stay nil.
// Strings bound as numbers use their leading number, so "12abc" is 12.
func (f Format) Coerce(v any) any {
	if isNilPointer(v) {
		return nil
	}

	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			v = dv
		}
	}

	if v == nil {
		return nil
	}

	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch f {
	case FormatInt:
		if s, ok := v.(string); ok {
			n, _ := strconv.ParseInt(numericPrefix(s, false), 10, 64)
			return n
		}
		return to.Int64(v)
	case FormatFloat:
		if s, ok := v.(string); ok {
			n, _ := strconv.ParseFloat(numericPrefix(s, true), 64)
			return n
		}
		return to.Float64(v)
	default:
		return to.String(v)
	}
}

// isNilPointer reports a typed nil pointer, such as a nil *sql.NullInt64
// whose value-receiver Value method would panic.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// numericPrefix returns the leading signed number of s after blanks, or ""
// when s does not start with one.
func numericPrefix(s string, fraction bool) string {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	i = skipDigits(s, i)
	intDigits := i - start

	if fraction {
		if i < len(s) && s[i] == '.' {
			if j := skipDigits(s, i+1); j > i+1 || intDigits > 0 {
				i = j
			}
		}
		if i > start && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
			j := i + 1
			if j < len(s) && (s[j] == '-' || s[j] == '+') {
				j++
			}
			if k := skipDigits(s, j); k > j {
				i = k
			}
		}
	}

	if i == start || (i == start+1 && s[start] == '.') {
		return ""
	}

	return strings.TrimPrefix(s[:i], "+")
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func (f Format) String() string {
	return string(f)
}
