package engine

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Cell renderings shared by every engine.
const (
	NullCell    = "NULL"
	EmptyCell   = "(empty)"
	Placeholder = '@'
)

// Column type characters accepted in a type string.
const (
	TypeText    = 'T'
	TypeInteger = 'I'
	TypeReal    = 'R'
)

// ValidateTypes checks that types is non-empty and uses only 'T', 'I' and
// 'R'.
func ValidateTypes(types string) error {
	if types == "" {
		return fmt.Errorf("%w: missing type string", ErrUnknownType)
	}
	for i := 0; i < len(types); i++ {
		switch types[i] {
		case TypeText, TypeInteger, TypeReal:
		default:
			return fmt.Errorf("%w '%c' in type string", ErrUnknownType, types[i])
		}
	}
	return nil
}

// Render turns a value scanned from a driver into its cell text for a
// column of type typ. Exactly one of three outcomes is produced: NullCell
// for SQL NULL, EmptyCell for an empty rendering, or the rendering with
// every byte outside printable ASCII replaced by Placeholder.
func Render(v any, typ byte) string {
	if isNull(v) {
		return NullCell
	}

	var s string
	switch typ {
	case TypeInteger:
		s = strconv.FormatInt(toInt(v), 10)
	case TypeReal:
		s = strconv.FormatFloat(toFloat(v), 'f', 3, 64)
	default:
		s = toText(v)
	}

	if s == "" {
		return EmptyCell
	}
	return Sanitize(s)
}

// Sanitize replaces every byte outside 0x20..0x7E with Placeholder.
func Sanitize(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] > '~' {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	b := []byte(s)
	for i := range b {
		if b[i] < ' ' || b[i] > '~' {
			b[i] = Placeholder
		}
	}
	return string(b)
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	}
	return false
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	case *big.Int:
		return x.Int64()
	case time.Time:
		return x.Unix()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float())
	}
	return parseInt(fmt.Sprint(v))
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return parseFloat(x)
	case []byte:
		return parseFloat(string(x))
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return parseFloat(fmt.Sprint(v))
}

func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// parseInt reads text the way SQLite coerces it: an integer, else the
// integer part of a float, else 0.
func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
