package reports

import (
	"strconv"
	"strings"
	"time"

	"github.com/gogf/gf/v2/errors/gerror"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// truthy is the accepted lexicon for boolean filter values, matched
// case-insensitively. Everything else is false.
var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"так":  true,
}

// Coerce converts a raw filter value into a typed value matching the
// field's declared type.
//
// Booleans never fail, anything outside the lexicon is false. Relation
// values must be digit strings, anything else yields (nil, nil) and the
// caller drops the condition. Numeric, date and datetime values return a
// CoercionError on a failed parse, the domain builder drops the condition
// and keeps going.
func Coerce(raw string, t FieldType) (any, error) {
	switch t {
	case Boolean:
		return truthy[strings.ToLower(raw)], nil
	case Integer:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, gerror.WrapCodef(CodeCoercion, err, "bad integer value %q", raw)
		}
		return v, nil
	case Float, Currency:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, gerror.WrapCodef(CodeCoercion, err, "bad numeric value %q", raw)
		}
		return v, nil
	case Date:
		v, err := time.Parse(dateLayout, strings.TrimSpace(raw))
		if err != nil {
			return nil, gerror.WrapCodef(CodeCoercion, err, "bad date value %q", raw)
		}
		return v, nil
	case DateTime:
		v, err := time.Parse(datetimeLayout, strings.TrimSpace(raw))
		if err != nil {
			return nil, gerror.WrapCodef(CodeCoercion, err, "bad datetime value %q", raw)
		}
		return v, nil
	case Relation:
		s := strings.TrimSpace(raw)
		if !isDigits(s) {
			return nil, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, nil
		}
		return v, nil
	default:
		return raw, nil
	}
}

// CoerceList coerces each element for in-set operators, dropping elements
// that fail. An empty result means the whole condition is unusable.
func CoerceList(raw []string, t FieldType) []any {
	var out []any
	for _, item := range raw {
		v, err := Coerce(item, t)
		if err != nil || v == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
