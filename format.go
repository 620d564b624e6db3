package reports

import (
	"strconv"
	"time"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/util/gconv"
)

const (
	displayDateLayout     = "02.01.2006"
	displayDateTimeLayout = "02.01.2006 15:04"
)

// RenderValue produces the human-readable form of a projected cell value
// according to the field's declared type and formatting hints. It never
// fails: unparsable input comes back as its plain string form.
func (e *Engine) RenderValue(v any, field *FieldSpec) string {
	if isNull(v) {
		return ""
	}
	switch field.Type {
	case Boolean:
		if gconv.Bool(v) {
			return e.yesLabel
		}
		return e.noLabel
	case Integer, Float:
		return renderNumber(v, field)
	case Currency:
		return renderNumber(v, field) + " " + e.currencySymbol()
	case Date:
		return renderTime(v, dateLayout, displayDateLayout)
	case DateTime:
		return renderTime(v, datetimeLayout, displayDateTimeLayout)
	default:
		return gconv.String(v)
	}
}

func renderNumber(v any, field *FieldSpec) string {
	f, err := strconv.ParseFloat(gconv.String(v), 64)
	if err != nil {
		return gconv.String(v)
	}
	s := strconv.FormatFloat(f, 'f', field.DecimalPlaces, 64)
	if field.ThousandsSeparator {
		s = groupThousands(s)
	}
	return s
}

func renderTime(v any, parseLayout, displayLayout string) string {
	switch n := v.(type) {
	case time.Time:
		return n.Format(displayLayout)
	case *gtime.Time:
		if n == nil {
			return ""
		}
		return n.Format(gtimeLayout(displayLayout))
	case string:
		if len(n) >= len(parseLayout) {
			n = n[:len(parseLayout)]
		}
		t, err := time.Parse(parseLayout, n)
		if err != nil {
			return gconv.String(v)
		}
		return t.Format(displayLayout)
	default:
		return gconv.String(v)
	}
}

// gtimeLayout maps a stdlib layout to the gtime format syntax used for the
// two display layouts.
func gtimeLayout(layout string) string {
	switch layout {
	case displayDateLayout:
		return "d.m.Y"
	case displayDateTimeLayout:
		return "d.m.Y H:i"
	default:
		return "Y-m-d H:i:s"
	}
}
