package reports

import (
	"fmt"
	"strings"
)

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// truncate shortens s to at most max runes, ellipsis included. When max
// leaves no room for the ellipsis the string is cut hard.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// groupThousands inserts comma separators into the integer part of a
// fixed-decimal number string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

var mimeTypes = map[ExportFormat]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv",
	FormatJSON: "application/json",
	FormatXML:  "application/xml",
	FormatPDF:  "application/pdf",
}

func exportFilename(def *ReportDefinition, format ExportFormat) string {
	return fmt.Sprintf("%s.%s", def.Name, format)
}
