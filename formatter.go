package reports

import (
	"github.com/gogf/gf/v2/errors/gerror"
)

// Formatter renders an ExecutionResult into one file format's bytes. All
// formatters accept both result shapes and hold no state across calls.
type Formatter interface {
	Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error)
}

// ExportOptions carries the per-format tuning knobs, zero value defaults
// match DefaultExportOptions.
type ExportOptions struct {
	// spreadsheet
	SheetName        string
	FreezeHeader     bool
	AutoFilter       bool
	IncludeInfoSheet bool
	IncludeChart     bool
	// delimited text
	Delimiter      rune
	Encoding       TextEncoding
	IncludeHeaders bool
	// paginated document
	Landscape bool
	PageSize  string
}

type TextEncoding string

const (
	EncodingUTF8    TextEncoding = "utf-8"
	EncodingUTF8BOM TextEncoding = "utf-8-sig"
	EncodingCP1251  TextEncoding = "cp1251"
)

func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		FreezeHeader:     true,
		AutoFilter:       true,
		IncludeInfoSheet: true,
		IncludeChart:     true,
		Delimiter:        ';',
		Encoding:         EncodingUTF8BOM,
		IncludeHeaders:   true,
		PageSize:         "A4",
	}
}

// Formatter selects the formatter for an export format. Unrecognized
// formats are a configuration error, never a silent fallback.
func (e *Engine) Formatter(format ExportFormat, opts ExportOptions) (Formatter, error) {
	switch format {
	case FormatXLSX:
		return &xlsxFormatter{engine: e, opts: opts}, nil
	case FormatCSV:
		return &csvFormatter{engine: e, opts: opts}, nil
	case FormatJSON:
		return &jsonFormatter{}, nil
	case FormatXML:
		return &xmlFormatter{}, nil
	case FormatPDF:
		return &pdfFormatter{engine: e, opts: opts}, nil
	default:
		return nil, gerror.NewCodef(CodeConfiguration, "unsupported export format %q", format)
	}
}

// Export executes the selected formatter against an already computed
// result. A format failure leaves the result reusable for other formats.
func (e *Engine) Export(def *ReportDefinition, result *ExecutionResult, format ExportFormat, opts ExportOptions) (*ExportFile, error) {
	formatter, err := e.Formatter(format, opts)
	if err != nil {
		return nil, err
	}
	return formatter.Format(def, result)
}
