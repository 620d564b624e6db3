package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/gogf/gf/v2/errors/gerror"
)

const (
	// hard cap on emitted data rows, a safeguard against unbounded page
	// counts
	pdfMaxRows = 50
	// cell text longer than this is ellipsis-truncated before layout
	pdfMaxCellLen = 50
)

// pdfFormatter builds a single bordered table: header plus at most
// pdfMaxRows data rows. Grouped results are flattened, banners become
// ordinary rows since the paginated layout has no merged cells.
type pdfFormatter struct {
	engine *Engine
	opts   ExportOptions
}

func (p *pdfFormatter) Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error) {
	orientation := "P"
	if p.opts.Landscape {
		orientation = "L"
	}
	pageSize := p.opts.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}

	pdf := fpdf.New(orientation, "mm", pageSize, "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	visible := def.VisibleFields()
	if len(visible) == 0 {
		return nil, gerror.NewCode(CodeConfiguration, "no visible fields")
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(visible))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for _, f := range visible {
		pdf.CellFormat(colWidth, 8, tr(truncate(f.DisplayLabel(), pdfMaxCellLen)), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)

	emitted := 0
	writeRow := func(cells []string) {
		for _, cell := range cells {
			pdf.CellFormat(colWidth, 6, tr(cell), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		emitted++
	}

	for _, cells := range p.tableRows(def, result, visible) {
		if emitted >= pdfMaxRows {
			break
		}
		writeRow(cells)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "render document")
	}
	return &ExportFile{
		Filename: exportFilename(def, FormatPDF),
		MimeType: mimeTypes[FormatPDF],
		Content:  buf.Bytes(),
	}, nil
}

// tableRows flattens the result into table cells, truncating every cell
// before layout.
func (p *pdfFormatter) tableRows(def *ReportDefinition, result *ExecutionResult, visible []*FieldSpec) [][]string {
	dataRow := func(data Row) []string {
		cells := make([]string, 0, len(visible))
		for _, f := range visible {
			cells = append(cells, truncate(p.engine.RenderValue(data[f.Name], f), pdfMaxCellLen))
		}
		return cells
	}

	var rows [][]string
	if !result.Grouped {
		for _, data := range result.Rows {
			rows = append(rows, dataRow(data))
		}
		return rows
	}
	for _, group := range result.Groups {
		banner := make([]string, len(visible))
		banner[0] = truncate(fmt.Sprintf("%s (%d records)", group.Label, group.Count), pdfMaxCellLen)
		rows = append(rows, banner)
		for _, data := range group.Rows {
			rows = append(rows, dataRow(data))
		}
	}
	return rows
}
