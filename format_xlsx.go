package reports

import (
	"fmt"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/xuri/excelize/v2"
)

// xlsxFormatter writes the primary data sheet with a styled header row and
// bordered cells, plus an optional info sheet with report metadata. Grouped
// results get a merged banner row per group and a blank separator row.
type xlsxFormatter struct {
	engine *Engine
	opts   ExportOptions
}

type xlsxStyles struct {
	header int
	cell   int
	number int
	group  int
}

func (x *xlsxFormatter) Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := x.opts.SheetName
	if sheet == "" {
		sheet = truncate(def.Name, 31)
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "rename sheet")
	}

	styles, err := newXlsxStyles(f)
	if err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "create styles")
	}

	visible := def.VisibleFields()
	if err := x.writeHeader(f, sheet, visible, styles); err != nil {
		return nil, err
	}

	lastRow, err := x.writeData(f, sheet, visible, result, styles)
	if err != nil {
		return nil, err
	}

	if x.opts.FreezeHeader {
		err = f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "freeze header")
		}
	}
	if x.opts.AutoFilter && lastRow > 1 {
		end, _ := excelize.CoordinatesToCellName(len(visible), lastRow)
		if err := f.AutoFilter(sheet, "A1:"+end, nil); err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "autofilter")
		}
	}

	if x.opts.IncludeChart {
		if err := x.addChart(f, sheet, visible, result, lastRow); err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "add chart")
		}
	}

	if x.opts.IncludeInfoSheet {
		if err := x.writeInfoSheet(f, def, result, styles); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "write workbook")
	}
	return &ExportFile{
		Filename: exportFilename(def, FormatXLSX),
		MimeType: mimeTypes[FormatXLSX],
		Content:  buf.Bytes(),
	}, nil
}

func newXlsxStyles(f *excelize.File) (*xlsxStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	cell, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	numFmt := "#,##0.00"
	number, err := f.NewStyle(&excelize.Style{
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, err
	}
	group, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E2F3"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return nil, err
	}
	return &xlsxStyles{header: header, cell: cell, number: number, group: group}, nil
}

func (x *xlsxFormatter) writeHeader(f *excelize.File, sheet string, visible []*FieldSpec, styles *xlsxStyles) error {
	for col, field := range visible {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, field.DisplayLabel()); err != nil {
			return gerror.WrapCode(CodeFormat, err, "write header")
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.header); err != nil {
			return gerror.WrapCode(CodeFormat, err, "style header")
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		width := float64(len(field.DisplayLabel()) + 5)
		if width < 15 {
			width = 15
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return gerror.WrapCode(CodeFormat, err, "set column width")
		}
	}
	return nil
}

func (x *xlsxFormatter) writeData(f *excelize.File, sheet string, visible []*FieldSpec, result *ExecutionResult, styles *xlsxStyles) (int, error) {
	row := 2
	if !result.Grouped {
		for _, data := range result.Rows {
			if err := x.writeRow(f, sheet, row, visible, data, styles); err != nil {
				return 0, err
			}
			row++
		}
		return row - 1, nil
	}

	for _, group := range result.Groups {
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(visible), row)
		banner := fmt.Sprintf("%s (%d records)", group.Label, group.Count)
		if err := f.SetCellValue(sheet, start, banner); err != nil {
			return 0, gerror.WrapCode(CodeFormat, err, "write group banner")
		}
		if err := f.MergeCell(sheet, start, end); err != nil {
			return 0, gerror.WrapCode(CodeFormat, err, "merge group banner")
		}
		if err := f.SetCellStyle(sheet, start, end, styles.group); err != nil {
			return 0, gerror.WrapCode(CodeFormat, err, "style group banner")
		}
		row++
		for _, data := range group.Rows {
			if err := x.writeRow(f, sheet, row, visible, data, styles); err != nil {
				return 0, err
			}
			row++
		}
		row++ // blank separator between groups
	}
	return row - 1, nil
}

func (x *xlsxFormatter) writeRow(f *excelize.File, sheet string, row int, visible []*FieldSpec, data Row, styles *xlsxStyles) error {
	for col, field := range visible {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		style := styles.cell
		var value any
		switch field.Type {
		case Integer, Float, Currency:
			// absent values stay empty cells, never a literal zero
			if isNull(data[field.Name]) {
				value = ""
			} else {
				value = gconv.Float64(data[field.Name])
				style = styles.number
			}
		default:
			value = x.engine.RenderValue(data[field.Name], field)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return gerror.WrapCode(CodeFormat, err, "write cell")
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return gerror.WrapCode(CodeFormat, err, "style cell")
		}
	}
	return nil
}

// chart cap, only the leading rows are plotted
const xlsxChartRows = 10

// addChart embeds a column chart over the first numeric column of a flat
// result, categories come from the first column. Grouped results and
// reports without numeric columns get no chart.
func (x *xlsxFormatter) addChart(f *excelize.File, sheet string, visible []*FieldSpec, result *ExecutionResult, lastRow int) error {
	if result.Grouped || len(result.Rows) == 0 {
		return nil
	}
	col, ok := firstNumericColumn(visible)
	if !ok {
		return nil
	}
	rows := len(result.Rows)
	if rows > xlsxChartRows {
		rows = xlsxChartRows
	}
	name, _ := excelize.ColumnNumberToName(col)
	anchor, _ := excelize.CoordinatesToCellName(1, lastRow+2)
	label := visible[col-1].DisplayLabel()
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       label,
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, rows+1),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, name, name, rows+1),
		}},
		Title:  []excelize.RichTextRun{{Text: label}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func firstNumericColumn(visible []*FieldSpec) (int, bool) {
	for i, f := range visible {
		switch f.Type {
		case Integer, Float, Currency:
			return i + 1, true
		}
	}
	return 0, false
}

func (x *xlsxFormatter) writeInfoSheet(f *excelize.File, def *ReportDefinition, result *ExecutionResult, styles *xlsxStyles) error {
	const sheet = "Info"
	if _, err := f.NewSheet(sheet); err != nil {
		return gerror.WrapCode(CodeFormat, err, "create info sheet")
	}
	meta := [][2]any{
		{"Report", def.Name},
		{"Model", def.Model},
		{"Generated at", gtime.Now().Format("d.m.Y H:i")},
		{"Records", result.RowCount()},
		{"Fields", len(def.VisibleFields())},
	}
	for i, kv := range meta {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(sheet, keyCell, kv[0]); err != nil {
			return gerror.WrapCode(CodeFormat, err, "write info key")
		}
		if err := f.SetCellStyle(sheet, keyCell, keyCell, styles.header); err != nil {
			return gerror.WrapCode(CodeFormat, err, "style info key")
		}
		if err := f.SetCellValue(sheet, valCell, kv[1]); err != nil {
			return gerror.WrapCode(CodeFormat, err, "write info value")
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return gerror.WrapCode(CodeFormat, err, "info column width")
	}
	return f.SetColWidth(sheet, "B", "B", 30)
}
