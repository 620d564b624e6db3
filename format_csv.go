package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gogf/gf/v2/errors/gerror"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvFormatter writes delimited text with a configurable delimiter and
// encoding. Grouped results emit a synthetic "GROUP: label (count)" row
// before each group's rows and a blank row after.
type csvFormatter struct {
	engine *Engine
	opts   ExportOptions
}

func (c *csvFormatter) Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if c.opts.Delimiter != 0 {
		w.Comma = c.opts.Delimiter
	}

	visible := def.VisibleFields()
	width := len(visible)

	if c.opts.IncludeHeaders {
		headers := make([]string, 0, width)
		for _, f := range visible {
			headers = append(headers, f.DisplayLabel())
		}
		if err := w.Write(headers); err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "write headers")
		}
	}

	writeRow := func(data Row) error {
		record := make([]string, 0, width)
		for _, f := range visible {
			record = append(record, c.engine.RenderValue(data[f.Name], f))
		}
		return w.Write(record)
	}

	if !result.Grouped {
		for _, data := range result.Rows {
			if err := writeRow(data); err != nil {
				return nil, gerror.WrapCode(CodeFormat, err, "write row")
			}
		}
	} else {
		for _, group := range result.Groups {
			banner := make([]string, width)
			banner[0] = fmt.Sprintf("GROUP: %s (%d)", group.Label, group.Count)
			if err := w.Write(banner); err != nil {
				return nil, gerror.WrapCode(CodeFormat, err, "write group banner")
			}
			for _, data := range group.Rows {
				if err := writeRow(data); err != nil {
					return nil, gerror.WrapCode(CodeFormat, err, "write row")
				}
			}
			if err := w.Write(make([]string, width)); err != nil {
				return nil, gerror.WrapCode(CodeFormat, err, "write separator")
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "flush")
	}

	content, err := encodeText(buf.Bytes(), c.opts.Encoding)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename: exportFilename(def, FormatCSV),
		MimeType: mimeTypes[FormatCSV],
		Content:  content,
	}, nil
}

func encodeText(content []byte, encoding TextEncoding) ([]byte, error) {
	switch encoding {
	case EncodingUTF8:
		return content, nil
	case EncodingUTF8BOM, "":
		return append(append([]byte(nil), utf8BOM...), content...), nil
	case EncodingCP1251:
		out, err := charmap.Windows1251.NewEncoder().Bytes(content)
		if err != nil {
			return nil, gerror.WrapCodef(CodeFormat, err, "encode %s", encoding)
		}
		return out, nil
	default:
		return nil, gerror.NewCodef(CodeFormat, "unsupported encoding %q", encoding)
	}
}
