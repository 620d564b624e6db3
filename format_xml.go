package reports

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"time"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/util/gconv"
)

// xmlFormatter emits the attribute/element tree variant of the structured
// markup document. It carries the same logical content as the JSON variant:
// report attributes, field descriptors and record elements keyed by field
// name, nested under group elements when grouped.
type xmlFormatter struct{}

func (x *xmlFormatter) Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	visible := def.VisibleFields()

	report := xml.StartElement{
		Name: xml.Name{Local: "report"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "name"}, Value: def.Name},
			{Name: xml.Name{Local: "model"}, Value: def.Model},
			{Name: xml.Name{Local: "generated_at"}, Value: time.Now().Format(time.RFC3339)},
		},
	}
	if err := enc.EncodeToken(report); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "encode report element")
	}

	fields := xml.StartElement{Name: xml.Name{Local: "fields"}}
	if err := enc.EncodeToken(fields); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "encode fields element")
	}
	for _, f := range visible {
		field := xml.StartElement{
			Name: xml.Name{Local: "field"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "name"}, Value: f.Name},
				{Name: xml.Name{Local: "label"}, Value: f.DisplayLabel()},
				{Name: xml.Name{Local: "type"}, Value: f.Type.String()},
			},
		}
		if err := enc.EncodeToken(field); err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "encode field element")
		}
		if err := enc.EncodeToken(field.End()); err != nil {
			return nil, gerror.WrapCode(CodeFormat, err, "close field element")
		}
	}
	if err := enc.EncodeToken(fields.End()); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "close fields element")
	}

	data := xml.StartElement{Name: xml.Name{Local: "data"}}
	if err := enc.EncodeToken(data); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "encode data element")
	}
	if !result.Grouped {
		for _, row := range result.Rows {
			if err := encodeRecord(enc, visible, row); err != nil {
				return nil, err
			}
		}
	} else {
		for _, g := range result.Groups {
			group := xml.StartElement{
				Name: xml.Name{Local: "group"},
				Attr: []xml.Attr{
					{Name: xml.Name{Local: "name"}, Value: g.Label},
					{Name: xml.Name{Local: "count"}, Value: strconv.Itoa(g.Count)},
				},
			}
			if err := enc.EncodeToken(group); err != nil {
				return nil, gerror.WrapCode(CodeFormat, err, "encode group element")
			}
			for _, row := range g.Rows {
				if err := encodeRecord(enc, visible, row); err != nil {
					return nil, err
				}
			}
			if err := enc.EncodeToken(group.End()); err != nil {
				return nil, gerror.WrapCode(CodeFormat, err, "close group element")
			}
		}
	}
	if err := enc.EncodeToken(data.End()); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "close data element")
	}

	if err := enc.EncodeToken(report.End()); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "close report element")
	}
	if err := enc.Flush(); err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "flush encoder")
	}

	return &ExportFile{
		Filename: exportFilename(def, FormatXML),
		MimeType: mimeTypes[FormatXML],
		Content:  buf.Bytes(),
	}, nil
}

func encodeRecord(enc *xml.Encoder, visible []*FieldSpec, row Row) error {
	record := xml.StartElement{Name: xml.Name{Local: "record"}}
	if err := enc.EncodeToken(record); err != nil {
		return gerror.WrapCode(CodeFormat, err, "encode record element")
	}
	for _, f := range visible {
		el := xml.StartElement{Name: xml.Name{Local: f.Name}}
		if err := enc.EncodeToken(el); err != nil {
			return gerror.WrapCode(CodeFormat, err, "encode value element")
		}
		if err := enc.EncodeToken(xml.CharData(gconv.String(row[f.Name]))); err != nil {
			return gerror.WrapCode(CodeFormat, err, "encode value text")
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return gerror.WrapCode(CodeFormat, err, "close value element")
		}
	}
	if err := enc.EncodeToken(record.End()); err != nil {
		return gerror.WrapCode(CodeFormat, err, "close record element")
	}
	return nil
}
