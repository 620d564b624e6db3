package reports

import (
	"encoding/json"
	"time"

	"github.com/gogf/gf/v2/errors/gerror"
)

type jsonFormatter struct{}

type jsonReportInfo struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	GeneratedAt  string `json:"generated_at"`
	TotalRecords int    `json:"total_records"`
}

type jsonFieldDescriptor struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Format string `json:"format"`
}

type jsonGroup struct {
	GroupName  string `json:"group_name"`
	GroupCount int    `json:"group_count"`
	Records    []Row  `json:"records"`
}

type jsonDocument struct {
	ReportInfo jsonReportInfo        `json:"report_info"`
	Fields     []jsonFieldDescriptor `json:"fields"`
	Data       []Row                 `json:"data"`
	Groups     []jsonGroup           `json:"groups,omitempty"`
}

// Format emits the self-describing key-value document: report info, field
// descriptors and the rows verbatim, nested under group descriptors when
// grouped.
func (j *jsonFormatter) Format(def *ReportDefinition, result *ExecutionResult) (*ExportFile, error) {
	doc := jsonDocument{
		ReportInfo: jsonReportInfo{
			Name:         def.Name,
			Model:        def.Model,
			GeneratedAt:  time.Now().Format(time.RFC3339),
			TotalRecords: result.RowCount(),
		},
	}
	for _, f := range def.VisibleFields() {
		doc.Fields = append(doc.Fields, jsonFieldDescriptor{
			Name:   f.Name,
			Label:  f.DisplayLabel(),
			Type:   f.Type.String(),
			Format: f.Type.String(),
		})
	}
	if result.Grouped {
		for _, g := range result.Groups {
			doc.Groups = append(doc.Groups, jsonGroup{
				GroupName:  g.Label,
				GroupCount: g.Count,
				Records:    g.Rows,
			})
		}
	} else {
		doc.Data = result.Rows
		if doc.Data == nil {
			doc.Data = []Row{}
		}
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, gerror.WrapCode(CodeFormat, err, "marshal report")
	}
	return &ExportFile{
		Filename: exportFilename(def, FormatJSON),
		MimeType: mimeTypes[FormatJSON],
		Content:  content,
	}, nil
}
