package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/google/uuid"
)

// Settings document, the serialized form of a report definition. Exporting
// and re-importing reconstructs an equivalent definition, only the id is
// regenerated.

type settingsDocument struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Model       string           `json:"model"`
	Fields      []fieldSettings  `json:"fields"`
	Filters     []filterSettings `json:"filters"`
	Groups      []groupSettings  `json:"groups"`
	Sorts       []sortSettings   `json:"sorts"`
}

type fieldSettings struct {
	Name               string `json:"name"`
	Label              string `json:"label,omitempty"`
	Type               string `json:"type"`
	Visible            *bool  `json:"visible,omitempty"`
	Format             string `json:"format,omitempty"`
	Aggregation        string `json:"aggregation,omitempty"`
	Width              int    `json:"width,omitempty"`
	DecimalPlaces      *int   `json:"decimal_places,omitempty"`
	ThousandsSeparator bool   `json:"thousands_separator,omitempty"`
}

type filterSettings struct {
	Name      string   `json:"name,omitempty"`
	Field     string   `json:"field"`
	Operator  string   `json:"operator"`
	Value     string   `json:"value,omitempty"`
	Values    []string `json:"values,omitempty"`
	ValueType string   `json:"value_type,omitempty"`
	Active    *bool    `json:"active,omitempty"`
	Required  bool     `json:"required,omitempty"`
}

type groupSettings struct {
	Field      string `json:"field"`
	Label      string `json:"label,omitempty"`
	ShowTotals bool   `json:"show_totals"`
}

type sortSettings struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// ExportSettings serializes a definition to the settings document. Lists
// are written in sequence order, import reassigns sequences from document
// order, so a round trip preserves column and filter order.
func ExportSettings(def *ReportDefinition) ([]byte, error) {
	doc := settingsDocument{
		Name:        def.Name,
		Description: def.Description,
		Model:       def.Model,
		Fields:      []fieldSettings{},
		Filters:     []filterSettings{},
		Groups:      []groupSettings{},
		Sorts:       []sortSettings{},
	}
	fields := append([]*FieldSpec(nil), def.Fields...)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Sequence < fields[j].Sequence
	})
	sorts := append([]*SortSpec(nil), def.Sorts...)
	sort.SliceStable(sorts, func(i, j int) bool {
		return sorts[i].Sequence < sorts[j].Sequence
	})
	for _, f := range fields {
		visible := f.Visible
		decimals := f.DecimalPlaces
		doc.Fields = append(doc.Fields, fieldSettings{
			Name:               f.Name,
			Label:              f.Label,
			Type:               f.Type.String(),
			Visible:            &visible,
			Format:             f.Type.String(),
			Aggregation:        string(f.Aggregation),
			Width:              f.Width,
			DecimalPlaces:      &decimals,
			ThousandsSeparator: f.ThousandsSeparator,
		})
	}
	for _, f := range def.sortedFilters() {
		active := f.Active
		doc.Filters = append(doc.Filters, filterSettings{
			Name:      f.Name,
			Field:     f.Field,
			Operator:  string(f.Operator),
			Value:     f.Value,
			Values:    f.Values,
			ValueType: string(f.Source),
			Active:    &active,
			Required:  f.Required,
		})
	}
	for _, g := range def.sortedGroups() {
		doc.Groups = append(doc.Groups, groupSettings{
			Field:      g.Field,
			Label:      g.Label,
			ShowTotals: g.ShowTotals,
		})
	}
	for _, s := range sorts {
		doc.Sorts = append(doc.Sorts, sortSettings{
			Field:     s.Field,
			Direction: string(s.Direction),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ImportSettings reconstructs a definition from a settings document,
// validating the structure and the referenced model and fields against the
// store schema. Sequences are reassigned 1..n per list.
func (e *Engine) ImportSettings(ctx context.Context, data []byte) (*ReportDefinition, error) {
	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, gerror.WrapCode(CodeConfiguration, err, "parse settings")
	}
	if err := e.validateSettings(ctx, &doc); err != nil {
		return nil, err
	}

	def := &ReportDefinition{
		ID:          uuid.NewString(),
		Name:        doc.Name,
		Description: doc.Description,
		Model:       doc.Model,
	}

	for i, f := range doc.Fields {
		visible := true
		if f.Visible != nil {
			visible = *f.Visible
		}
		typeName := f.Format
		if typeName == "" {
			typeName = f.Type
		}
		aggregation := AggregationKind(f.Aggregation)
		if aggregation == "" {
			aggregation = AggNone
		}
		decimals := 2
		if f.DecimalPlaces != nil {
			decimals = *f.DecimalPlaces
		}
		def.Fields = append(def.Fields, &FieldSpec{
			Sequence:           i + 1,
			Name:               f.Name,
			Label:              f.Label,
			Type:               ParseFieldType(typeName),
			Visible:            visible,
			Aggregation:        aggregation,
			Width:              f.Width,
			DecimalPlaces:      decimals,
			ThousandsSeparator: f.ThousandsSeparator,
		})
	}

	for i, f := range doc.Filters {
		active := true
		if f.Active != nil {
			active = *f.Active
		}
		source := ValueSource(f.ValueType)
		if source == "" {
			source = SourceStatic
		}
		operator := Operator(f.Operator)
		if operator == "" {
			operator = OpEquals
		}
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("Filter %d", i+1)
		}
		filter := &FilterSpec{
			Sequence: i + 1,
			Name:     name,
			Field:    f.Field,
			Operator: operator,
			Value:    f.Value,
			Values:   f.Values,
			Source:   source,
			Active:   active,
			Required: f.Required,
		}
		if meta, ok := e.ResolveField(ctx, doc.Model, f.Field); ok {
			filter.SetType(meta.Type)
		}
		def.Filters = append(def.Filters, filter)
	}

	for i, g := range doc.Groups {
		def.Groups = append(def.Groups, &GroupSpec{
			Sequence:   i + 1,
			Field:      g.Field,
			Label:      g.Label,
			ShowTotals: g.ShowTotals,
		})
	}

	for i, s := range doc.Sorts {
		direction := SortDirection(s.Direction)
		if direction != SortDesc {
			direction = SortAsc
		}
		def.Sorts = append(def.Sorts, &SortSpec{
			Sequence:  i + 1,
			Field:     s.Field,
			Direction: direction,
		})
	}

	return def, nil
}

func (e *Engine) validateSettings(ctx context.Context, doc *settingsDocument) error {
	if doc.Name == "" {
		return gerror.NewCode(CodeConfiguration, "settings: missing name")
	}
	if doc.Model == "" {
		return gerror.NewCode(CodeConfiguration, "settings: missing model")
	}
	if len(doc.Fields) == 0 {
		return gerror.NewCode(CodeConfiguration, "settings: at least one field required")
	}
	m := e.model(ctx, doc.Model)
	if m == nil {
		return gerror.NewCodef(CodeConfiguration, "settings: model %q not found", doc.Model)
	}
	for _, f := range doc.Fields {
		if f.Name == "" {
			return gerror.NewCode(CodeConfiguration, "settings: field without a name")
		}
		if m.FindField(f.Name) == nil {
			return gerror.NewCodef(CodeConfiguration, "settings: field %q not found in model %q", f.Name, doc.Model)
		}
	}
	return nil
}
