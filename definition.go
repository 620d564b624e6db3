package reports

import (
	"sort"

	"github.com/gogf/gf/v2/errors/gerror"
)

// ReportDefinition is the declarative description of a report: a target
// model plus ordered field, filter, group and sort specs. The engine never
// mutates a definition, execution statistics live on the ExecutionResult
// and are persisted by the Registry.
type ReportDefinition struct {
	ID          string
	Name        string
	Description string
	Model       string
	Fields      []*FieldSpec
	Filters     []*FilterSpec
	Groups      []*GroupSpec
	Sorts       []*SortSpec
}

type FieldSpec struct {
	Sequence           int
	Name               string
	Label              string
	Type               FieldType
	Visible            bool
	Aggregation        AggregationKind
	Width              int
	DecimalPlaces      int
	ThousandsSeparator bool
}

// DisplayLabel falls back to the field name when no label is set.
func (f *FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

type FilterSpec struct {
	Sequence int
	Name     string
	Field    string
	Type     FieldType
	hasType  bool
	Operator Operator
	Value    string
	Values   []string
	Source   ValueSource
	Active   bool
	Required bool
}

// SetType pins the filter's field type so the domain builder skips metadata
// resolution for it. Imported settings use this.
func (f *FilterSpec) SetType(t FieldType) {
	f.Type = t
	f.hasType = true
}

type GroupSpec struct {
	Sequence   int
	Field      string
	Label      string
	ShowTotals bool
}

type SortSpec struct {
	Sequence  int
	Field     string
	Direction SortDirection
}

// VisibleFields returns the visible field specs in column order: sequence
// ascending, ties kept in insertion order.
func (d *ReportDefinition) VisibleFields() []*FieldSpec {
	var visible []*FieldSpec
	for _, f := range d.Fields {
		if f.Visible {
			visible = append(visible, f)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Sequence < visible[j].Sequence
	})
	return visible
}

func (d *ReportDefinition) sortedFilters() []*FilterSpec {
	filters := append([]*FilterSpec(nil), d.Filters...)
	sort.SliceStable(filters, func(i, j int) bool {
		return filters[i].Sequence < filters[j].Sequence
	})
	return filters
}

func (d *ReportDefinition) sortedGroups() []*GroupSpec {
	groups := append([]*GroupSpec(nil), d.Groups...)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Sequence < groups[j].Sequence
	})
	return groups
}

// Validate checks the definition invariants: a target model, at least one
// visible field and no duplicate field names.
func (d *ReportDefinition) Validate() error {
	if d.Model == "" {
		return gerror.NewCode(CodeConfiguration, "no model")
	}
	if len(d.VisibleFields()) == 0 {
		return gerror.NewCode(CodeConfiguration, "no visible fields")
	}
	seen := map[string]bool{}
	for _, f := range d.Fields {
		if seen[f.Name] {
			return gerror.NewCodef(CodeConfiguration, "field %q added twice", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
