package reports

import (
	"context"
	"sort"
	"strings"
)

// BuildDomain composes the stored filters and any runtime conditions into a
// flat conjunction. Only active static filters are considered; a filter
// whose value cannot be coerced is logged and skipped, a single bad filter
// must not abort the whole query.
//
// Runtime conditions come from the caller already typed and are appended
// after the stored ones, unvalidated against the schema.
func (e *Engine) BuildDomain(ctx context.Context, def *ReportDefinition, runtime []Condition) []Condition {
	var domain []Condition

	for _, filter := range def.sortedFilters() {
		if !filter.Active || (filter.Source != "" && filter.Source != SourceStatic) {
			continue
		}
		cond, ok := e.buildCondition(ctx, def.Model, filter)
		if !ok {
			continue
		}
		domain = append(domain, cond)
	}

	for _, cond := range runtime {
		if cond.Field == "" || cond.Operator == "" {
			continue
		}
		domain = append(domain, cond)
	}

	return domain
}

func (e *Engine) buildCondition(ctx context.Context, model string, filter *FilterSpec) (Condition, bool) {
	fieldType := e.filterFieldType(ctx, model, filter)

	// unset checks and negations may run without a value
	if filter.Value == "" && len(filter.Values) == 0 &&
		filter.Operator != OpNotEquals && filter.Operator != OpNotIn && filter.Operator != OpUnset {
		return Condition{}, false
	}

	if filter.Operator == OpUnset {
		return Condition{Field: filter.Field, Operator: OpUnset, Value: nil}, true
	}

	if filter.Operator == OpIn || filter.Operator == OpNotIn {
		values := CoerceList(filter.valueList(), fieldType)
		if len(values) == 0 {
			return Condition{}, false
		}
		return Condition{Field: filter.Field, Operator: filter.Operator, Value: values}, true
	}

	value, err := Coerce(filter.Value, fieldType)
	if err != nil {
		e.log.WithField("field", filter.Field).WithError(err).
			Warn("report filter value dropped")
		return Condition{}, false
	}
	if value == nil {
		// relation value that is not an id, silently skipped
		return Condition{}, false
	}
	return Condition{Field: filter.Field, Operator: filter.Operator, Value: value}, true
}

// filterFieldType prefers the type pinned on the filter, then store
// metadata, then falls back to text with no validation.
func (e *Engine) filterFieldType(ctx context.Context, model string, filter *FilterSpec) FieldType {
	if filter.hasType {
		return filter.Type
	}
	if meta, ok := e.ResolveField(ctx, model, filter.Field); ok {
		return meta.Type
	}
	return Text
}

func (f *FilterSpec) valueList() []string {
	if len(f.Values) > 0 {
		return f.Values
	}
	var out []string
	for _, part := range strings.Split(f.Value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildOrder converts the sort specs into an ordered-by clause. An empty
// spec list yields primary key ascending so row order is reproducible
// across runs.
func BuildOrder(sorts []*SortSpec) []SortKey {
	if len(sorts) == 0 {
		return []SortKey{{Field: "id"}}
	}
	sorted := append([]*SortSpec(nil), sorts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	keys := make([]SortKey, 0, len(sorted))
	for _, s := range sorted {
		keys = append(keys, SortKey{Field: s.Field, Desc: s.Direction == SortDesc})
	}
	return keys
}
