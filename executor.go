package reports

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/container/gmap"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/sirupsen/logrus"
)

// Execute runs a report definition: build the domain, query the store for
// matching ids, project the visible fields and optionally group. limit <= 0
// means unbounded, scheduled callers are expected to pass a sane bound.
//
// The returned result carries the execution statistics, the definition
// itself is never mutated. On failure no partial result is returned.
func (e *Engine) Execute(ctx context.Context, def *ReportDefinition, runtime []Condition, limit int) (*ExecutionResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if e.model(ctx, def.Model) == nil {
		return nil, gerror.NewCodef(CodeConfiguration, "model %q not found", def.Model)
	}

	start := time.Now()

	domain := e.BuildDomain(ctx, def, runtime)
	order := BuildOrder(def.Sorts)

	ids, err := e.store.Query(ctx, def.Model, domain, order, limit)
	if err != nil {
		return nil, gerror.WrapCodef(CodeQuery, err, "report %q query failed", def.Name)
	}

	visible := def.VisibleFields()
	fieldNames := make([]string, 0, len(visible))
	for _, f := range visible {
		fieldNames = append(fieldNames, f.Name)
	}

	var rows []Row
	if len(ids) > 0 {
		raw, err := e.store.Read(ctx, def.Model, ids, fieldNames)
		if err != nil {
			return nil, gerror.WrapCodef(CodeQuery, err, "report %q read failed", def.Name)
		}
		rows = projectRows(raw, visible)
	}

	result := &ExecutionResult{Rows: rows}
	if groups := def.sortedGroups(); len(groups) > 0 {
		// only the first group spec is honored, single-level grouping
		result.Groups = e.groupRows(rows, groups[0].Field)
		result.Grouped = true
		result.Rows = nil
	}

	result.Stats = ExecutionStats{
		ExecutedAt: gtime.Now(),
		RowCount:   result.RowCount(),
		Duration:   time.Since(start),
	}

	e.log.WithFields(logrus.Fields{
		"report":   def.Name,
		"rows":     result.Stats.RowCount,
		"duration": result.Stats.Duration,
	}).Info("report executed")

	return result, nil
}

// projectRows keeps only the visible fields and normalizes relation values
// exactly once: a compound [id, label] pair is replaced by its label so no
// formatter ever sees the raw pair.
func projectRows(raw []Row, visible []*FieldSpec) []Row {
	rows := make([]Row, 0, len(raw))
	for _, src := range raw {
		row := Row{}
		for _, f := range visible {
			row[f.Name] = normalizeValue(src[f.Name])
		}
		rows = append(rows, row)
	}
	return rows
}

// normalizeValue collapses relation pairs to their label form.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case []any:
		if len(n) >= 2 {
			return n[1]
		}
		return v
	case [2]any:
		return n[1]
	default:
		return v
	}
}

// groupRows partitions rows by the group field's projected value, groups
// appear in first-seen order. Rows without a usable key fall into the
// unclassified group.
func (e *Engine) groupRows(rows []Row, field string) []*RowGroup {
	grouped := gmap.NewListMap()
	for _, row := range rows {
		key := e.unclassifiedLabel
		if v, ok := row[field]; ok && !isNull(v) {
			key = gconv.String(v)
		}
		var group *RowGroup
		if v := grouped.Get(key); v != nil {
			group = v.(*RowGroup)
		} else {
			group = &RowGroup{Label: key}
			grouped.Set(key, group)
		}
		group.Rows = append(group.Rows, row)
		group.Count++
	}

	var result []*RowGroup
	grouped.Iterator(func(_, v any) bool {
		result = append(result, v.(*RowGroup))
		return true
	})
	return result
}
