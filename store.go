package reports

import (
	"context"
)

// FieldMeta describes one field of a model as the store knows it.
type FieldMeta struct {
	Name      string
	Label     string
	Type      FieldType
	Relation  string
	Selection []string
	Required  bool
}

// Model is a named collection of fields. LabelField names the field whose
// value stands in for a record when a relation to this model is displayed,
// defaults to "name".
type Model struct {
	Name       string
	Label      string
	LabelField string
	Fields     []*FieldMeta
}

func (m *Model) FindField(name string) *FieldMeta {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (m *Model) labelField() string {
	if m.LabelField != "" {
		return m.LabelField
	}
	return "name"
}

// Store is the engine's only view of the underlying record store. The
// engine never mutates the store.
//
// Query returns matching record identifiers in order, limit <= 0 means
// unbounded. Read returns one row-mapping per identifier, in the same
// order; relation fields may carry a compound [id, label] pair which the
// executor normalizes to the label form.
type Store interface {
	ListFields(ctx context.Context, model string) ([]*FieldMeta, error)
	Query(ctx context.Context, model string, conditions []Condition, order []SortKey, limit int) ([]string, error)
	Read(ctx context.Context, model string, ids []string, fields []string) ([]Row, error)
}
