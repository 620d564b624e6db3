package reports

import (
	"context"

	"github.com/gogf/gf/v2/container/gmap"
	"github.com/sirupsen/logrus"
)

// Engine executes report definitions against a Store and renders the
// results. It is safe for concurrent use, all per-execution state is local
// to the Execute call.
type Engine struct {
	store Store
	// schema cache, model name -> *Model
	models *gmap.StrAnyMap
	log    *logrus.Logger

	yesLabel          string
	noLabel           string
	unclassifiedLabel string
	currencySymbol    func() string
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		models:            gmap.NewStrAnyMap(true),
		log:               logrus.StandardLogger(),
		yesLabel:          "Yes",
		noLabel:           "No",
		unclassifiedLabel: "Unclassified",
		currencySymbol:    func() string { return "₴" },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// model returns the cached descriptor for name, loading the field list from
// the store on first use. Returns nil for unknown models, never errors.
func (e *Engine) model(ctx context.Context, name string) *Model {
	if name == "" {
		return nil
	}
	if v := e.models.Get(name); v != nil {
		return v.(*Model)
	}
	fields, err := e.store.ListFields(ctx, name)
	if err != nil || fields == nil {
		return nil
	}
	m := &Model{Name: name, Fields: fields}
	e.models.Set(name, m)
	return m
}

// InvalidateModel drops the cached descriptor so the next execution
// re-reads the store schema.
func (e *Engine) InvalidateModel(name string) {
	e.models.Remove(name)
}

// ResolveField looks up field metadata on a model. Unknown models and
// fields report ok=false, callers fall back to text with no validation.
func (e *Engine) ResolveField(ctx context.Context, model, field string) (*FieldMeta, bool) {
	m := e.model(ctx, model)
	if m == nil {
		return nil, false
	}
	meta := m.FindField(field)
	if meta == nil {
		return nil, false
	}
	return meta, true
}

// ModelFields returns the model's fields for definition authoring, sorted
// order is the store's. Empty for unknown models.
func (e *Engine) ModelFields(ctx context.Context, model string) []*FieldMeta {
	m := e.model(ctx, model)
	if m == nil {
		return nil
	}
	return m.Fields
}
