package reports

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/google/uuid"
)

// Registry holds report definitions and their last execution statistics.
// Statistics updates are last-writer-wins, concurrent executions of the
// same definition race only on stats, never on results.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*ReportDefinition
	stats       map[string]ExecutionStats
}

func NewRegistry() *Registry {
	return &Registry{
		definitions: map[string]*ReportDefinition{},
		stats:       map[string]ExecutionStats{},
	}
}

// Add registers a definition, assigning an id when empty.
func (r *Registry) Add(def *ReportDefinition) error {
	if def.Name == "" {
		return gerror.NewCode(CodeConfiguration, "definition without a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	r.definitions[def.ID] = def
	return nil
}

func (r *Registry) Get(id string) *ReportDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.definitions[id]
}

func (r *Registry) GetByName(name string) *ReportDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, def := range r.definitions {
		if def.Name == name {
			return def
		}
	}
	return nil
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*ReportDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ReportDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.definitions, id)
	delete(r.stats, id)
}

// Duplicate deep-copies a definition under a "(copy)" name.
func (r *Registry) Duplicate(id string) (*ReportDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.definitions[id]
	if !ok {
		return nil, gerror.NewCodef(CodeConfiguration, "definition %q not found", id)
	}
	copied := &ReportDefinition{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("%s (copy)", src.Name),
		Description: src.Description,
		Model:       src.Model,
	}
	for _, f := range src.Fields {
		dup := *f
		copied.Fields = append(copied.Fields, &dup)
	}
	for _, f := range src.Filters {
		dup := *f
		dup.Values = append([]string(nil), f.Values...)
		copied.Filters = append(copied.Filters, &dup)
	}
	for _, g := range src.Groups {
		dup := *g
		copied.Groups = append(copied.Groups, &dup)
	}
	for _, s := range src.Sorts {
		dup := *s
		copied.Sorts = append(copied.Sorts, &dup)
	}
	r.definitions[copied.ID] = copied
	return copied, nil
}

// RecordStats persists the outcome of one execution.
func (r *Registry) RecordStats(id string, stats ExecutionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[id]; ok {
		r.stats[id] = stats
	}
}

func (r *Registry) Stats(id string) (ExecutionStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats, ok := r.stats[id]
	return stats, ok
}
