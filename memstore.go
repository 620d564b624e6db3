package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gogf/gf/v2/util/gconv"
)

// MemStore is a Store over in-memory rows, used in tests and by embedding
// callers that already hold their records. Insertion order is stable, so
// query results are deterministic for a fixed snapshot.
type MemStore struct {
	mu     sync.RWMutex
	models map[string]*Model
	rows   map[string][]Row
	nextId int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		models: map[string]*Model{},
		rows:   map[string][]Row{},
	}
}

func (s *MemStore) AddModel(m *Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.Name] = m
}

// Insert stores rows under a model, assigning a sequential id to rows
// without one. Returns the ids in insertion order.
func (s *MemStore) Insert(model string, rows ...Row) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		copied := Row{}
		for k, v := range row {
			copied[k] = v
		}
		if isNull(copied["id"]) {
			s.nextId++
			copied["id"] = strconv.FormatInt(s.nextId, 10)
		}
		s.rows[model] = append(s.rows[model], copied)
		ids = append(ids, gconv.String(copied["id"]))
	}
	return ids
}

func (s *MemStore) ListFields(ctx context.Context, model string) ([]*FieldMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[model]
	if !ok {
		return nil, fmt.Errorf("not found model %s", model)
	}
	return m.Fields, nil
}

func (s *MemStore) Query(ctx context.Context, model string, conditions []Condition, order []SortKey, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.models[model]; !ok {
		return nil, fmt.Errorf("not found model %s", model)
	}

	var matched []Row
	for _, row := range s.rows[model] {
		if matchesAll(row, conditions) {
			matched = append(matched, row)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, key := range order {
			c := compareValues(matched[i][key.Field], matched[j][key.Field])
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	ids := make([]string, 0, len(matched))
	for _, row := range matched {
		ids = append(ids, gconv.String(row["id"]))
	}
	return ids, nil
}

func (s *MemStore) Read(ctx context.Context, model string, ids []string, fields []string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.models[model]; !ok {
		return nil, fmt.Errorf("not found model %s", model)
	}

	byId := map[string]Row{}
	for _, row := range s.rows[model] {
		byId[gconv.String(row["id"])] = row
	}

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		src, ok := byId[id]
		if !ok {
			continue
		}
		row := Row{"id": id}
		for _, name := range fields {
			row[name] = src[name]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func matchesAll(row Row, conditions []Condition) bool {
	for _, cond := range conditions {
		if !matches(row[cond.Field], cond) {
			return false
		}
	}
	return true
}

func matches(value any, cond Condition) bool {
	value = comparableValue(value, cond.Value)
	switch cond.Operator {
	case OpEquals:
		return equalValues(value, cond.Value)
	case OpNotEquals:
		return !equalValues(value, cond.Value)
	case OpGreater:
		return compareValues(value, cond.Value) > 0
	case OpGreaterOrEqual:
		return compareValues(value, cond.Value) >= 0
	case OpLess:
		return compareValues(value, cond.Value) < 0
	case OpLessOrEqual:
		return compareValues(value, cond.Value) <= 0
	case OpContains:
		return strings.Contains(gconv.String(value), gconv.String(cond.Value))
	case OpContainsFold:
		return strings.Contains(strings.ToLower(gconv.String(value)), strings.ToLower(gconv.String(cond.Value)))
	case OpIn:
		for _, item := range gconv.SliceAny(cond.Value) {
			if equalValues(value, item) {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, item := range gconv.SliceAny(cond.Value) {
			if equalValues(value, item) {
				return false
			}
		}
		return true
	case OpUnset:
		return isNull(value)
	default:
		return false
	}
}

// comparableValue unwraps a relation [id, label] pair to its id when the
// condition value is a relation id.
func comparableValue(value, condValue any) any {
	pair, ok := value.([]any)
	if !ok || len(pair) < 2 {
		return value
	}
	if _, isInt := condValue.(int64); isInt {
		return pair[0]
	}
	return pair[1]
}

func equalValues(a, b any) bool {
	switch b.(type) {
	case bool:
		return gconv.Bool(a) == gconv.Bool(b)
	case int, int64, float64:
		return gconv.Float64(a) == gconv.Float64(b)
	case time.Time:
		return gconv.Time(a).Equal(gconv.Time(b))
	default:
		return gconv.String(a) == gconv.String(b)
	}
}

func compareValues(a, b any) int {
	switch {
	case isNumeric(a) && isNumeric(b):
		fa, fb := gconv.Float64(a), gconv.Float64(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case isTime(a) || isTime(b):
		ta, tb := gconv.Time(a), gconv.Time(b)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	default:
		return strings.Compare(gconv.String(a), gconv.String(b))
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func isTime(v any) bool {
	_, ok := v.(time.Time)
	return ok
}
