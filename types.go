package reports

import (
	"time"

	"github.com/gogf/gf/v2/os/gtime"
)

type Row = map[string]any

type FieldType int

const (
	Text FieldType = iota
	Integer
	Float
	Currency
	Date
	DateTime
	Boolean
	Selection
	Relation
)

var fieldTypeNames = map[FieldType]string{
	Text:      "text",
	Integer:   "integer",
	Float:     "float",
	Currency:  "currency",
	Date:      "date",
	DateTime:  "datetime",
	Boolean:   "boolean",
	Selection: "selection",
	Relation:  "relation",
}

func (t FieldType) String() string {
	if n, ok := fieldTypeNames[t]; ok {
		return n
	}
	return "text"
}

func ParseFieldType(s string) FieldType {
	for t, n := range fieldTypeNames {
		if n == s {
			return t
		}
	}
	// aliases used by imported settings files
	switch s {
	case "char", "string":
		return Text
	case "int":
		return Integer
	case "number":
		return Float
	case "monetary":
		return Currency
	case "many2one":
		return Relation
	case "bool":
		return Boolean
	}
	return Text
}

type Operator string

const (
	OpEquals         Operator = "="
	OpNotEquals      Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpContains       Operator = "like"
	OpContainsFold   Operator = "ilike"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not in"
	OpUnset          Operator = "=?"
)

type ValueSource string

const (
	SourceStatic      ValueSource = "static"
	SourceUserInput   ValueSource = "user_input"
	SourceContext     ValueSource = "context"
	SourceCurrentUser ValueSource = "current_user"
	SourceCurrentDate ValueSource = "current_date"
)

type AggregationKind string

const (
	AggNone  AggregationKind = "none"
	AggSum   AggregationKind = "sum"
	AggAvg   AggregationKind = "avg"
	AggCount AggregationKind = "count"
	AggMin   AggregationKind = "min"
	AggMax   AggregationKind = "max"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatXML  ExportFormat = "xml"
	FormatPDF  ExportFormat = "pdf"
)

// Condition is one element of a query domain. Conditions are combined with
// an implicit logical AND, there is no OR or nesting.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type SortKey struct {
	Field string
	Desc  bool
}

type RowGroup struct {
	Label string
	Count int
	Rows  []Row
}

type ExecutionStats struct {
	ExecutedAt *gtime.Time
	RowCount   int
	Duration   time.Duration
}

// ExecutionResult is the transient output of one execution, either a flat
// row list or a single-level grouped partition. Never persisted.
type ExecutionResult struct {
	Grouped bool
	Rows    []Row
	Groups  []*RowGroup
	Stats   ExecutionStats
}

func (r *ExecutionResult) RowCount() int {
	if !r.Grouped {
		return len(r.Rows)
	}
	total := 0
	for _, g := range r.Groups {
		total += g.Count
	}
	return total
}

type ExportFile struct {
	Filename string
	MimeType string
	Content  []byte
}
