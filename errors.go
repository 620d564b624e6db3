package reports

import (
	"github.com/gogf/gf/v2/errors/gcode"
	"github.com/gogf/gf/v2/errors/gerror"
)

// Error taxonomy. Callers distinguish kinds through gerror.Code, the
// predicates below are for convenience.
var (
	// CodeConfiguration marks definition problems: missing model, no visible
	// fields, unsupported export format. Execution is never attempted.
	CodeConfiguration = gcode.New(1101, "ConfigurationError", nil)
	// CodeCoercion marks a bad filter value. Recovered by dropping the
	// condition, never surfaces past the domain builder.
	CodeCoercion = gcode.New(1102, "CoercionError", nil)
	// CodeQuery marks a store-level failure. Aborts the execution, no
	// partial result.
	CodeQuery = gcode.New(1103, "QueryError", nil)
	// CodeFormat marks a formatter failure. Aborts that single export, the
	// ExecutionResult stays reusable.
	CodeFormat = gcode.New(1104, "FormatError", nil)
)

func IsConfigurationError(err error) bool {
	return gerror.Code(err) == CodeConfiguration
}

func IsCoercionError(err error) bool {
	return gerror.Code(err) == CodeCoercion
}

func IsQueryError(err error) bool {
	return gerror.Code(err) == CodeQuery
}

func IsFormatError(err error) bool {
	return gerror.Code(err) == CodeFormat
}
