package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/handle"
	"github.com/roach88/recordkit/internal/pipeline"
)

// Validation error codes (E200-E299)
const (
	// Pipeline errors (E200-E209)
	ErrEmptyKey          = "E200" // merge key is required
	ErrNoNodes           = "E201" // at least one node required
	ErrEmptyNodeName     = "E202" // node name is required
	ErrDuplicateNodeName = "E203" // node names must be unique
	ErrUnknownFormat     = "E204" // input/output format not recognized

	// Handle errors (E210-E219)
	ErrUnknownHandleType = "E210" // handle type not recognized
	ErrUnknownMethod     = "E211" // method not valid for handle type
	ErrInvalidOperand    = "E212" // operand missing, empty, or ambiguous
	ErrInvalidParam      = "E213" // source/target not ELEMENT or PIPE
	ErrInvalidPeriod     = "E214" // period must be positive
	ErrMissingSourceKey  = "E215" // ma/rsi need source_key
	ErrInvalidAverage    = "E216" // average not SIMPLE/EXPONENTIAL/SMOOTHED
	ErrMissingKeys       = "E217" // aggregate needs keys
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled pipeline against the rules handle.Build and
// the runner rely on. Returns all errors found (does not fail-fast).
func Validate(spec *pipeline.Spec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Key) == "" {
		errs = append(errs, ValidationError{
			Field:   "key",
			Message: "merge key is required and must be non-empty",
			Code:    ErrEmptyKey,
		})
	}

	if len(spec.Nodes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "nodes",
			Message: "at least one node is required",
			Code:    ErrNoNodes,
		})
	}

	names := make(map[string]bool)
	for i, node := range spec.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)

		if strings.TrimSpace(node.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "node name is required",
				Code:    ErrEmptyNodeName,
			})
		} else if names[node.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate node name: %q", node.Name),
				Code:    ErrDuplicateNodeName,
			})
		}
		names[node.Name] = true

		errs = append(errs, validateFormat(field+".format", node.Format)...)
		errs = append(errs, validateFormat(field+".output_format", node.OutputFormat)...)

		for j, h := range node.Handles {
			errs = append(errs, validateHandle(fmt.Sprintf("%s.handles[%d]", field, j), h)...)
		}
	}

	for j, h := range spec.Handles {
		errs = append(errs, validateHandle(fmt.Sprintf("handles[%d]", j), h)...)
	}

	return errs
}

func validateFormat(field, format string) []ValidationError {
	if format == "" {
		return nil
	}
	if _, err := dictlist.ParseFormat(format); err != nil {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("unknown format %q, must be one of %v", format, dictlist.Formats),
			Code:    ErrUnknownFormat,
		}}
	}
	return nil
}

func validateHandle(field string, h pipeline.HandleSpec) []ValidationError {
	var errs []ValidationError

	methods, ok := handle.Methods(h.Type)
	if !ok {
		return []ValidationError{{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown handle type %q, must be one of %v", h.Type, pipeline.Types),
			Code:    ErrUnknownHandleType,
		}}
	}

	if methods != nil && !slices.ContainsFunc(methods, func(m string) bool { return strings.EqualFold(m, h.Method) }) {
		errs = append(errs, ValidationError{
			Field:   field + ".method",
			Message: fmt.Sprintf("invalid method %q for %s, must be one of %v", h.Method, h.Type, methods),
			Code:    ErrUnknownMethod,
		})
	}

	for _, p := range []struct{ name, value string }{{"source", h.Source}, {"target", h.Target}} {
		if _, err := handle.ParseParam(p.value, handle.Element); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + "." + p.name,
				Message: err.Error(),
				Code:    ErrInvalidParam,
			})
		}
	}

	switch strings.ToLower(h.Type) {
	case pipeline.TypeCalculate, pipeline.TypeCompare, pipeline.TypeCross:
		errs = append(errs, validateOperand(field+".left", h.Left)...)
		errs = append(errs, validateOperand(field+".right", h.Right)...)

	case pipeline.TypeAggregate:
		if len(h.Keys) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".keys",
				Message: "aggregate requires at least one key",
				Code:    ErrMissingKeys,
			})
		}

	case pipeline.TypeMA, pipeline.TypeRSI:
		if strings.TrimSpace(h.SourceKey) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".source_key",
				Message: h.Type + " requires source_key",
				Code:    ErrMissingSourceKey,
			})
		}
		if h.Period < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".period",
				Message: fmt.Sprintf("period must be positive, got %d", h.Period),
				Code:    ErrInvalidPeriod,
			})
		}
		if _, err := handle.ParseAverage(h.Average, handle.Simple); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".average",
				Message: err.Error(),
				Code:    ErrInvalidAverage,
			})
		}
	}

	return errs
}

func validateOperand(field string, op *pipeline.OperandSpec) []ValidationError {
	var msg string
	switch {
	case op == nil:
		msg = "operand is required"
	case op.Key != "" && op.Value != nil:
		msg = "operand sets both key and value"
	case op.Key == "" && op.Value == nil:
		msg = "operand needs a key or a value"
	default:
		return nil
	}
	return []ValidationError{{Field: field, Message: msg, Code: ErrInvalidOperand}}
}
