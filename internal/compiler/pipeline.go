package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/recordkit/internal/pipeline"
)

// CompilePipeline parses a CUE value into a pipeline.Spec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the pipeline struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`pipeline: trade: { key: "datetime", nodes: [...] }`)
//	spec, err := CompilePipeline(v.LookupPath(cue.ParsePath("pipeline.trade")))
//
// Only structure is checked here. Run Validate on the result for semantic
// checks such as unknown handle types.
func CompilePipeline(v cue.Value) (*pipeline.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &pipeline.Spec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	key, err := requiredString(v, "key")
	if err != nil {
		return nil, err
	}
	spec.Key = key

	if spec.Snapshot, err = optionalString(v, "snapshot"); err != nil {
		return nil, err
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := nodesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		node, err := compileNode(iter.Value(), fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}
		spec.Nodes = append(spec.Nodes, node)
	}
	if len(spec.Nodes) == 0 {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Pos:     nodesVal.Pos(),
		}
	}

	spec.Handles, err = compileHandles(v, "handles")
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func compileNode(v cue.Value, field string) (pipeline.NodeSpec, error) {
	var node pipeline.NodeSpec
	var err error

	if node.Name, err = requiredString(v, "name"); err != nil {
		return node, prefixField(err, field)
	}
	if node.Input, err = optionalString(v, "input"); err != nil {
		return node, prefixField(err, field)
	}
	if node.Format, err = optionalString(v, "format"); err != nil {
		return node, prefixField(err, field)
	}
	if node.Output, err = optionalString(v, "output"); err != nil {
		return node, prefixField(err, field)
	}
	if node.OutputFormat, err = optionalString(v, "output_format"); err != nil {
		return node, prefixField(err, field)
	}

	orderedVal := v.LookupPath(cue.ParsePath("ordered"))
	if orderedVal.Exists() {
		if node.Ordered, err = orderedVal.Bool(); err != nil {
			return node, formatCUEError(err)
		}
	}

	if node.Handles, err = compileHandles(v, "handles"); err != nil {
		return node, prefixField(err, field)
	}
	return node, nil
}

// compileHandles parses the optional list of handles under field.
func compileHandles(v cue.Value, field string) ([]pipeline.HandleSpec, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var handles []pipeline.HandleSpec
	for i := 0; iter.Next(); i++ {
		h, err := compileHandle(iter.Value())
		if err != nil {
			return nil, prefixField(err, fmt.Sprintf("%s[%d]", field, i))
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func compileHandle(v cue.Value) (pipeline.HandleSpec, error) {
	var h pipeline.HandleSpec
	var err error

	if h.Type, err = requiredString(v, "type"); err != nil {
		return h, err
	}

	fields := []struct {
		field string
		dst   *string
	}{
		{"method", &h.Method},
		{"source_key", &h.SourceKey},
		{"average", &h.Average},
		{"key", &h.Key},
		{"source", &h.Source},
		{"target", &h.Target},
	}
	for _, s := range fields {
		if *s.dst, err = optionalString(v, s.field); err != nil {
			return h, err
		}
	}

	periodVal := v.LookupPath(cue.ParsePath("period"))
	if periodVal.Exists() {
		period, err := periodVal.Int64()
		if err != nil {
			return h, formatCUEError(err)
		}
		h.Period = int(period)
	}

	keysVal := v.LookupPath(cue.ParsePath("keys"))
	if keysVal.Exists() {
		iter, err := keysVal.List()
		if err != nil {
			return h, formatCUEError(err)
		}
		for iter.Next() {
			k, err := iter.Value().String()
			if err != nil {
				return h, formatCUEError(err)
			}
			h.Keys = append(h.Keys, k)
		}
	}

	if h.Left, err = compileOperand(v, "left"); err != nil {
		return h, err
	}
	if h.Right, err = compileOperand(v, "right"); err != nil {
		return h, err
	}
	return h, nil
}

// compileOperand parses {key: "..."} or {value: <scalar>}.
func compileOperand(v cue.Value, field string) (*pipeline.OperandSpec, error) {
	opVal := v.LookupPath(cue.ParsePath(field))
	if !opVal.Exists() {
		return nil, nil
	}

	op := &pipeline.OperandSpec{}
	var err error
	if op.Key, err = optionalString(opVal, "key"); err != nil {
		return nil, prefixField(err, field)
	}

	valueVal := opVal.LookupPath(cue.ParsePath("value"))
	if valueVal.Exists() {
		if op.Value, err = scalar(valueVal); err != nil {
			return nil, prefixField(err, field)
		}
	}
	return op, nil
}

// scalar decodes a concrete CUE scalar into the Go value record.FromAny
// accepts.
func scalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("value must be a concrete string, number or bool, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// prefixField qualifies a CompileError's field with its parent path.
func prefixField(err error, parent string) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &CompileError{
			Field:   parent + "." + ce.Field,
			Message: ce.Message,
			Pos:     ce.Pos,
		}
	}
	return err
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
