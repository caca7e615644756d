package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/handle"
	"github.com/roach88/recordkit/internal/pipeline"
)

// Warning flags a pipeline that is valid but probably not what the author
// meant. Warnings never stop a run.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Field + ": " + w.Message
}

// Lint reports two kinds of suspicious wiring:
//
//   - A handle whose result key is written again by a later handle in the
//     same list targeting the same place. The earlier result is lost.
//   - A handle on the first node that reads from the pipe before any handle
//     on that node has written to it. The first node always starts from an
//     empty pipe, so such a read fails with a missing key.
//
// Handles that fail Validate are skipped.
func Lint(spec *pipeline.Spec) []Warning {
	warnings := []Warning{}

	for i, node := range spec.Nodes {
		field := fmt.Sprintf("nodes[%d].handles", i)
		warnings = append(warnings, lintShadowing(field, node.Handles)...)
		if i == 0 {
			warnings = append(warnings, lintEmptyPipe(field, node.Handles)...)
		}
	}
	warnings = append(warnings, lintShadowing("handles", spec.Handles)...)

	return warnings
}

type resultSlot struct {
	target handle.Param
	key    string
}

func resultOf(h pipeline.HandleSpec) (resultSlot, bool) {
	target, err := handle.ParseParam(h.Target, handle.Pipe)
	if err != nil {
		return resultSlot{}, false
	}
	key := h.Key
	if key == "" {
		key = defaultKey(h)
	}
	if key == "" {
		return resultSlot{}, false
	}
	return resultSlot{target: target, key: key}, true
}

// defaultKey mirrors the result key handle.Build picks when none is set.
func defaultKey(h pipeline.HandleSpec) string {
	switch strings.ToLower(h.Type) {
	case pipeline.TypeMA:
		return "MA"
	case pipeline.TypeRSI:
		return "RSI"
	case pipeline.TypeCross:
		methods, _ := handle.Methods(h.Type)
		for _, m := range methods {
			if strings.EqualFold(m, h.Method) {
				return m
			}
		}
		return ""
	default:
		return strings.ToUpper(h.Method)
	}
}

func lintShadowing(field string, handles []pipeline.HandleSpec) []Warning {
	var warnings []Warning
	seen := make(map[resultSlot]int)

	for j, h := range handles {
		slot, ok := resultOf(h)
		if !ok {
			continue
		}
		if prev, dup := seen[slot]; dup {
			warnings = append(warnings, Warning{
				Field: fmt.Sprintf("%s[%d]", field, j),
				Message: fmt.Sprintf("%s key %q overwrites the result of %s[%d]",
					strings.ToLower(string(slot.target)), slot.key, field, prev),
			})
		}
		seen[slot] = j
	}
	return warnings
}

func lintEmptyPipe(field string, handles []pipeline.HandleSpec) []Warning {
	var warnings []Warning
	written := false

	for j, h := range handles {
		source, err := handle.ParseParam(h.Source, handle.Element)
		if err == nil && source == handle.Pipe && !written {
			warnings = append(warnings, Warning{
				Field:   fmt.Sprintf("%s[%d]", field, j),
				Message: "reads from the pipe before anything on the first node writes to it",
			})
		}
		if slot, ok := resultOf(h); ok && slot.target == handle.Pipe {
			written = true
		}
	}
	return warnings
}
