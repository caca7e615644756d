package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recordkit/internal/compiler"
	"github.com/roach88/recordkit/internal/pipeline"
)

// Scenario is one merge test: a pipeline, the steps that feed and merge it,
// and the checks run afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Pipeline is merged by the scenario. Its name defaults to Name.
	Pipeline pipeline.Spec `yaml:"pipeline"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the trace.
	Assertions []Assertion `yaml:"assertions"`

	// Dir is the base for node input and output paths. LoadScenario sets it
	// to the scenario file's directory.
	Dir string `yaml:"-"`
}

// Step either appends records to a node or merges.
type Step struct {
	// Append names the node that receives Records.
	Append string `yaml:"append,omitempty"`

	// Records are plain YAML mappings with scalar values.
	Records []map[string]any `yaml:"records,omitempty"`

	// Handle merges pending records.
	Handle bool `yaml:"handle,omitempty"`

	// Expect is the number of records the merge must process.
	Expect *int `yaml:"expect,omitempty"`

	// Error, when set, requires the merge to fail with a message
	// containing it.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final state or trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Node names the node under test (values, record, pipe, handled).
	Node string `yaml:"node,omitempty"`

	// Key is the record key projected by values.
	Key string `yaml:"key,omitempty"`

	// Values are the expected projection (values).
	Values []any `yaml:"values,omitempty"`

	// Index selects the record (record).
	Index *int `yaml:"index,omitempty"`

	// Expect is a subset match (record, pipe).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected handled count or snapshot size.
	Count *int `yaml:"count,omitempty"`

	// Labels are trace labels, "<node>[<key value>]" (trace_order).
	Labels []string `yaml:"labels,omitempty"`

	// Snapshot names the snapshot; defaults to the pipeline's (snapshot).
	Snapshot string `yaml:"snapshot,omitempty"`

	// Seq is the expected snapshot sequence number (snapshot).
	Seq *int64 `yaml:"seq,omitempty"`
}

// Assertion type constants.
const (
	AssertValues     = "values"
	AssertRecord     = "record"
	AssertPipe       = "pipe"
	AssertHandled    = "handled"
	AssertTraceOrder = "trace_order"
	AssertSnapshot   = "snapshot"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	// catches typos like "assertion:" vs "assertions:"
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Pipeline.Name == "" {
		scenario.Pipeline.Name = scenario.Name
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if errs := compiler.Validate(&s.Pipeline); len(errs) > 0 {
		return fmt.Errorf("pipeline: %w", errs[0])
	}

	nodes := make(map[string]bool, len(s.Pipeline.Nodes))
	for _, n := range s.Pipeline.Nodes {
		nodes[n.Name] = true
	}

	for i, step := range s.Steps {
		switch {
		case step.Append != "" && step.Handle:
			return fmt.Errorf("steps[%d]: append and handle are exclusive", i)
		case step.Append != "":
			if !nodes[step.Append] {
				return fmt.Errorf("steps[%d]: unknown node %q", i, step.Append)
			}
			if len(step.Records) == 0 {
				return fmt.Errorf("steps[%d]: records are required for append", i)
			}
			if step.Expect != nil || step.Error != "" {
				return fmt.Errorf("steps[%d]: expect and error only apply to handle", i)
			}
		case step.Handle:
			if len(step.Records) > 0 {
				return fmt.Errorf("steps[%d]: records only apply to append", i)
			}
		default:
			return fmt.Errorf("steps[%d]: one of append or handle is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s, nodes); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, s *Scenario, nodes map[string]bool) error {
	needsNode := func() error {
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for %s", index, a.Type)
		}
		if !nodes[a.Node] {
			return fmt.Errorf("assertions[%d]: unknown node %q", index, a.Node)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertValues:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for values", index)
		}
	case AssertRecord:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Index == nil {
			return fmt.Errorf("assertions[%d]: index is required for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	case AssertPipe:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for pipe", index)
		}
	case AssertHandled:
		if err := needsNode(); err != nil {
			return err
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for handled", index)
		}
	case AssertTraceOrder:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels list is required for trace_order", index)
		}
	case AssertSnapshot:
		if a.Snapshot == "" {
			a.Snapshot = s.Pipeline.Snapshot
		}
		if a.Snapshot == "" {
			return fmt.Errorf("assertions[%d]: snapshot name is required when the pipeline has none", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for snapshot", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
