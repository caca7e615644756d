// Package pipeline holds the declarative description of a merge run:
// which node files to load, the handlers for each node, and where results
// go. The types are pure data; internal/compiler produces them from CUE and
// internal/harness reads them from YAML.
package pipeline

// Handle types understood by handle.Build.
const (
	TypeCalculate = "calculate"
	TypeCompare   = "compare"
	TypeCross     = "cross"
	TypeAggregate = "aggregate"
	TypeMA        = "ma"
	TypeRSI       = "rsi"
)

// Types lists every handle type.
var Types = []string{TypeCalculate, TypeCompare, TypeCross, TypeAggregate, TypeMA, TypeRSI}

// Spec describes one merge run.
type Spec struct {
	Name string `json:"name" yaml:"name"`

	// Key is the merge key shared by every node.
	Key string `json:"key" yaml:"key"`

	// Nodes are merged in order; the last node paces the merge.
	Nodes []NodeSpec `json:"nodes" yaml:"nodes"`

	// Handles are the trailing handlers, run on records of the last node.
	Handles []HandleSpec `json:"handles,omitempty" yaml:"handles,omitempty"`

	// Snapshot names the store snapshot that receives the last node's
	// records after the run. Empty disables snapshotting.
	Snapshot string `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// NodeSpec describes one stream of the merge.
type NodeSpec struct {
	Name string `json:"name" yaml:"name"`

	// Input is the file the node's records are loaded from. A missing file
	// loads nothing.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`

	// Format overrides inference from the Input extension.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Ordered sorts the node by the merge key before merging. Without it the
	// input must already be in key order, or the merge fails.
	Ordered bool `json:"ordered,omitempty" yaml:"ordered,omitempty"`

	Handles []HandleSpec `json:"handles,omitempty" yaml:"handles,omitempty"`

	// Output is where the node's records are written after the run.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// OutputFormat overrides inference from the Output extension.
	OutputFormat string `json:"output_format,omitempty" yaml:"output_format,omitempty"`
}

// HandleSpec describes one handler. Which fields apply depends on Type:
//
//	calculate, compare, cross: Method, Left, Right
//	aggregate:                 Method, Keys
//	ma, rsi:                   Period, SourceKey, Average
//
// Key, Source and Target apply to every type.
type HandleSpec struct {
	Type      string       `json:"type" yaml:"type"`
	Method    string       `json:"method,omitempty" yaml:"method,omitempty"`
	Left      *OperandSpec `json:"left,omitempty" yaml:"left,omitempty"`
	Right     *OperandSpec `json:"right,omitempty" yaml:"right,omitempty"`
	Keys      []string     `json:"keys,omitempty" yaml:"keys,omitempty"`
	Period    int          `json:"period,omitempty" yaml:"period,omitempty"`
	SourceKey string       `json:"source_key,omitempty" yaml:"source_key,omitempty"`
	Average   string       `json:"average,omitempty" yaml:"average,omitempty"`
	Key       string       `json:"key,omitempty" yaml:"key,omitempty"`
	Source    string       `json:"source,omitempty" yaml:"source,omitempty"`
	Target    string       `json:"target,omitempty" yaml:"target,omitempty"`
}

// OperandSpec is either a key reference or a constant. Exactly one of Key
// and Value is set.
type OperandSpec struct {
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}
