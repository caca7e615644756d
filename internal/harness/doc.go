// Package harness runs merge scenarios against a pipeline.
//
// A scenario declares a pipeline inline, feeds records to its nodes step by
// step, merges between steps, and checks the outcome. Every processed
// record is traced, so a scenario doubles as a golden test of merge order.
//
// # Scenario Format
//
//	name: golden_cross
//	description: "What this scenario validates"
//	pipeline:
//	  key: t
//	  nodes:
//	    - name: monthly
//	      ordered: true
//	      handles:
//	        - { type: ma, source_key: close, period: 2, key: m }
//	    - name: daily
//	  snapshot: daily
//	steps:
//	  - append: monthly
//	    records:
//	      - { t: 1, close: 10 }
//	  - append: daily
//	    records:
//	      - { t: 1, v: 1 }
//	  - handle: true
//	    expect: 2
//	assertions:
//	  - type: pipe
//	    node: daily
//	    expect: { m: 10.0 }
//	  - type: trace_order
//	    labels: ["monthly[1]", "daily[1]"]
//
// Node inputs are resolved against the scenario file's directory.
//
// # Assertion Types
//
//   - values: the node's values for key, in order (missing keys read as null)
//   - record: subset match of the record at index
//   - pipe: subset match of the node's current pipe
//   - handled: number of records the node has processed
//   - trace_order: labels appear in the trace in this relative order
//   - snapshot: record count (and optionally seq) of the latest snapshot
//
// # Deterministic Testing
//
// Snapshots go to an in-memory SQLite store with sequential IDs, and the
// trace carries no wall-clock data, so identical scenarios produce
// identical traces for golden comparison.
package harness
