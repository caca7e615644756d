// Package record provides the schemaless Record type shared by every
// container in recordkit.
//
// A Record maps string keys to Values. Value is a sealed tagged union:
// only Null, String, Int, Float, Bool, and Time implement it. Records carry
// no identity beyond value equality and key lookup.
//
// This package imports nothing internal. Every other package builds on it.
//
// Key design constraints:
//   - Times are normalized to UTC without a monotonic reading, so equal
//     instants compare equal with ==
//   - Int and Float compare numerically against each other
//   - JSON floats always carry a fraction or exponent, so Float survives a
//     JSON round trip as Float
//   - Object keys are written in sorted order for deterministic output
package record
