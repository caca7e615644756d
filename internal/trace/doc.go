// Package trace provides the injected logging handle used by record
// containers and the runner.
//
// A Trace is built explicitly and passed to whatever needs it. Containers
// default to Nop when no trace is supplied. Default and SetDefault exist for
// the composition root (cmd/recordkit and the cli package) and must not be
// reached for from library code.
//
// Output goes through log/slog. A Trace may write to a stream, a file, or
// both; each output has its own threshold, and NotSet disables it.
package trace
