// Package handle builds reusable dictlist.Handler values.
//
// Every builder reads its operands from a source record and writes one
// result under a key into a target record. Source and target are either the
// record being handled (Element) or the pipe (Pipe). The defaults read from
// Element and write to Pipe, and the result key defaults to the method name.
//
// Cross, MA and RSI keep state between calls. A handler built by them must
// be used by one pipeline only, and records must reach it in order.
package handle
