// Package dictlist provides ordered record containers and the merge that
// drives handler pipelines across several of them.
//
// Four containers build on each other:
//
//   - List is an ordered, mutable sequence of records with query, filter and
//     file operations.
//   - Ordered wraps a List and keeps it sorted by one key. Sorting is lazy:
//     appends mark the view dirty and the next order-dependent read sorts it.
//   - Handled wraps a List and runs a handler pipeline over every record
//     exactly once, as records are appended. It is append-only.
//   - Linked merges several sources (Nodes) sharing one key and runs each
//     node's handlers in global key order, threading the pipe produced by
//     one node into the next.
//
// Containers are not safe for concurrent use. Wrappers share the backing
// List they were built on; mutating through a wrapper mutates that List.
//
// Files come in three formats: the native msgpack encoding (".DictList"),
// CSV and JSON. Reading a missing file is a no-op and writing an empty
// container writes nothing.
package dictlist
