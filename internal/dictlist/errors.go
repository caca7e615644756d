package dictlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes container errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedOperation indicates a mutation the container forbids,
	// such as Insert on an Ordered view or Pop on a Handled store.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodeUnsupportedFormat indicates an unknown file format or extension.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"

	// ErrCodeMissingKey indicates a record lacks a key the operation needs.
	ErrCodeMissingKey ErrorCode = "MISSING_KEY"

	// ErrCodeOutOfOrder indicates a merge node whose records are not in key
	// order.
	ErrCodeOutOfOrder ErrorCode = "OUT_OF_ORDER"

	// ErrCodeIndexOutOfRange indicates a positional argument outside the list.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeNotFound indicates Remove was given a record not in the list.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is returned for usage errors raised by the containers.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation that failed, e.g. "Handled.Pop".
	Op string

	// Message is a human-readable description.
	Message string

	// Key is the record key involved, when there is one.
	Key string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Key != "" {
		fmt.Fprintf(&b, " (key=%s)", e.Key)
	}
	return b.String()
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsUnsupportedOperation returns true if err is a forbidden-mutation error.
func IsUnsupportedOperation(err error) bool { return hasCode(err, ErrCodeUnsupportedOperation) }

// IsUnsupportedFormat returns true if err reports an unknown file format.
func IsUnsupportedFormat(err error) bool { return hasCode(err, ErrCodeUnsupportedFormat) }

// IsMissingKey returns true if err reports a record without a required key.
func IsMissingKey(err error) bool { return hasCode(err, ErrCodeMissingKey) }

// IsOutOfOrder returns true if err reports an unsorted merge node.
func IsOutOfOrder(err error) bool { return hasCode(err, ErrCodeOutOfOrder) }

// IsIndexOutOfRange returns true if err reports a bad position.
func IsIndexOutOfRange(err error) bool { return hasCode(err, ErrCodeIndexOutOfRange) }

// IsNotFound returns true if err reports a record absent from the list.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

func unsupportedOperation(op, container string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedOperation,
		Op:      op,
		Message: container + " does not support this operation",
	}
}

func unsupportedFormat(op, format string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedFormat,
		Op:      op,
		Message: fmt.Sprintf("unsupported file format %q", format),
	}
}

func missingKey(op, key string, index int) *Error {
	return &Error{
		Code:    ErrCodeMissingKey,
		Op:      op,
		Message: fmt.Sprintf("record %d has no value for the key", index),
		Key:     key,
	}
}

func outOfOrder(op, key, message string) *Error {
	return &Error{Code: ErrCodeOutOfOrder, Op: op, Message: message, Key: key}
}

func indexOutOfRange(op string, index, length int) *Error {
	return &Error{
		Code:    ErrCodeIndexOutOfRange,
		Op:      op,
		Message: fmt.Sprintf("index %d out of range for length %d", index, length),
	}
}
