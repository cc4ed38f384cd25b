package types

import (
	"fmt"
	"strings"
)

// DataErrorKind classifies fatal dataset problems.
type DataErrorKind string

// Kinds of fatal data errors. Any of these aborts generation before output is written.
const (
	KindMissingColumn   DataErrorKind = "missing column"
	KindMissingField    DataErrorKind = "missing required field"
	KindMissingKeyField DataErrorKind = "missing key field"
	KindInvalidValue    DataErrorKind = "invalid value"
	KindDuplicateKey    DataErrorKind = "duplicate key"
	KindDuplicateSlug   DataErrorKind = "duplicate slug"
)

// DataError is a fatal, generator-wide dataset error.
type DataError struct {
	Kind    DataErrorKind
	Message string
	Rows    []RowRef
	Cause   error
}

func (e *DataError) Error() string {
	var sb strings.Builder
	sb.WriteString("data error: ")
	sb.WriteString(string(e.Kind))
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if len(e.Rows) > 0 {
		refs := make([]string, len(e.Rows))
		for i, r := range e.Rows {
			refs[i] = r.String()
		}
		sb.WriteString(" [")
		sb.WriteString(strings.Join(refs, "; "))
		sb.WriteString("]")
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

func (e *DataError) Unwrap() error {
	return e.Cause
}

// WarningKind classifies non-fatal cross-reference problems.
type WarningKind string

// Reference warning kinds.
const (
	WarnDangling  WarningKind = "dangling"
	WarnDuplicate WarningKind = "duplicate"
)

// ReferenceWarning reports a related_pages entry that needs attention.
// It never blocks output.
type ReferenceWarning struct {
	Kind   WarningKind `json:"kind"`
	Source string      `json:"source"` // slug of the referencing record
	Target string      `json:"target"` // raw slug as declared
}

func (w ReferenceWarning) String() string {
	switch w.Kind {
	case WarnDangling:
		return fmt.Sprintf("%s: related page %q does not exist", w.Source, w.Target)
	case WarnDuplicate:
		return fmt.Sprintf("%s: related page %q listed more than once", w.Source, w.Target)
	default:
		return fmt.Sprintf("%s: %s reference to %q", w.Source, w.Kind, w.Target)
	}
}
