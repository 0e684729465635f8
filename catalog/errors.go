package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies engine failures so callers can render a precise message.
type Kind string

const (
	// KindValidation is a local check that failed before any store call.
	KindValidation Kind = "VALIDATION_FAILED"
	// KindQuery is a failed store read; the previous result set is kept.
	KindQuery Kind = "QUERY_FAILED"
	// KindMutation is a failed create, update or delete.
	KindMutation Kind = "MUTATION_FAILED"
	// KindStale marks a query response superseded by a newer query. The
	// session discards these and never returns them.
	KindStale Kind = "STALE_RESPONSE"
)

// Sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrQuery      = &Error{Kind: KindQuery}
	ErrMutation   = &Error{Kind: KindMutation}
	ErrStale      = &Error{Kind: KindStale}
)

// Error is the error type returned by Session operations.
type Error struct {
	Kind Kind
	Op   string
	ID   string
	// Fields maps field names to messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + " " + e.Fields[k]
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationError(op string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

func queryError(err error) *Error {
	return &Error{Kind: KindQuery, Op: "search", Err: err}
}

func mutationError(op, id string, err error) *Error {
	return &Error{Kind: KindMutation, Op: op, ID: id, Err: err}
}

// DeleteFailure records why one id in a bulk delete was not removed.
type DeleteFailure struct {
	ID  string
	Err error
}

// BulkResult reports the settled outcome of a bulk delete.
type BulkResult struct {
	Requested int
	Succeeded []string
	Failed    []DeleteFailure
}

// Err summarises partial failure as a mutation error, or nil when every
// delete succeeded.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return mutationError("bulk delete", "", fmt.Errorf("%d of %d deletes failed: %s",
		len(r.Failed), r.Requested, strings.Join(ids, ", ")))
}
