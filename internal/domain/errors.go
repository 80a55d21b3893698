package domain

import "fmt"

// ErrorKind classifies a source fault for retry decisions and logging
type ErrorKind string

const (
	// ErrKindNetwork covers timeouts, connection failures and unusable HTTP responses
	ErrKindNetwork ErrorKind = "network"
	// ErrKindParse covers malformed response bodies
	ErrKindParse ErrorKind = "parse"
)

// SourceError is a fault raised by a price source client or adapter. Faults
// are retried by the resolver; expected outcomes (no trading data, invalid
// code shape) are returned as PriceRecords instead and never reach it.
type SourceError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps err as a network fault
func NewNetworkError(op string, err error) *SourceError {
	return &SourceError{Kind: ErrKindNetwork, Op: op, Err: err}
}

// NewParseError wraps err as a parse fault
func NewParseError(op string, err error) *SourceError {
	return &SourceError{Kind: ErrKindParse, Op: op, Err: err}
}
