// Package kernelerr defines the error kinds shared across the retrieval and
// indexing kernel, per the propagation policy: build steps and sub-source
// searches catch their own failures and classify them instead of panicking.
package kernelerr

import (
	"errors"
	"fmt"
)

// Kind classifies a kernel error for the propagation policy in spec.md §7.
type Kind int

const (
	// KindUnknown is the zero value; errors not wrapped with a Kind fall here.
	KindUnknown Kind = iota
	KindConfigInvalid
	KindStorageUnavailable
	KindStorageQueryFailed
	KindEmbeddingFailed
	KindLLMFailed
	KindLLMParseFailed
	KindChunkingFailed
	KindCancelled
	KindTimeout
	KindEmpty
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindStorageQueryFailed:
		return "StorageQueryFailed"
	case KindEmbeddingFailed:
		return "EmbeddingFailed"
	case KindLLMFailed:
		return "LLMFailed"
	case KindLLMParseFailed:
		return "LLMParseFailed"
	case KindChunkingFailed:
		return "ChunkingFailed"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindEmpty:
		return "Empty"
	case KindValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

// kindError attaches a Kind to a wrapped error without inventing a distinct
// Go error type per kind — callers discriminate via KindOf, not type assertions.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("[%s] %s", e.kind, e.err) }
func (e *kindError) Unwrap() error { return e.err }

// Wrap attaches kind to err. Wrap(nil, ...) returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// New builds a new Kind-tagged error from a format string, analogous to fmt.Errorf.
func New(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind attached to err, walking the Unwrap chain.
// Returns KindUnknown if no Kind was attached anywhere in the chain.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsFatal reports whether kind should abort the operation rather than degrade
// (spec.md §7: only ConfigInvalid and StorageUnavailable at init are fatal).
func IsFatal(kind Kind) bool {
	return kind == KindConfigInvalid || kind == KindStorageUnavailable
}
