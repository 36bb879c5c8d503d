package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	// KindUnavailable covers network failures and 5xx replies.
	KindUnavailable ErrorKind = iota
	KindRateLimited
	// KindInvalidResponse is a reply that is not JSON or does not match
	// the requested schema.
	KindInvalidResponse
	// KindTruncated is a structured reply cut off by MaxTokens.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalidResponse:
		return "invalid response"
	case KindTruncated:
		return "response truncated"
	default:
		return "provider unavailable"
	}
}

// Error is returned by every provider for failures of the call itself.
type Error struct {
	Kind ErrorKind

	// RetryAfter is the server's hint for KindRateLimited, if any.
	RetryAfter time.Duration

	// Content is the offending reply for KindInvalidResponse and
	// KindTruncated.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return "llm: " + e.Kind.String()
	case e.Kind == KindRateLimited && e.RetryAfter > 0:
		return fmt.Sprintf("llm: %s (retry after %s): %v", e.Kind, e.RetryAfter, e.Err)
	default:
		return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later. Invalid
// responses are retryable too, but only once; see WithRetry.
func (e *Error) Retryable() bool {
	return e.Kind != KindTruncated
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// fromStatus classifies an SDK error by its HTTP status.
func fromStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &Error{Kind: KindRateLimited, Err: err}
	}
	return &Error{Kind: KindUnavailable, Err: err}
}

func invalid(content json.RawMessage, format string, args ...any) error {
	return &Error{Kind: KindInvalidResponse, Content: content, Err: fmt.Errorf(format, args...)}
}
