package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized signals a credential that does not match the claimed agent.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals an agent whose subscription does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrBadRequest signals malformed input or a content-safety block.
	ErrBadRequest = errors.New("bad request")
	// ErrTooLarge signals an upload over a size limit. It is also an ErrBadRequest.
	ErrTooLarge = fmt.Errorf("%w: too large", ErrBadRequest)
	// ErrRateLimited signals an exhausted request quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrInternal signals an unexpected failure that must not leak details.
	ErrInternal = errors.New("internal error")

	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrRerankProvider signals a reranking provider failure.
	ErrRerankProvider = errors.New("rerank provider error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// Stable reason codes carried by gate denials.
const (
	ReasonInvalidCredential    = "invalid_credential"
	ReasonSubscriptionInactive = "subscription_inactive"
	ReasonRateLimited          = "rate_limited"
	ReasonInvalidInput         = "invalid_input"
	ReasonFileTooLarge         = "file_too_large"
	ReasonNotUTF8              = "file_must_be_utf8_text"

	// ReasonContentBlockPrefix precedes the content rule that fired.
	ReasonContentBlockPrefix = "ethics_block: "
)

// DeniedError is a terminal policy decision. Kind is one of the taxonomy
// sentinels above, Reason is the stable code shown to the caller.
type DeniedError struct {
	Kind   error
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
}

func (e *DeniedError) Unwrap() error { return e.Kind }

// Deny creates a DeniedError.
func Deny(kind error, reason string) error {
	return &DeniedError{Kind: kind, Reason: reason}
}

// ReasonOf returns the reason code of a denial, or "" for any other error.
func ReasonOf(err error) string {
	var de *DeniedError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
