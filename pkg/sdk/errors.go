package tenantrag

import "github.com/kailas-cloud/tenantrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnauthorized      = domain.ErrUnauthorized
	ErrForbidden         = domain.ErrForbidden
	ErrBadRequest        = domain.ErrBadRequest
	ErrTooLarge          = domain.ErrTooLarge
	ErrRateLimited       = domain.ErrRateLimited
	ErrNotFound          = domain.ErrNotFound
	ErrEmbeddingProvider = domain.ErrEmbeddingProvider
	ErrRerankProvider    = domain.ErrRerankProvider
)

// Reason returns the stable reason code of a denied request, such as
// "invalid_credential" or "ethics_block: forbidden_keyword: hack".
// It returns "" for errors that are not denials.
func Reason(err error) string {
	return domain.ReasonOf(err)
}
