package audit

import (
	"context"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
)

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, ev domaudit.Event) error
}
