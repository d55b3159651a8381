package health

import "context"

// Pinger checks store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks a provider's availability.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
