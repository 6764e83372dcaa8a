package health

import "context"

// Store is the document store as seen by the health check.
type Store interface {
	Ping(ctx context.Context) error
}

// Provider reports whether the installed embedding provider answers.
// ErrProviderNotConfigured means no provider was installed.
type Provider interface {
	HealthCheck(ctx context.Context) error
}
