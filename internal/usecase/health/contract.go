package health

import "context"

// DBPinger checks cache store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SourceChecker checks content store availability.
type SourceChecker interface {
	HealthCheck(ctx context.Context) error
}
