package health

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semindex/internal/domain"
)

// DefaultCheckTimeout bounds each component probe.
const DefaultCheckTimeout = 3 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means search is unavailable but stored documents can still be written.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnconfigured indicates a component that was never set up.
	CheckUnconfigured CheckResult = "unconfigured"
)

// Report aggregates health check results. Kinds holds the error kind of
// every failing check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Kinds  map[string]domain.Kind
}

// Service coordinates health checks.
type Service struct {
	db        Store
	embedding Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Service. embedding can be nil.
func New(db Store, embedding Provider, logger *zap.Logger) *Service {
	return &Service{db: db, embedding: embedding, timeout: DefaultCheckTimeout, logger: logger}
}

// Check probes the store and the embedding provider.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Status: Healthy,
		Checks: make(map[string]CheckResult),
		Kinds:  make(map[string]domain.Kind),
	}

	if err := s.probe(ctx, s.db.Ping); err != nil {
		s.fail(&r, "database", err)
		r.Status = Unhealthy
	} else {
		r.Checks["database"] = CheckOK
	}

	if s.embedding != nil {
		err := s.probe(ctx, s.embedding.HealthCheck)
		switch {
		case err == nil:
			r.Checks["embedding"] = CheckOK
		case errors.Is(err, domain.ErrProviderNotConfigured):
			r.Checks["embedding"] = CheckUnconfigured
			r.Kinds["embedding"] = domain.KindProviderNotConfigured
			if r.Status == Healthy {
				r.Status = Degraded
			}
		default:
			s.fail(&r, "embedding", err)
			if r.Status == Healthy {
				r.Status = Degraded
			}
		}
	}

	return r
}

func (s *Service) probe(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return check(ctx)
}

func (s *Service) fail(r *Report, name string, err error) {
	r.Checks[name] = CheckError
	r.Kinds[name] = domain.KindOf(err)
	s.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
}
