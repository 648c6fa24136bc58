package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Counters holds the service-level metrics. A nil *Counters is valid
// and records nothing, so tests can run without a meter provider.
type Counters struct {
	registrations    metric.Int64Counter
	logins           metric.Int64Counter
	dispatchFailures metric.Int64Counter
	rollbacks        metric.Int64Counter
}

// NewCounters registers the service counters on the meter provider.
func NewCounters(provider *sdkmetric.MeterProvider) (*Counters, error) {
	meter := provider.Meter("auth-service")

	registrations, err := meter.Int64Counter("auth_registrations_total",
		metric.WithDescription("Completed registrations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create registrations counter: %w", err)
	}

	logins, err := meter.Int64Counter("auth_logins_total",
		metric.WithDescription("Successful logins"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	dispatchFailures, err := meter.Int64Counter("auth_dispatch_failures_total",
		metric.WithDescription("Failed message dispatches"))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch failures counter: %w", err)
	}

	rollbacks, err := meter.Int64Counter("auth_registration_rollbacks_total",
		metric.WithDescription("Registrations compensated after dispatch failure"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rollbacks counter: %w", err)
	}

	return &Counters{
		registrations:    registrations,
		logins:           logins,
		dispatchFailures: dispatchFailures,
		rollbacks:        rollbacks,
	}, nil
}

// IncRegistrations records a completed registration.
func (c *Counters) IncRegistrations(ctx context.Context) {
	if c != nil {
		c.registrations.Add(ctx, 1)
	}
}

// IncLogins records a successful login.
func (c *Counters) IncLogins(ctx context.Context) {
	if c != nil {
		c.logins.Add(ctx, 1)
	}
}

// IncDispatchFailures records a failed message dispatch.
func (c *Counters) IncDispatchFailures(ctx context.Context) {
	if c != nil {
		c.dispatchFailures.Add(ctx, 1)
	}
}

// IncRollbacks records a compensated registration.
func (c *Counters) IncRollbacks(ctx context.Context) {
	if c != nil {
		c.rollbacks.Add(ctx, 1)
	}
}
