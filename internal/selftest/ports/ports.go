// Package ports defines shared interfaces for the selftest module.
package ports

import (
	"context"
	"time"

	"grantgate/internal/selftest/models"
)

// ResultStore persists self-test results.
type ResultStore interface {
	// AppendBatch writes one run's results atomically where the backend
	// allows it.
	AppendBatch(ctx context.Context, results []models.Result) error

	// ListBetween returns results with a timestamp in [start, end], newest
	// first.
	ListBetween(ctx context.Context, start, end time.Time) ([]models.Result, error)
}

// Dependency is one third-party component the dependency check inspects.
type Dependency struct {
	Name    string
	Version string
}

// DependencySource lists the dependencies to scan.
type DependencySource interface {
	List(ctx context.Context) ([]Dependency, error)
}

// Prober executes one dynamic probe against an endpoint and classifies the
// outcome. Implementations decide whether probes actually hit the network.
type Prober interface {
	Probe(ctx context.Context, name, endpoint, payload string) (models.Status, error)
}
