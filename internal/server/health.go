package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/champtc/cyio-graph/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService verifies graph connectivity as part of health checks.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	if err := s.Client.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	return nil
}

// Pinger is satisfied by stores that can check their own connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PositionsHealthService probes the positions backend when it supports it.
type PositionsHealthService struct {
	Store any
}

// Probe implements the HealthService interface.
func (s PositionsHealthService) Probe(ctx context.Context) error {
	p, ok := s.Store.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	return nil
}

// HealthChecks runs every probe and joins their failures.
type HealthChecks []HealthService

// Probe implements the HealthService interface.
func (c HealthChecks) Probe(ctx context.Context) error {
	var errs []error
	for _, check := range c {
		if check == nil {
			continue
		}
		if err := check.Probe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
