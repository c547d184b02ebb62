package port

import (
	"context"

	"credit_aggregator/internal/domain/entity"
)

// ChainDataFetcher collects one chain's snapshot for an address.
type ChainDataFetcher interface {
	// Fetch returns entity.ErrChainUnavailable when nothing could be collected for the chain.
	Fetch(ctx context.Context, address string, networkDefinition entity.NetworkDefinition) (entity.ChainSnapshot, error)
}

// CreditService defines the interface for building credit assessments.
type CreditService interface {
	// Aggregate fails only with entity.ErrInvalidAddress.
	Aggregate(ctx context.Context, address string) (entity.CreditAssessment, error)
	AggregateBatch(ctx context.Context, addresses []string) entity.BatchResult
	// Simulate also rejects unknown actions and bad amounts with entity.ErrInvalidSimulation.
	Simulate(ctx context.Context, address string, action entity.SimulationAction, amount float64) (entity.CreditImpact, error)
}

// AddressProvider defines the interface for fetching addresses to assess in batch mode.
type AddressProvider interface {
	GetAddresses() ([]string, error)
}
