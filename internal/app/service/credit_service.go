package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// creditServiceImpl implements port.CreditService
type creditServiceImpl struct {
	networks       port.NetworkDefinitionProvider
	fetcher        port.ChainDataFetcher
	adapters       []port.ProtocolAdapter
	engine         *CreditScoringEngine
	logger         port.Logger
	maxConcurrency int
	fetchTimeout   time.Duration
}

// NewCreditService creates the cross-chain orchestrator.
// fetchTimeout bounds every chain fetch and adapter call; zero disables it.
func NewCreditService(
	np port.NetworkDefinitionProvider,
	fetcher port.ChainDataFetcher,
	adapters []port.ProtocolAdapter,
	engine *CreditScoringEngine,
	l port.Logger,
	maxRoutines int,
	fetchTimeout time.Duration,
) port.CreditService {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	if engine == nil {
		engine = NewCreditScoringEngine(nil)
	}
	return &creditServiceImpl{
		networks:       np,
		fetcher:        fetcher,
		adapters:       adapters,
		engine:         engine,
		logger:         l,
		maxConcurrency: maxRoutines,
		fetchTimeout:   fetchTimeout,
	}
}

// ValidateAddress accepts a 0x-prefixed 20-byte hex address.
func ValidateAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("%w: %q lacks 0x prefix", entity.ErrInvalidAddress, address)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	return address, nil
}

func (s *creditServiceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.fetchTimeout)
}

// Aggregate fans out to every configured chain and protocol, then combines and scores
// whatever succeeded. Failed chains and protocols are absent from the result.
func (s *creditServiceImpl) Aggregate(ctx context.Context, address string) (entity.CreditAssessment, error) {
	address, err := ValidateAddress(address)
	if err != nil {
		return entity.CreditAssessment{}, err
	}
	start := time.Now()

	defs := s.networks.GetAllNetworkDefinitions()
	chainIDs := make([]uint64, len(defs))
	for i, d := range defs {
		chainIDs[i] = d.ChainID
	}
	s.logger.Debug("Aggregating credit data", "address", address, "chains", len(defs), "protocols", len(s.adapters))

	snapshots := make([]*entity.ChainSnapshot, len(defs))
	positions := make([]map[uint64]entity.ProtocolPosition, len(s.adapters))
	histories := make([][]entity.ProtocolTransaction, len(s.adapters))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, def := range defs {
		g.Go(func() error {
			fctx, cancel := s.withTimeout(ctx)
			defer cancel()
			snap, err := s.fetcher.Fetch(fctx, address, def)
			if err != nil {
				s.logger.Error("Dropping chain from assessment", "address", address, "chain_id", def.ChainID, "network", def.Name, "error", err)
				return nil
			}
			snapshots[i] = &snap
			return nil
		})
	}
	for i, adapter := range s.adapters {
		g.Go(func() error {
			actx, cancel := s.withTimeout(ctx)
			defer cancel()
			positions[i] = adapter.GetPositions(actx, address, chainIDs)
			return nil
		})
		g.Go(func() error {
			actx, cancel := s.withTimeout(ctx)
			defer cancel()
			histories[i] = adapter.GetTransactionHistory(actx, address, chainIDs)
			return nil
		})
	}
	_ = g.Wait()

	chains := make([]entity.ChainSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap != nil {
			chains = append(chains, *snap)
		}
	}

	byProtocol := make(map[entity.Protocol]map[uint64]entity.ProtocolPosition, len(s.adapters))
	for i, adapter := range s.adapters {
		p := positions[i]
		if p == nil {
			p = make(map[uint64]entity.ProtocolPosition)
		}
		byProtocol[adapter.Protocol()] = p
	}

	interactions := Combine(histories...)
	result := s.engine.Score(chains, interactions)

	metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	metrics.CreditScores.Observe(float64(result.Score))
	s.logger.Info("Credit assessment completed",
		"address", address,
		"score", result.Score,
		"chains", len(chains),
		"interactions", len(interactions),
		"duration", time.Since(start))

	return entity.CreditAssessment{
		Address:              address,
		Chains:               chains,
		CreditScore:          result.Score,
		RiskFactors:          result.RiskFactors,
		RiskDetails:          result.RiskDetails,
		Recommendations:      result.Recommendations,
		Positions:            byProtocol,
		ProtocolInteractions: interactions,
		Breakdown:            result.Breakdown,
	}, nil
}

// AggregateBatch assesses several addresses concurrently. Results keep input order;
// invalid addresses are reported in Errors instead.
func (s *creditServiceImpl) AggregateBatch(ctx context.Context, addresses []string) entity.BatchResult {
	assessments := make([]*entity.CreditAssessment, len(addresses))
	failures := make([]error, len(addresses))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, addr := range addresses {
		g.Go(func() error {
			a, err := s.Aggregate(ctx, addr)
			if err != nil {
				failures[i] = err
				return nil
			}
			assessments[i] = &a
			return nil
		})
	}
	_ = g.Wait()

	result := entity.BatchResult{Results: make([]entity.CreditAssessment, 0, len(addresses))}
	for i, a := range assessments {
		if failures[i] != nil {
			s.logger.Warn("Skipping address in batch", "address", addresses[i], "error", failures[i])
			result.Errors = append(result.Errors, entity.AddressError{Address: addresses[i], Message: failures[i].Error()})
			continue
		}
		result.Results = append(result.Results, *a)
	}
	return result
}

// Simulate aggregates the address and projects the score after the given action.
func (s *creditServiceImpl) Simulate(ctx context.Context, address string, action entity.SimulationAction, amount float64) (entity.CreditImpact, error) {
	if !action.Known() {
		return entity.CreditImpact{}, fmt.Errorf("%w: unknown action %q", entity.ErrInvalidSimulation, action)
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return entity.CreditImpact{}, fmt.Errorf("%w: amount must be a non-negative number", entity.ErrInvalidSimulation)
	}
	assessment, err := s.Aggregate(ctx, address)
	if err != nil {
		return entity.CreditImpact{}, err
	}
	return s.engine.SimulateImpact(assessment.CreditScore, action, amount), nil
}
