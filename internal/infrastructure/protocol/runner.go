package protocol

import (
	"context"
	"strconv"
	"sync"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// PositionReader reads one chain's position.
type PositionReader func(ctx context.Context, netDef entity.NetworkDefinition) (entity.ProtocolPosition, error)

// HistoryReader reads one chain's decoded protocol transactions.
type HistoryReader func(ctx context.Context, netDef entity.NetworkDefinition) ([]entity.ProtocolTransaction, error)

// Runner fans a per-chain read out over the requested chains with the
// isolation rules shared by all adapters: unsupported chains are skipped before
// any I/O and a failing chain never affects its siblings.
type Runner struct {
	Protocol        entity.Protocol
	Networks        port.NetworkDefinitionProvider
	Logger          port.Logger
	Supports        func(chainID uint64) bool
	FallbackOnError bool
	MaxConcurrency  int
}

// eligible returns the unique requested chains that are supported and tracked, in request order.
func (r Runner) eligible(chainIDs []uint64) []entity.NetworkDefinition {
	seen := make(map[uint64]struct{}, len(chainIDs))
	defs := make([]entity.NetworkDefinition, 0, len(chainIDs))
	for _, id := range chainIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if !r.Supports(id) {
			r.Logger.Debug("Chain not supported by protocol, skipping", "protocol", r.Protocol, "chain_id", id)
			continue
		}
		def, ok := r.Networks.GetNetworkDefinitionByChainID(id)
		if !ok {
			r.Logger.Debug("Chain not tracked, skipping", "protocol", r.Protocol, "chain_id", id)
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

func (r Runner) limit() int {
	if r.MaxConcurrency <= 0 {
		return 4
	}
	return r.MaxConcurrency
}

// Positions runs read for every eligible chain. Failed chains are omitted,
// or replaced by a fallback entry when FallbackOnError is set.
func (r Runner) Positions(ctx context.Context, chainIDs []uint64, read PositionReader) map[uint64]entity.ProtocolPosition {
	positions := make(map[uint64]entity.ProtocolPosition)
	defs := r.eligible(chainIDs)
	if len(defs) == 0 {
		return positions
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.limit())
	for _, def := range defs {
		g.Go(func() error {
			pos, err := read(ctx, def)
			if err != nil {
				metrics.ProtocolFetchFailures.WithLabelValues(string(r.Protocol), strconv.FormatUint(def.ChainID, 10), "position").Inc()
				r.Logger.Error("Failed to fetch protocol position", "protocol", r.Protocol, "chain_id", def.ChainID, "error", err)
				if !r.FallbackOnError {
					return nil
				}
				pos = FallbackPosition()
			}
			mu.Lock()
			positions[def.ChainID] = pos
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return positions
}

// History runs read for every eligible chain and concatenates the results in request order.
func (r Runner) History(ctx context.Context, chainIDs []uint64, read HistoryReader) []entity.ProtocolTransaction {
	defs := r.eligible(chainIDs)
	perChain := make([][]entity.ProtocolTransaction, len(defs))

	var g errgroup.Group
	g.SetLimit(r.limit())
	for i, def := range defs {
		g.Go(func() error {
			txs, err := read(ctx, def)
			if err != nil {
				metrics.ProtocolFetchFailures.WithLabelValues(string(r.Protocol), strconv.FormatUint(def.ChainID, 10), "history").Inc()
				r.Logger.Error("Failed to fetch protocol transactions", "protocol", r.Protocol, "chain_id", def.ChainID, "error", err)
				return nil
			}
			perChain[i] = txs
			return nil
		})
	}
	_ = g.Wait()

	var all []entity.ProtocolTransaction
	for _, txs := range perChain {
		all = append(all, txs...)
	}
	return all
}

// FallbackPosition is the placeholder used when a live read fails and fallback is enabled.
func FallbackPosition() entity.ProtocolPosition {
	return entity.ProtocolPosition{
		TotalCollateral:      "0",
		TotalDebt:            "0",
		AvailableBorrows:     "0",
		LiquidationThreshold: "0",
		LTV:                  "0",
		IsFallback:           true,
	}
}
