package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/pkg/metrics"
	"credit_aggregator/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultTransactionLimit bounds the per-chain transaction list.
const DefaultTransactionLimit = 100

const subFetchCount = 4

// chainDataFetcherImpl implements port.ChainDataFetcher
type chainDataFetcherImpl struct {
	explorers port.ExplorerClientProvider
	prices    port.TokenPriceService
	logger    port.Logger
	txLimit   int
}

// NewChainDataFetcher creates a fetcher. prices may be nil, in which case USD values stay zero.
func NewChainDataFetcher(
	explorers port.ExplorerClientProvider,
	prices port.TokenPriceService,
	l port.Logger,
	txLimit int,
) port.ChainDataFetcher {
	if txLimit <= 0 {
		txLimit = DefaultTransactionLimit
	}
	return &chainDataFetcherImpl{
		explorers: explorers,
		prices:    prices,
		logger:    l,
		txLimit:   txLimit,
	}
}

// Fetch runs the balance, token, transaction and NFT sub-fetches concurrently.
// Each one fails soft to its zero value; the chain is unavailable only when
// there is no explorer for it or every sub-fetch failed.
func (f *chainDataFetcherImpl) Fetch(ctx context.Context, address string, netDef entity.NetworkDefinition) (entity.ChainSnapshot, error) {
	chainLabel := strconv.FormatUint(netDef.ChainID, 10)
	explorer, err := f.explorers.GetExplorer(netDef)
	if err != nil {
		metrics.ChainFetchFailures.WithLabelValues(chainLabel).Inc()
		return entity.ChainSnapshot{}, fmt.Errorf("chain %d: %w: %v", netDef.ChainID, entity.ErrChainUnavailable, err)
	}

	snapshot := entity.ChainSnapshot{
		ChainID:       netDef.ChainID,
		NativeBalance: "0",
		Tokens:        []entity.TokenBalance{},
		NFTs:          []entity.NFT{},
		Transactions:  []entity.Transaction{},
	}
	var failed atomic.Int32
	var nfts []entity.NFTTransfer

	var g errgroup.Group
	g.Go(func() error {
		balance, err := explorer.GetNativeBalance(ctx, address)
		if err != nil {
			failed.Add(1)
			f.logger.Warn("Failed to fetch native balance", "chain_id", netDef.ChainID, "address", address, "error", err)
			return nil
		}
		snapshot.NativeBalance = balance
		return nil
	})
	g.Go(func() error {
		tokens, err := explorer.GetTokenBalances(ctx, address)
		if err != nil {
			failed.Add(1)
			f.logger.Warn("Failed to fetch token balances", "chain_id", netDef.ChainID, "address", address, "error", err)
			return nil
		}
		if tokens != nil {
			snapshot.Tokens = tokens
		}
		return nil
	})
	g.Go(func() error {
		txs, err := explorer.GetTransactions(ctx, address, f.txLimit)
		if err != nil {
			failed.Add(1)
			f.logger.Warn("Failed to fetch transactions", "chain_id", netDef.ChainID, "address", address, "error", err)
			return nil
		}
		snapshot.Transactions = recentTransactions(txs, f.txLimit)
		return nil
	})
	g.Go(func() error {
		transfers, err := explorer.GetNFTTransfers(ctx, address)
		if err != nil {
			failed.Add(1)
			f.logger.Warn("Failed to fetch NFT transfers", "chain_id", netDef.ChainID, "address", address, "error", err)
			return nil
		}
		nfts = transfers
		return nil
	})
	_ = g.Wait()

	if failed.Load() == subFetchCount {
		metrics.ChainFetchFailures.WithLabelValues(chainLabel).Inc()
		return entity.ChainSnapshot{}, fmt.Errorf("chain %d: %w: all sub-fetches failed", netDef.ChainID, entity.ErrChainUnavailable)
	}

	snapshot.NFTs = dedupNFTs(nfts)
	f.enrichPrices(ctx, netDef, &snapshot)

	f.logger.Debug("Chain snapshot collected",
		"chain_id", netDef.ChainID,
		"tokens", len(snapshot.Tokens),
		"transactions", len(snapshot.Transactions),
		"nfts", len(snapshot.NFTs),
		"failed_sub_fetches", failed.Load())
	return snapshot, nil
}

// recentTransactions orders most-recent-first, keeping API order on ties, and truncates to limit.
func recentTransactions(txs []entity.Transaction, limit int) []entity.Transaction {
	out := make([]entity.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dedupNFTs turns transfer records into holdings, first occurrence of a contract+tokenId wins.
func dedupNFTs(transfers []entity.NFTTransfer) []entity.NFT {
	nfts := make([]entity.NFT, 0, len(transfers))
	seen := make(map[string]struct{}, len(transfers))
	for _, tr := range transfers {
		nft := entity.NFT{
			ContractAddress: tr.ContractAddress,
			TokenID:         tr.TokenID,
			Name:            tr.TokenName,
		}
		key := strings.ToLower(nft.Key())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		nfts = append(nfts, nft)
	}
	return nfts
}

// enrichPrices fills token and native USD values. Missing prices leave the value at zero.
func (f *chainDataFetcherImpl) enrichPrices(ctx context.Context, netDef entity.NetworkDefinition, snapshot *entity.ChainSnapshot) {
	if f.prices == nil || netDef.DEXScreenerChainID == "" {
		return
	}

	addresses := make([]string, 0, len(snapshot.Tokens)+1)
	for _, t := range snapshot.Tokens {
		if t.ContractAddress != "" {
			addresses = append(addresses, t.ContractAddress)
		}
	}
	wrapped := netDef.WrappedNativeTokenAddress
	priceNative := wrapped != "" && !strings.EqualFold(wrapped, entity.ZeroAddress) &&
		utils.ParseDecimal(snapshot.NativeBalance).IsPositive()
	if priceNative {
		addresses = append(addresses, wrapped)
	}
	if len(addresses) == 0 {
		return
	}

	prices := f.prices.GetPricesUSD(ctx, netDef.DEXScreenerChainID, addresses)
	for i := range snapshot.Tokens {
		token := &snapshot.Tokens[i]
		if price, ok := prices[strings.ToLower(token.ContractAddress)]; ok {
			token.ValueUSD = valueUSD(token.Balance, price)
		}
	}
	if priceNative {
		if price, ok := prices[strings.ToLower(wrapped)]; ok {
			snapshot.NativeValueUSD = valueUSD(snapshot.NativeBalance, price)
		} else {
			f.logger.Debug("No price for native asset", "chain_id", netDef.ChainID, "symbol", netDef.NativeSymbol)
		}
	}
}

func valueUSD(amount string, price float64) float64 {
	return utils.ParseDecimal(amount).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
