package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/infrastructure/httpclient"
	"credit_aggregator/internal/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

var stablecoinSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"DAI":  {},
}

// unpricedMarker is cached for tokens DEX Screener knows no usable pair for.
const unpricedMarker = -1.0

// tokenPriceServiceImpl implements port.TokenPriceService
type tokenPriceServiceImpl struct {
	dexscreenerClient httpclient.DEXScreenerClient
	logger            port.Logger
	cache             *gocache.Cache
	batchSize         int
	maxConcurrency    int
}

// NewTokenPriceService creates a new instance of tokenPriceServiceImpl.
func NewTokenPriceService(
	dsc httpclient.DEXScreenerClient,
	l port.Logger,
	cacheTTL time.Duration,
	batchSize int,
	maxConcurrency int,
) port.TokenPriceService {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &tokenPriceServiceImpl{
		dexscreenerClient: dsc,
		logger:            l,
		cache:             gocache.New(cacheTTL, 2*cacheTTL),
		batchSize:         batchSize,
		maxConcurrency:    maxConcurrency,
	}
}

func cacheKey(dexScreenerChainID, tokenAddress string) string {
	return dexScreenerChainID + ":" + strings.ToLower(tokenAddress)
}

// GetPricesUSD returns cached prices and fetches the missing ones in batches.
// Fetch failures are logged; affected tokens are simply absent from the result.
func (s *tokenPriceServiceImpl) GetPricesUSD(ctx context.Context, dexScreenerChainID string, tokenAddresses []string) map[string]float64 {
	prices := make(map[string]float64, len(tokenAddresses))
	if dexScreenerChainID == "" || len(tokenAddresses) == 0 {
		return prices
	}

	seen := make(map[string]struct{}, len(tokenAddresses))
	var missing []string
	for _, addr := range tokenAddresses {
		lower := strings.ToLower(addr)
		if lower == "" {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		if cached, ok := s.cache.Get(cacheKey(dexScreenerChainID, lower)); ok {
			if price := cached.(float64); price > 0 {
				prices[lower] = price
			}
			continue
		}
		missing = append(missing, lower)
	}
	if len(missing) == 0 {
		return prices
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for _, batch := range utils.BatchStrings(missing, s.batchSize) {
		g.Go(func() error {
			pairs, err := s.dexscreenerClient.GetTokenPairsByAddresses(gctx, dexScreenerChainID, batch)
			if err != nil {
				s.logger.Warn("Failed to get token pairs from DEXScreener",
					"dexScreenerID", dexScreenerChainID,
					"token_addresses_count", len(batch),
					"error", err)
				return nil
			}

			for _, addr := range batch {
				price := s.selectBestPriceFromPairs(pairs, addr)
				if price <= 0 {
					s.cache.SetDefault(cacheKey(dexScreenerChainID, addr), unpricedMarker)
					continue
				}
				s.cache.SetDefault(cacheKey(dexScreenerChainID, addr), price)
				mu.Lock()
				prices[addr] = price
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("Resolved token prices",
		"dexScreenerID", dexScreenerChainID,
		"requested", len(seen),
		"priced", len(prices))
	return prices
}

// selectBestPriceFromPairs prefers the most liquid stablecoin-quoted pair, then the most liquid pair overall.
func (s *tokenPriceServiceImpl) selectBestPriceFromPairs(pairs []httpclient.PairData, baseTokenAddress string) float64 {
	var bestOverall, bestStable *httpclient.PairData

	for i := range pairs {
		pair := &pairs[i]
		if !strings.EqualFold(pair.BaseToken.Address, baseTokenAddress) {
			continue
		}
		if pair.PriceUsd == "" || pair.PriceUsd == "0" {
			continue
		}

		if _, isStable := stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; isStable {
			if bestStable == nil || pair.LiquidityUSD() > bestStable.LiquidityUSD() {
				bestStable = pair
			}
		}
		if bestOverall == nil || pair.LiquidityUSD() > bestOverall.LiquidityUSD() {
			bestOverall = pair
		}
	}

	chosen := bestStable
	if chosen == nil {
		chosen = bestOverall
	}
	if chosen == nil {
		return 0
	}

	price, err := strconv.ParseFloat(chosen.PriceUsd, 64)
	if err != nil {
		s.logger.Warn("Failed to parse token price from DEXScreener",
			"tokenAddress", baseTokenAddress,
			"price_string", chosen.PriceUsd,
			"error", err)
		return 0
	}
	return price
}
