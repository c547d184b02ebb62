package port

import "context"

// TokenPriceService определяет интерфейс для службы получения цен токенов.
type TokenPriceService interface {
	// GetPricesUSD returns USD prices keyed by lower-cased token address.
	// Tokens without a known price are absent from the result.
	GetPricesUSD(ctx context.Context, dexScreenerChainID string, tokenAddresses []string) map[string]float64
}
