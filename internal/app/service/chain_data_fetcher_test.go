package service

import (
	"context"
	"errors"
	"testing"

	"credit_aggregator/internal/app/port/porttest"
	"credit_aggregator/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	holder    = "0x4444444444444444444444444444444444444444"
	usdcToken = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	junkToken = "0x5555555555555555555555555555555555555555"
)

func fetcherFixture(explorer *porttest.Explorer) (entity.NetworkDefinition, *porttest.ExplorerProvider) {
	def := porttest.NewNetworks(1).Defs[0]
	explorer.Chain = def.ChainID
	return def, &porttest.ExplorerProvider{Explorers: map[uint64]*porttest.Explorer{def.ChainID: explorer}}
}

func TestChainDataFetcher_FullSnapshot(t *testing.T) {
	explorer := &porttest.Explorer{
		Balance: "1.5",
		Tokens: []entity.TokenBalance{
			{ContractAddress: usdcToken, Symbol: "USDC", Balance: "250.5"},
			{ContractAddress: junkToken, Symbol: "JUNK", Balance: "1000"},
		},
		Txs: []entity.Transaction{
			{Hash: "old", Timestamp: 100},
			{Hash: "new", Timestamp: 300},
			{Hash: "tie-a", Timestamp: 200},
			{Hash: "tie-b", Timestamp: 200},
		},
		NFTs: []entity.NFTTransfer{
			{ContractAddress: "0xnft", TokenID: "1", TokenName: "First"},
			{ContractAddress: "0xnft", TokenID: "2", TokenName: "Second"},
			{ContractAddress: "0xNFT", TokenID: "1", TokenName: "Duplicate"},
		},
	}
	def, provider := fetcherFixture(explorer)
	prices := porttest.Prices{def.DEXScreenerChainID: {
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": 1.0,
		def.WrappedNativeTokenAddress:                2000,
	}}

	snap, err := NewChainDataFetcher(provider, prices, porttest.NopLogger{}, 3).Fetch(context.Background(), holder, def)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), snap.ChainID)
	assert.Equal(t, "1.5", snap.NativeBalance)
	assert.InDelta(t, 3000, snap.NativeValueUSD, 1e-9)

	require.Len(t, snap.Tokens, 2)
	assert.Equal(t, "USDC", snap.Tokens[0].Symbol)
	assert.InDelta(t, 250.5, snap.Tokens[0].ValueUSD, 1e-9)
	assert.Zero(t, snap.Tokens[1].ValueUSD)

	require.Len(t, snap.Transactions, 3)
	assert.Equal(t, "new", snap.Transactions[0].Hash)
	assert.Equal(t, "tie-a", snap.Transactions[1].Hash)
	assert.Equal(t, "tie-b", snap.Transactions[2].Hash)
	assert.Equal(t, 3, explorer.LastLimit())

	require.Len(t, snap.NFTs, 2)
	assert.Equal(t, "First", snap.NFTs[0].Name)
	assert.Equal(t, "2", snap.NFTs[1].TokenID)
}

func TestChainDataFetcher_SubFetchFailuresAreSoft(t *testing.T) {
	explorer := &porttest.Explorer{
		BalanceErr: errors.New("timeout"),
		TokensErr:  errors.New("500"),
		Txs:        []entity.Transaction{{Hash: "only", Timestamp: 1}},
		NFTsErr:    errors.New("rate limited"),
	}
	def, provider := fetcherFixture(explorer)

	snap, err := NewChainDataFetcher(provider, nil, porttest.NopLogger{}, 0).Fetch(context.Background(), holder, def)
	require.NoError(t, err)

	assert.Equal(t, "0", snap.NativeBalance)
	assert.NotNil(t, snap.Tokens)
	assert.Empty(t, snap.Tokens)
	assert.Empty(t, snap.NFTs)
	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, DefaultTransactionLimit, explorer.LastLimit())
	for _, method := range []string{"balance", "tokens", "transactions", "nfts"} {
		assert.Equal(t, 1, explorer.CallCount(method), method)
	}
}

func TestChainDataFetcher_Unavailable(t *testing.T) {
	t.Run("every sub-fetch failed", func(t *testing.T) {
		boom := errors.New("connection refused")
		def, provider := fetcherFixture(&porttest.Explorer{BalanceErr: boom, TokensErr: boom, TxsErr: boom, NFTsErr: boom})

		_, err := NewChainDataFetcher(provider, nil, porttest.NopLogger{}, 100).Fetch(context.Background(), holder, def)
		assert.ErrorIs(t, err, entity.ErrChainUnavailable)
	})

	t.Run("no explorer", func(t *testing.T) {
		def := porttest.NewNetworks(42).Defs[0]
		provider := &porttest.ExplorerProvider{}

		_, err := NewChainDataFetcher(provider, nil, porttest.NopLogger{}, 100).Fetch(context.Background(), holder, def)
		assert.ErrorIs(t, err, entity.ErrChainUnavailable)
	})
}

func TestChainDataFetcher_NoPriceSourceLeavesZeroValues(t *testing.T) {
	explorer := &porttest.Explorer{Balance: "2", Tokens: []entity.TokenBalance{{ContractAddress: usdcToken, Balance: "10"}}}
	def, provider := fetcherFixture(explorer)
	def.DEXScreenerChainID = ""

	snap, err := NewChainDataFetcher(provider, porttest.Prices{}, porttest.NopLogger{}, 100).Fetch(context.Background(), holder, def)
	require.NoError(t, err)
	assert.Zero(t, snap.NativeValueUSD)
	assert.Zero(t, snap.Tokens[0].ValueUSD)
}
