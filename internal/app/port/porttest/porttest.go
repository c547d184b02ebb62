// Package porttest provides in-memory implementations of the port interfaces for tests.
package porttest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
)

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// Networks is a fixed NetworkDefinitionProvider.
type Networks struct {
	Defs []entity.NetworkDefinition
}

// NewNetworks builds definitions for chainIDs with test explorer and price identifiers.
func NewNetworks(chainIDs ...uint64) *Networks {
	defs := make([]entity.NetworkDefinition, 0, len(chainIDs))
	for _, id := range chainIDs {
		defs = append(defs, entity.NetworkDefinition{
			ChainID:                   id,
			Name:                      fmt.Sprintf("chain-%d", id),
			Identifier:                fmt.Sprintf("chain%d", id),
			NativeSymbol:              "ETH",
			Decimals:                  18,
			PrimaryRPCURL:             fmt.Sprintf("https://rpc.test/%d", id),
			ExplorerAPIURL:            fmt.Sprintf("https://explorer.test/%d", id),
			DEXScreenerChainID:        fmt.Sprintf("dex%d", id),
			WrappedNativeTokenAddress: fmt.Sprintf("0x%040d", id),
		})
	}
	return &Networks{Defs: defs}
}

func (n *Networks) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	return append([]entity.NetworkDefinition(nil), n.Defs...)
}

func (n *Networks) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	for _, d := range n.Defs {
		if d.ChainID == chainID {
			return d, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// Explorer is a canned ExplorerClient that counts calls per method.
type Explorer struct {
	Chain      uint64
	Balance    string
	BalanceErr error
	Tokens     []entity.TokenBalance
	TokensErr  error
	Txs        []entity.Transaction
	TxsErr     error
	NFTs       []entity.NFTTransfer
	NFTsErr    error

	mu    sync.Mutex
	calls map[string]int
	limit int
}

func (e *Explorer) record(method string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = make(map[string]int)
	}
	e.calls[method]++
}

// CallCount returns how many times method was invoked.
func (e *Explorer) CallCount(method string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[method]
}

// LastLimit returns the limit passed to the most recent GetTransactions call.
func (e *Explorer) LastLimit() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.limit
}

func (e *Explorer) ChainID() uint64 { return e.Chain }

func (e *Explorer) GetNativeBalance(ctx context.Context, address string) (string, error) {
	e.record("balance")
	if e.BalanceErr != nil {
		return "0", e.BalanceErr
	}
	if e.Balance == "" {
		return "0", nil
	}
	return e.Balance, nil
}

func (e *Explorer) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	e.record("tokens")
	if e.TokensErr != nil {
		return nil, e.TokensErr
	}
	return append([]entity.TokenBalance(nil), e.Tokens...), nil
}

func (e *Explorer) GetTransactions(ctx context.Context, address string, limit int) ([]entity.Transaction, error) {
	e.record("transactions")
	e.mu.Lock()
	e.limit = limit
	e.mu.Unlock()
	if e.TxsErr != nil {
		return nil, e.TxsErr
	}
	return append([]entity.Transaction(nil), e.Txs...), nil
}

func (e *Explorer) GetNFTTransfers(ctx context.Context, address string) ([]entity.NFTTransfer, error) {
	e.record("nfts")
	if e.NFTsErr != nil {
		return nil, e.NFTsErr
	}
	return append([]entity.NFTTransfer(nil), e.NFTs...), nil
}

// ExplorerProvider serves Explorers by chain id and records requests.
type ExplorerProvider struct {
	Explorers map[uint64]*Explorer
	Errs      map[uint64]error

	mu       sync.Mutex
	requests map[uint64]int
}

func (p *ExplorerProvider) GetExplorer(netDef entity.NetworkDefinition) (port.ExplorerClient, error) {
	p.mu.Lock()
	if p.requests == nil {
		p.requests = make(map[uint64]int)
	}
	p.requests[netDef.ChainID]++
	p.mu.Unlock()

	if err := p.Errs[netDef.ChainID]; err != nil {
		return nil, err
	}
	e, ok := p.Explorers[netDef.ChainID]
	if !ok {
		return nil, fmt.Errorf("chain %d: %w", netDef.ChainID, entity.ErrUnsupportedChain)
	}
	return e, nil
}

// Requested returns how many clients were requested for chainID.
func (p *ExplorerProvider) Requested(chainID uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[chainID]
}

// CallHandler answers an eth_call.
type CallHandler func(to string, data []byte) ([]byte, error)

// ChainClient is a BlockchainClient backed by a CallHandler.
type ChainClient struct {
	Def     entity.NetworkDefinition
	Handler CallHandler

	mu    sync.Mutex
	calls []string
}

func (c *ChainClient) CallContract(ctx context.Context, contractAddress string, data []byte) ([]byte, error) {
	c.mu.Lock()
	c.calls = append(c.calls, strings.ToLower(contractAddress))
	c.mu.Unlock()
	if c.Handler == nil {
		return nil, fmt.Errorf("no handler")
	}
	return c.Handler(contractAddress, data)
}

func (c *ChainClient) Definition() entity.NetworkDefinition { return c.Def }

// Calls returns the lower-cased targets of all calls so far.
func (c *ChainClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// ClientProvider serves ChainClients by chain id and records requests.
type ClientProvider struct {
	Clients map[uint64]*ChainClient
	Errs    map[uint64]error

	mu       sync.Mutex
	requests map[uint64]int
}

func (p *ClientProvider) GetClient(netDef entity.NetworkDefinition) (port.BlockchainClient, error) {
	p.mu.Lock()
	if p.requests == nil {
		p.requests = make(map[uint64]int)
	}
	p.requests[netDef.ChainID]++
	p.mu.Unlock()

	if err := p.Errs[netDef.ChainID]; err != nil {
		return nil, err
	}
	c, ok := p.Clients[netDef.ChainID]
	if !ok {
		return nil, fmt.Errorf("no client for chain %d", netDef.ChainID)
	}
	return c, nil
}

// Requested returns how many clients were requested for chainID.
func (p *ClientProvider) Requested(chainID uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[chainID]
}

// Prices is a static TokenPriceService keyed by DEX Screener chain id then lower-case address.
type Prices map[string]map[string]float64

func (p Prices) GetPricesUSD(ctx context.Context, dexScreenerChainID string, tokenAddresses []string) map[string]float64 {
	out := make(map[string]float64)
	for _, addr := range tokenAddresses {
		if price, ok := p[dexScreenerChainID][strings.ToLower(addr)]; ok {
			out[strings.ToLower(addr)] = price
		}
	}
	return out
}
