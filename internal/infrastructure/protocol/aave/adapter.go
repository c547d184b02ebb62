package aave

import (
	"context"
	"fmt"
	"math/big"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/protocol"
	"credit_aggregator/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Config wires an Adapter to its collaborators.
type Config struct {
	Networks         port.NetworkDefinitionProvider
	Explorers        port.ExplorerClientProvider
	Clients          port.BlockchainClientProvider
	Logger           port.Logger
	FallbackOnError  bool
	TransactionLimit int
	MaxConcurrency   int
	// Pools overrides PoolAddresses when non-nil.
	Pools map[uint64]string
}

// Adapter reads Aave V3 positions and pool interactions.
type Adapter struct {
	cfg    Config
	pools  map[uint64]string
	runner protocol.Runner
}

// NewAdapter creates an Aave adapter.
func NewAdapter(cfg Config) *Adapter {
	pools := cfg.Pools
	if pools == nil {
		pools = PoolAddresses
	}
	a := &Adapter{cfg: cfg, pools: pools}
	a.runner = protocol.Runner{
		Protocol:        entity.ProtocolAave,
		Networks:        cfg.Networks,
		Logger:          cfg.Logger,
		Supports:        a.SupportsChain,
		FallbackOnError: cfg.FallbackOnError,
		MaxConcurrency:  cfg.MaxConcurrency,
	}
	return a
}

func (a *Adapter) Protocol() entity.Protocol {
	return entity.ProtocolAave
}

// SupportsChain reports whether a pool is deployed on chainID.
func (a *Adapter) SupportsChain(chainID uint64) bool {
	return protocol.IsDeployed(a.pools[chainID])
}

// GetPositions reads getUserAccountData on each supported chain.
func (a *Adapter) GetPositions(ctx context.Context, address string, chainIDs []uint64) map[uint64]entity.ProtocolPosition {
	return a.runner.Positions(ctx, chainIDs, func(ctx context.Context, netDef entity.NetworkDefinition) (entity.ProtocolPosition, error) {
		client, err := a.cfg.Clients.GetClient(netDef)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		data, err := poolABI.Pack("getUserAccountData", common.HexToAddress(address))
		if err != nil {
			return entity.ProtocolPosition{}, fmt.Errorf("pack getUserAccountData: %w", err)
		}
		out, err := client.CallContract(ctx, a.pools[netDef.ChainID], data)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		return decodeAccountData(out)
	})
}

func decodeAccountData(out []byte) (entity.ProtocolPosition, error) {
	values, err := poolABI.Unpack("getUserAccountData", out)
	if err != nil {
		return entity.ProtocolPosition{}, fmt.Errorf("unpack getUserAccountData: %w", err)
	}
	if len(values) != 6 {
		return entity.ProtocolPosition{}, fmt.Errorf("getUserAccountData returned %d values", len(values))
	}
	ints := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return entity.ProtocolPosition{}, fmt.Errorf("getUserAccountData value %d has type %T", i, v)
		}
		ints[i] = n
	}

	pos := entity.ProtocolPosition{}
	fields := []struct {
		dst      *string
		value    *big.Int
		decimals uint8
	}{
		{&pos.TotalCollateral, ints[0], baseCurrencyDecimals},
		{&pos.TotalDebt, ints[1], baseCurrencyDecimals},
		{&pos.AvailableBorrows, ints[2], baseCurrencyDecimals},
		{&pos.LiquidationThreshold, ints[3], percentDecimals},
		{&pos.LTV, ints[4], percentDecimals},
	}
	for _, f := range fields {
		s, err := utils.FormatBigInt(f.value, f.decimals)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		*f.dst = s
	}

	// With no debt the pool reports max uint256; that is "not computable", not a number.
	if ints[1].Sign() > 0 && ints[5].Cmp(math.MaxBig256) != 0 {
		hf, err := utils.FormatBigInt(ints[5], healthFactorDecimals)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		pos.HealthFactor = &hf
	}
	return pos, nil
}

// GetTransactionHistory decodes pool interactions from each supported chain's transaction list.
func (a *Adapter) GetTransactionHistory(ctx context.Context, address string, chainIDs []uint64) []entity.ProtocolTransaction {
	return a.runner.History(ctx, chainIDs, func(ctx context.Context, netDef entity.NetworkDefinition) ([]entity.ProtocolTransaction, error) {
		explorer, err := a.cfg.Explorers.GetExplorer(netDef)
		if err != nil {
			return nil, err
		}
		txs, err := explorer.GetTransactions(ctx, address, a.cfg.TransactionLimit)
		if err != nil {
			return nil, err
		}

		pool := a.pools[netDef.ChainID]
		decimalsCache := make(map[common.Address]uint8)
		var client port.BlockchainClient
		var out []entity.ProtocolTransaction
		for _, tx := range protocol.FilterToContract(txs, pool) {
			t, ok := a.decode(ctx, netDef, tx, &client, decimalsCache)
			if ok {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func (a *Adapter) decode(
	ctx context.Context,
	netDef entity.NetworkDefinition,
	tx entity.Transaction,
	client *port.BlockchainClient,
	decimalsCache map[common.Address]uint8,
) (Transaction, bool) {
	base := Transaction{
		Timestamp:   tx.Timestamp,
		TxHash:      tx.Hash,
		ChainID:     netDef.ChainID,
		BlockNumber: tx.BlockNumber,
	}

	call, err := protocol.DecodeCall(poolABI, tx.Input)
	if err == nil {
		decimals, cached := decimalsCache[call.Asset]
		if !cached {
			if *client == nil {
				if c, cerr := a.cfg.Clients.GetClient(netDef); cerr == nil {
					*client = c
				}
			}
			decimals = protocol.TokenDecimals(ctx, *client, call.Asset)
			decimalsCache[call.Asset] = decimals
		}
		amount, ferr := utils.FormatBigInt(call.Amount, decimals)
		if ferr == nil {
			base.Type = call.Type
			base.Asset = call.Asset.Hex()
			base.Amount = amount
			base.Decoded = true
			return base, true
		}
		err = ferr
	}

	class, ok := protocol.Classify(tx.FunctionName)
	if !ok {
		a.cfg.Logger.Debug("Dropping unrecognized Aave transaction", "tx", tx.Hash, "function", tx.FunctionName, "decode_error", err)
		return Transaction{}, false
	}
	base.Type = class
	base.Asset = protocol.UnknownAsset
	base.Amount = tx.Value
	return base, true
}
