package morpho

import (
	"context"
	"fmt"
	"math/big"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/protocol"
	"credit_aggregator/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
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
	// Contracts overrides ContractAddresses when non-nil.
	Contracts map[uint64]string
}

// Adapter reads Morpho positions and interactions.
type Adapter struct {
	cfg       Config
	contracts map[uint64]string
	runner    protocol.Runner
}

// NewAdapter creates a Morpho adapter.
func NewAdapter(cfg Config) *Adapter {
	contracts := cfg.Contracts
	if contracts == nil {
		contracts = ContractAddresses
	}
	a := &Adapter{cfg: cfg, contracts: contracts}
	a.runner = protocol.Runner{
		Protocol:        entity.ProtocolMorpho,
		Networks:        cfg.Networks,
		Logger:          cfg.Logger,
		Supports:        a.SupportsChain,
		FallbackOnError: cfg.FallbackOnError,
		MaxConcurrency:  cfg.MaxConcurrency,
	}
	return a
}

func (a *Adapter) Protocol() entity.Protocol {
	return entity.ProtocolMorpho
}

func (a *Adapter) SupportsChain(chainID uint64) bool {
	return protocol.IsDeployed(a.contracts[chainID])
}

// GetPositions reads position(user). Supplied maps to collateral and borrowed to debt;
// Morpho exposes no health factor through this view.
func (a *Adapter) GetPositions(ctx context.Context, address string, chainIDs []uint64) map[uint64]entity.ProtocolPosition {
	return a.runner.Positions(ctx, chainIDs, func(ctx context.Context, netDef entity.NetworkDefinition) (entity.ProtocolPosition, error) {
		client, err := a.cfg.Clients.GetClient(netDef)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		data, err := morphoABI.Pack("position", common.HexToAddress(address))
		if err != nil {
			return entity.ProtocolPosition{}, fmt.Errorf("pack position: %w", err)
		}
		out, err := client.CallContract(ctx, a.contracts[netDef.ChainID], data)
		if err != nil {
			return entity.ProtocolPosition{}, err
		}
		return decodePosition(out)
	})
}

func decodePosition(out []byte) (entity.ProtocolPosition, error) {
	values, err := morphoABI.Unpack("position", out)
	if err != nil {
		return entity.ProtocolPosition{}, fmt.Errorf("unpack position: %w", err)
	}
	if len(values) != 2 {
		return entity.ProtocolPosition{}, fmt.Errorf("position returned %d values", len(values))
	}
	supplied, ok := values[0].(*big.Int)
	if !ok {
		return entity.ProtocolPosition{}, fmt.Errorf("position supply has type %T", values[0])
	}
	borrowed, ok := values[1].(*big.Int)
	if !ok {
		return entity.ProtocolPosition{}, fmt.Errorf("position borrow has type %T", values[1])
	}

	collateral, err := utils.FormatBigInt(supplied, amountDecimals)
	if err != nil {
		return entity.ProtocolPosition{}, err
	}
	debt, err := utils.FormatBigInt(borrowed, amountDecimals)
	if err != nil {
		return entity.ProtocolPosition{}, err
	}
	return entity.ProtocolPosition{
		TotalCollateral:      collateral,
		TotalDebt:            debt,
		AvailableBorrows:     "0",
		LiquidationThreshold: "0",
		LTV:                  "0",
	}, nil
}

// GetTransactionHistory decodes Morpho interactions from each supported chain's transaction list.
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

		var out []entity.ProtocolTransaction
		for _, tx := range protocol.FilterToContract(txs, a.contracts[netDef.ChainID]) {
			if t, ok := a.decode(netDef.ChainID, tx); ok {
				out = append(out, t)
			}
		}
		return out, nil
	})
}

func (a *Adapter) decode(chainID uint64, tx entity.Transaction) (Transaction, bool) {
	t := Transaction{
		Timestamp:   tx.Timestamp,
		TxHash:      tx.Hash,
		ChainID:     chainID,
		BlockNumber: tx.BlockNumber,
	}

	call, err := protocol.DecodeCall(morphoABI, tx.Input)
	if err == nil {
		amount, ferr := utils.FormatBigInt(call.Amount, amountDecimals)
		if ferr == nil {
			t.Action = actionFor(call.Type)
			t.PoolToken = call.Asset.Hex()
			t.Amount = amount
			t.Decoded = true
			return t, true
		}
		err = ferr
	}

	class, ok := protocol.Classify(tx.FunctionName)
	if !ok {
		a.cfg.Logger.Debug("Dropping unrecognized Morpho transaction", "tx", tx.Hash, "function", tx.FunctionName, "decode_error", err)
		return Transaction{}, false
	}
	t.Action = actionFor(class)
	t.PoolToken = protocol.UnknownAsset
	t.Amount = tx.Value
	return t, true
}
