package port

import (
	"context"

	"credit_aggregator/internal/domain/entity"
)

// ExplorerClient is an Etherscan-compatible block explorer bound to one chain.
type ExplorerClient interface {
	GetNativeBalance(ctx context.Context, address string) (string, error)
	GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error)
	// GetTransactions returns at most limit transactions, most recent first.
	GetTransactions(ctx context.Context, address string, limit int) ([]entity.Transaction, error)
	GetNFTTransfers(ctx context.Context, address string) ([]entity.NFTTransfer, error)
	ChainID() uint64
}

// ExplorerClientProvider hands out explorer clients per chain.
type ExplorerClientProvider interface {
	GetExplorer(networkDefinition entity.NetworkDefinition) (ExplorerClient, error)
}
