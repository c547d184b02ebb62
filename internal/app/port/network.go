package port

import (
	"context"

	"credit_aggregator/internal/domain/entity"
)

// BlockchainClient defines the interface for read-only calls against an EVM network.
type BlockchainClient interface {
	// CallContract executes an eth_call against the latest block and returns the raw result.
	CallContract(ctx context.Context, contractAddress string, data []byte) ([]byte, error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns the tracked network definitions in configured order.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByChainID returns a tracked network definition by chain id.
	GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool)
}

// BlockchainClientProvider defines the interface for providing blockchain clients.
type BlockchainClientProvider interface {
	GetClient(networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}
