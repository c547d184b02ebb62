package client

import (
	"context"
	"fmt"
	"time"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EVMClient implements port.BlockchainClient for EVM-compatible chains.
type EVMClient struct {
	ethClient      *ethclient.Client
	netDef         entity.NetworkDefinition
	rpcURL         string
	rpcCallTimeout time.Duration
}

// NewEVMClient dials the primary RPC URL of netDef and then each fallback in turn.
func NewEVMClient(netDef entity.NetworkDefinition, connectionTimeout time.Duration, rpcCallTimeout time.Duration) (port.BlockchainClient, error) {
	rpcURLs := make([]string, 0, 1+len(netDef.FallbackRPCURLs))
	if netDef.PrimaryRPCURL != "" {
		rpcURLs = append(rpcURLs, netDef.PrimaryRPCURL)
	}
	rpcURLs = append(rpcURLs, netDef.FallbackRPCURLs...)
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC URLs configured for network %s", netDef.Name)
	}

	var lastErr error
	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return &EVMClient{ethClient: client, netDef: netDef, rpcURL: rpcURL, rpcCallTimeout: rpcCallTimeout}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// CallContract runs eth_call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, contractAddress string, data []byte) ([]byte, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	to := common.HexToAddress(contractAddress)

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	out, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call to %s on %s failed: %w", contractAddress, c.netDef.Name, err)
	}
	return out, nil
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.ethClient.Close()
}
