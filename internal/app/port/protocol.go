package port

import (
	"context"

	"credit_aggregator/internal/domain/entity"
)

// ProtocolAdapter reads positions and history for one lending protocol.
// Unsupported chains are skipped without any network call, and per-chain
// failures never surface as errors.
type ProtocolAdapter interface {
	Protocol() entity.Protocol
	SupportsChain(chainID uint64) bool
	GetPositions(ctx context.Context, address string, chainIDs []uint64) map[uint64]entity.ProtocolPosition
	GetTransactionHistory(ctx context.Context, address string, chainIDs []uint64) []entity.ProtocolTransaction
}
