package aave

import "credit_aggregator/internal/domain/entity"

// Transaction is an Aave pool action recovered from an explorer transaction.
type Transaction struct {
	Type        entity.InteractionType
	Asset       string
	Amount      string
	Timestamp   int64
	TxHash      string
	ChainID     uint64
	BlockNumber uint64
	// Decoded is false when the action was inferred from the function name only.
	Decoded bool
}

// Interaction implements entity.ProtocolTransaction.
func (t Transaction) Interaction() entity.ProtocolInteraction {
	return entity.ProtocolInteraction{
		Protocol:   entity.ProtocolAave,
		Type:       t.Type,
		Amount:     t.Amount,
		Asset:      t.Asset,
		Timestamp:  t.Timestamp,
		ChainID:    t.ChainID,
		TxHash:     t.TxHash,
		IsFallback: !t.Decoded,
	}
}
