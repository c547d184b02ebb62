package morpho

import "credit_aggregator/internal/domain/entity"

// Action is Morpho's own vocabulary for user actions.
type Action string

const (
	ActionSupply    Action = "supply"
	ActionWithdraw  Action = "withdraw"
	ActionBorrow    Action = "borrow"
	ActionRepay     Action = "repay"
	ActionLiquidate Action = "liquidate"
	ActionFlashloan Action = "flashloan"
)

// actionFor maps a normalized class back into Morpho vocabulary.
func actionFor(class entity.InteractionType) Action {
	if class == entity.InteractionDeposit {
		return ActionSupply
	}
	return Action(class)
}

// Transaction is a Morpho action recovered from an explorer transaction.
type Transaction struct {
	Action      Action
	PoolToken   string
	Amount      string
	Timestamp   int64
	TxHash      string
	ChainID     uint64
	BlockNumber uint64
	Decoded     bool
}

// Interaction implements entity.ProtocolTransaction. Supply is reported as deposit.
func (t Transaction) Interaction() entity.ProtocolInteraction {
	kind := entity.InteractionType(t.Action)
	if t.Action == ActionSupply {
		kind = entity.InteractionDeposit
	}
	return entity.ProtocolInteraction{
		Protocol:   entity.ProtocolMorpho,
		Type:       kind,
		Amount:     t.Amount,
		Asset:      t.PoolToken,
		Timestamp:  t.Timestamp,
		ChainID:    t.ChainID,
		TxHash:     t.TxHash,
		IsFallback: !t.Decoded,
	}
}
