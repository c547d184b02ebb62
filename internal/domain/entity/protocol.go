package entity

// Protocol identifies a supported lending protocol.
type Protocol string

const (
	ProtocolAave   Protocol = "aave"
	ProtocolMorpho Protocol = "morpho"
)

// InteractionType is the normalized bucket of a protocol action.
type InteractionType string

const (
	InteractionDeposit   InteractionType = "deposit"
	InteractionWithdraw  InteractionType = "withdraw"
	InteractionBorrow    InteractionType = "borrow"
	InteractionRepay     InteractionType = "repay"
	InteractionLiquidate InteractionType = "liquidate"
	InteractionFlashloan InteractionType = "flashloan"
)

// ProtocolPosition is a protocol's current position for an address on one chain.
// A chain missing from a position map means the read was skipped or failed and
// no fallback was requested. IsFallback marks a placeholder produced after a failed read,
// so a real zero position (IsFallback=false, all fields "0") stays distinguishable.
type ProtocolPosition struct {
	TotalCollateral      string `json:"totalCollateral"`
	TotalDebt            string `json:"totalDebt"`
	AvailableBorrows     string `json:"availableBorrows"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	LTV                  string `json:"ltv"`
	// HealthFactor is nil when it cannot be computed (no debt, or not exposed by the protocol).
	HealthFactor *string `json:"healthFactor,omitempty"`
	IsFallback   bool    `json:"isFallback"`
}

// ProtocolInteraction is one normalized historical action.
type ProtocolInteraction struct {
	Protocol   Protocol        `json:"protocol"`
	Type       InteractionType `json:"type"`
	Amount     string          `json:"amount"`
	Asset      string          `json:"asset"`
	Timestamp  int64           `json:"timestamp"`
	ChainID    uint64          `json:"chainId"`
	TxHash     string          `json:"txHash"`
	IsFallback bool            `json:"isFallback,omitempty"`
}

// ProtocolTransaction is a protocol-specific transaction record that can be
// flattened into the shared interaction shape.
type ProtocolTransaction interface {
	Interaction() ProtocolInteraction
}
