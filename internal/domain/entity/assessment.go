package entity

// RiskKind tags a detected risk factor.
type RiskKind string

const (
	RiskHighGas         RiskKind = "high_gas"
	RiskConcentration   RiskKind = "concentration"
	RiskRecentBorrowing RiskKind = "recent_borrowing"
	RiskLowLiquidity    RiskKind = "low_liquidity"
)

// RiskFactor is a structured risk detection. Symbol and ChainID are only set for concentration.
type RiskFactor struct {
	Kind    RiskKind `json:"kind"`
	Symbol  string   `json:"symbol,omitempty"`
	ChainID uint64   `json:"chainId,omitempty"`
	Message string   `json:"message"`
}

// ScoreBreakdown holds the points awarded by each scoring factor and the inputs behind them.
type ScoreBreakdown struct {
	Base              int     `json:"base"`
	PortfolioValueUSD float64 `json:"portfolioValueUSD"`
	PortfolioPoints   int     `json:"portfolioPoints"`
	RepaymentRatio    float64 `json:"repaymentRatio"`
	RepaymentPoints   int     `json:"repaymentPoints"`
	ActiveChains      int     `json:"activeChains"`
	MultiChainPoints  int     `json:"multiChainPoints"`
	TransactionCount  int     `json:"transactionCount"`
	TransactionPoints int     `json:"transactionPoints"`
	TokenCount        int     `json:"tokenCount"`
	DiversityPoints   int     `json:"diversityPoints"`
	UnclampedScore    int     `json:"unclampedScore"`
}

// ScoreResult is the output of the scoring engine.
type ScoreResult struct {
	Score           int            `json:"score"`
	RiskFactors     []string       `json:"riskFactors"`
	RiskDetails     []RiskFactor   `json:"riskDetails"`
	Recommendations []string       `json:"recommendations"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
}

// CreditAssessment is the final aggregate for one address.
type CreditAssessment struct {
	Address              string                                   `json:"address"`
	Chains               []ChainSnapshot                          `json:"chains"`
	CreditScore          int                                      `json:"creditScore"`
	RiskFactors          []string                                 `json:"riskFactors"`
	RiskDetails          []RiskFactor                             `json:"riskDetails"`
	Recommendations      []string                                 `json:"recommendations"`
	Positions            map[Protocol]map[uint64]ProtocolPosition `json:"positions"`
	ProtocolInteractions []ProtocolInteraction                    `json:"protocolInteractions"`
	Breakdown            ScoreBreakdown                           `json:"breakdown"`
}

// SimulationAction is a hypothetical action evaluated by the impact simulator.
type SimulationAction string

const (
	SimulateDeposit SimulationAction = "deposit"
	SimulateSupply  SimulationAction = "supply"
	SimulateBorrow  SimulationAction = "borrow"
	SimulateRepay   SimulationAction = "repay"
)

// CreditImpact is the projected effect of a hypothetical action on a score.
type CreditImpact struct {
	Action       SimulationAction `json:"action"`
	Amount       float64          `json:"amount"`
	CurrentScore int              `json:"currentScore"`
	NewScore     int              `json:"newScore"`
	ScoreChange  int              `json:"scoreChange"`
	Factors      []string         `json:"factors"`
}

// BatchResult pairs batch assessments with per-address failures.
type BatchResult struct {
	Results []CreditAssessment `json:"results"`
	Errors  []AddressError     `json:"errors,omitempty"`
}

// AddressError reports why an address in a batch was not assessed.
type AddressError struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

// Known reports whether a is one of the modeled simulation actions.
func (a SimulationAction) Known() bool {
	switch a {
	case SimulateDeposit, SimulateSupply, SimulateBorrow, SimulateRepay:
		return true
	}
	return false
}
