package service

import (
	"fmt"
	"math"
	"time"

	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	BaseScore = 300
	MaxScore  = 850
)

const (
	gasSpendingThreshold   = 50
	concentrationShare     = 0.8
	lowLiquidityFloor      = 0.1
	recentBorrowingWindow  = 30 * 24 * time.Hour
	engagementWindow       = 90 * 24 * time.Hour
	repaymentAdviceBelow   = 700
	bestRatesFrom          = 800
	minInteractionChains   = 2
	minRecentInteractions  = 5
	borrowToRepayImbalance = 2
)

const (
	RecommendRepayment   = "Improve your repayment history by repaying outstanding borrows on time"
	RecommendDiversify   = "Diversify your asset holdings to reduce concentration risk"
	RecommendMultiChain  = "Expand your activity to multiple chains to strengthen your cross-chain profile"
	RecommendEngagement  = "Increase your protocol engagement with regular deposits and repayments"
	RecommendBestRates   = "You qualify for the best rates on supported lending protocols"
	riskHighGasMessage   = "High gas spending detected across transactions"
	riskBorrowingMessage = "High recent borrowing activity relative to repayments"
	riskLiquidityMessage = "Low native token liquidity across chains"
)

// tier awards points once a value passes its bound. Ladders are ordered highest first.
type tier struct {
	bound  float64
	points int
}

var (
	portfolioTiers   = []tier{{50_000, 200}, {10_000, 150}, {5_000, 100}, {1_000, 50}}
	repaymentTiers   = []tier{{0.9, 150}, {0.7, 100}, {0.5, 50}}
	transactionTiers = []tier{{500, 100}, {200, 75}, {100, 50}, {50, 25}}
	diversityTiers   = []tier{{20, 75}, {10, 50}, {5, 25}}
)

const pointsPerActiveChain = 25

// above picks the first tier strictly exceeded by v.
func above(ladder []tier, v float64) int {
	for _, t := range ladder {
		if v > t.bound {
			return t.points
		}
	}
	return 0
}

// atLeast picks the first tier reached by v.
func atLeast(ladder []tier, v float64) int {
	for _, t := range ladder {
		if v >= t.bound {
			return t.points
		}
	}
	return 0
}

// CreditScoringEngine computes scores from aggregated chain data. It holds no mutable state.
type CreditScoringEngine struct {
	now func() time.Time
}

// NewCreditScoringEngine creates an engine. A nil clock means time.Now.
func NewCreditScoringEngine(now func() time.Time) *CreditScoringEngine {
	if now == nil {
		now = time.Now
	}
	return &CreditScoringEngine{now: now}
}

// Score evaluates the five weighted factors, then risk factors and recommendations.
func (e *CreditScoringEngine) Score(chains []entity.ChainSnapshot, interactions []entity.ProtocolInteraction) entity.ScoreResult {
	now := e.now()
	b := entity.ScoreBreakdown{Base: BaseScore}

	b.PortfolioValueUSD = portfolioValue(chains).InexactFloat64()
	b.PortfolioPoints = above(portfolioTiers, b.PortfolioValueUSD)

	var borrows int
	b.RepaymentRatio, borrows = repaymentRatio(interactions)
	// Without borrows there is no history to judge, so the perfect ratio earns nothing.
	if borrows > 0 {
		b.RepaymentPoints = atLeast(repaymentTiers, b.RepaymentRatio)
	}

	for _, c := range chains {
		if utils.ParseDecimal(c.NativeBalance).IsPositive() || len(c.Tokens) > 0 {
			b.ActiveChains++
		}
		b.TransactionCount += len(c.Transactions)
		b.TokenCount += len(c.Tokens)
	}
	b.MultiChainPoints = pointsPerActiveChain * b.ActiveChains
	b.TransactionPoints = above(transactionTiers, float64(b.TransactionCount))
	b.DiversityPoints = above(diversityTiers, float64(b.TokenCount))

	b.UnclampedScore = b.Base + b.PortfolioPoints + b.RepaymentPoints + b.MultiChainPoints + b.TransactionPoints + b.DiversityPoints
	score := min(b.UnclampedScore, MaxScore)

	risks := detectRisks(chains, interactions, now)
	messages := make([]string, len(risks))
	for i, r := range risks {
		messages[i] = r.Message
	}

	return entity.ScoreResult{
		Score:           score,
		RiskFactors:     messages,
		RiskDetails:     risks,
		Recommendations: recommend(score, risks, interactions, now),
		Breakdown:       b,
	}
}

// portfolioValue sums native holdings (USD when priced, raw units otherwise) and token USD values.
func portfolioValue(chains []entity.ChainSnapshot) decimal.Decimal {
	total := decimal.Zero
	for _, c := range chains {
		if c.NativeValueUSD > 0 {
			total = total.Add(decimal.NewFromFloat(c.NativeValueUSD))
		} else {
			total = total.Add(utils.ParseDecimal(c.NativeBalance))
		}
		for _, t := range c.Tokens {
			total = total.Add(decimal.NewFromFloat(t.ValueUSD))
		}
	}
	return total
}

// repaymentRatio is repays/borrows, or 1 when there are no borrows.
func repaymentRatio(interactions []entity.ProtocolInteraction) (float64, int) {
	var borrows, repays int
	for _, i := range interactions {
		switch i.Type {
		case entity.InteractionBorrow:
			borrows++
		case entity.InteractionRepay:
			repays++
		}
	}
	if borrows == 0 {
		return 1, 0
	}
	return float64(repays) / float64(borrows), borrows
}

func within(ts int64, now time.Time, window time.Duration) bool {
	return ts >= now.Add(-window).Unix()
}

func detectRisks(chains []entity.ChainSnapshot, interactions []entity.ProtocolInteraction, now time.Time) []entity.RiskFactor {
	risks := []entity.RiskFactor{}

	gas := decimal.Zero
	for _, c := range chains {
		for _, tx := range c.Transactions {
			gas = gas.Add(utils.ParseDecimal(tx.GasUsed))
		}
	}
	if gas.GreaterThan(decimal.NewFromInt(gasSpendingThreshold)) {
		risks = append(risks, entity.RiskFactor{Kind: entity.RiskHighGas, Message: riskHighGasMessage})
	}

	for _, c := range chains {
		if r, ok := concentration(c); ok {
			risks = append(risks, r)
		}
	}

	var recentBorrows, recentRepays int
	for _, i := range interactions {
		if !within(i.Timestamp, now, recentBorrowingWindow) {
			continue
		}
		switch i.Type {
		case entity.InteractionBorrow:
			recentBorrows++
		case entity.InteractionRepay:
			recentRepays++
		}
	}
	if recentBorrows > borrowToRepayImbalance*recentRepays {
		risks = append(risks, entity.RiskFactor{Kind: entity.RiskRecentBorrowing, Message: riskBorrowingMessage})
	}

	native := decimal.Zero
	for _, c := range chains {
		native = native.Add(utils.ParseDecimal(c.NativeBalance))
	}
	if native.LessThan(decimal.NewFromFloat(lowLiquidityFloor)) {
		risks = append(risks, entity.RiskFactor{Kind: entity.RiskLowLiquidity, Message: riskLiquidityMessage})
	}
	return risks
}

// concentration reports the chain's largest token when it holds more than 80% of the chain's token value.
func concentration(c entity.ChainSnapshot) (entity.RiskFactor, bool) {
	var total float64
	top := -1
	for i, t := range c.Tokens {
		total += t.ValueUSD
		if top < 0 || t.ValueUSD > c.Tokens[top].ValueUSD {
			top = i
		}
	}
	if top < 0 || total <= 0 || c.Tokens[top].ValueUSD/total <= concentrationShare {
		return entity.RiskFactor{}, false
	}
	symbol := c.Tokens[top].Symbol
	return entity.RiskFactor{
		Kind:    entity.RiskConcentration,
		Symbol:  symbol,
		ChainID: c.ChainID,
		Message: fmt.Sprintf("High concentration in %s on chain %d", symbol, c.ChainID),
	}, true
}

func recommend(score int, risks []entity.RiskFactor, interactions []entity.ProtocolInteraction, now time.Time) []string {
	recs := []string{}

	hasBorrows := false
	chains := make(map[uint64]struct{})
	recent := 0
	for _, i := range interactions {
		if i.Type == entity.InteractionBorrow {
			hasBorrows = true
		}
		chains[i.ChainID] = struct{}{}
		if within(i.Timestamp, now, engagementWindow) {
			recent++
		}
	}

	// Repayment advice needs borrows to judge.
	if score < repaymentAdviceBelow && hasBorrows {
		recs = append(recs, RecommendRepayment)
	}
	for _, r := range risks {
		if r.Kind == entity.RiskConcentration {
			recs = append(recs, RecommendDiversify)
			break
		}
	}
	if len(chains) < minInteractionChains {
		recs = append(recs, RecommendMultiChain)
	}
	if recent < minRecentInteractions {
		recs = append(recs, RecommendEngagement)
	}
	if score >= bestRatesFrom {
		recs = append(recs, RecommendBestRates)
	}
	return recs
}

// Simulated impact caps per action, in score points, and the amount that earns one point.
const (
	depositImpactCap = 20
	depositPerPoint  = 100
	borrowImpactCap  = 15
	borrowPerPoint   = 200
	repayImpactCap   = 10
	repayPerPoint    = 300
)

// SimulateImpact projects the score after a hypothetical action of the given amount.
func (e *CreditScoringEngine) SimulateImpact(current int, action entity.SimulationAction, amount float64) entity.CreditImpact {
	impact := entity.CreditImpact{
		Action:       action,
		Amount:       amount,
		CurrentScore: current,
		Factors:      []string{},
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	change := 0
	switch action {
	case entity.SimulateDeposit, entity.SimulateSupply:
		change = cappedPoints(amount, depositPerPoint, depositImpactCap)
		impact.Factors = append(impact.Factors, "Adding collateral improves portfolio value and protocol engagement")
	case entity.SimulateBorrow:
		change = -cappedPoints(amount, borrowPerPoint, borrowImpactCap)
		impact.Factors = append(impact.Factors, "New debt lowers the repayment ratio until it is repaid")
	case entity.SimulateRepay:
		change = cappedPoints(amount, repayPerPoint, repayImpactCap)
		impact.Factors = append(impact.Factors, "Repaying debt strengthens repayment history")
	default:
		impact.Factors = append(impact.Factors, fmt.Sprintf("No modeled impact for action %q", action))
	}

	impact.NewScore = min(max(current+change, BaseScore), MaxScore)
	impact.ScoreChange = impact.NewScore - current
	return impact
}

func cappedPoints(amount, perPoint float64, limit int) int {
	return int(math.Min(math.Floor(amount/perPoint), float64(limit)))
}
