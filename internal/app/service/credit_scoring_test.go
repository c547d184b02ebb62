package service

import (
	"fmt"
	"testing"
	"time"

	"credit_aggregator/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *CreditScoringEngine {
	return NewCreditScoringEngine(func() time.Time { return fixedNow })
}

func daysAgo(d int) int64 {
	return fixedNow.Add(-time.Duration(d) * 24 * time.Hour).Unix()
}

func interaction(kind entity.InteractionType, chainID uint64, ts int64) entity.ProtocolInteraction {
	return entity.ProtocolInteraction{Protocol: entity.ProtocolAave, Type: kind, ChainID: chainID, Timestamp: ts}
}

func repeat(kind entity.InteractionType, n int, chainID uint64, ts int64) []entity.ProtocolInteraction {
	out := make([]entity.ProtocolInteraction, n)
	for i := range out {
		out[i] = interaction(kind, chainID, ts)
	}
	return out
}

func TestScore_EmptyInput(t *testing.T) {
	res := newTestEngine().Score(nil, nil)

	assert.Equal(t, 300, res.Score)
	assert.Equal(t, []string{riskLiquidityMessage}, res.RiskFactors)
	assert.Equal(t, []string{RecommendMultiChain, RecommendEngagement}, res.Recommendations)
	assert.Equal(t, 1.0, res.Breakdown.RepaymentRatio)
	assert.Zero(t, res.Breakdown.RepaymentPoints)
	assert.Equal(t, res, newTestEngine().Score([]entity.ChainSnapshot{}, []entity.ProtocolInteraction{}))
}

func TestScore_SingleEmptyChain(t *testing.T) {
	chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "0", Tokens: []entity.TokenBalance{}}}

	res := newTestEngine().Score(chains, nil)

	assert.Equal(t, 300, res.Score)
	require.Len(t, res.RiskDetails, 1)
	assert.Equal(t, entity.RiskLowLiquidity, res.RiskDetails[0].Kind)
	assert.Contains(t, res.Recommendations, RecommendMultiChain)
	assert.Contains(t, res.Recommendations, RecommendEngagement)
	assert.NotContains(t, res.Recommendations, RecommendRepayment)
}

func TestScore_RepaymentAcrossTwoChains(t *testing.T) {
	var interactions []entity.ProtocolInteraction
	interactions = append(interactions, repeat(entity.InteractionBorrow, 5, 1, daysAgo(40))...)
	interactions = append(interactions, repeat(entity.InteractionBorrow, 5, 137, daysAgo(50))...)
	interactions = append(interactions, repeat(entity.InteractionRepay, 9, 137, daysAgo(45))...)

	res := newTestEngine().Score(nil, interactions)

	assert.InDelta(t, 0.9, res.Breakdown.RepaymentRatio, 1e-9)
	assert.Equal(t, 150, res.Breakdown.RepaymentPoints)
	assert.Equal(t, 450, res.Score)
	assert.NotContains(t, res.Recommendations, RecommendMultiChain)
	assert.NotContains(t, res.Recommendations, RecommendEngagement)
	assert.Equal(t, RecommendRepayment, res.Recommendations[0])
}

func TestScore_Concentration(t *testing.T) {
	chains := []entity.ChainSnapshot{
		{
			ChainID:       8453,
			NativeBalance: "1",
			Tokens: []entity.TokenBalance{
				{Symbol: "USDC", ValueUSD: 5},
				{Symbol: "AERO", ValueUSD: 95},
			},
		},
		{
			ChainID:       1,
			NativeBalance: "0",
			Tokens: []entity.TokenBalance{
				{Symbol: "DAI", ValueUSD: 50},
				{Symbol: "USDT", ValueUSD: 50},
			},
		},
	}

	res := newTestEngine().Score(chains, nil)

	assert.Contains(t, res.RiskFactors, "High concentration in AERO on chain 8453")
	var found []entity.RiskFactor
	for _, r := range res.RiskDetails {
		if r.Kind == entity.RiskConcentration {
			found = append(found, r)
		}
	}
	require.Len(t, found, 1)
	assert.Equal(t, "AERO", found[0].Symbol)
	assert.Equal(t, uint64(8453), found[0].ChainID)
	assert.Contains(t, res.Recommendations, RecommendDiversify)
}

func TestScore_ConcentrationBoundary(t *testing.T) {
	chains := []entity.ChainSnapshot{{
		ChainID:       1,
		NativeBalance: "1",
		Tokens:        []entity.TokenBalance{{Symbol: "A", ValueUSD: 80}, {Symbol: "B", ValueUSD: 20}},
	}}
	res := newTestEngine().Score(chains, nil)
	assert.Empty(t, res.RiskDetails, "a share of exactly 0.8 is not concentrated")
}

func TestScore_PortfolioLadder(t *testing.T) {
	tests := []struct {
		value  float64
		points int
	}{
		{0, 0}, {1000, 0}, {1000.5, 50}, {5000, 50}, {5001, 100},
		{10000, 100}, {10001, 150}, {50000, 150}, {50001, 200}, {1e9, 200},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "0", Tokens: []entity.TokenBalance{{Symbol: "X", ValueUSD: tt.value}}}}
			res := newTestEngine().Score(chains, nil)
			assert.Equal(t, tt.points, res.Breakdown.PortfolioPoints)
		})
	}
}

func TestScore_NativeValuePricedWhenKnown(t *testing.T) {
	priced := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1", NativeValueUSD: 2500}}
	raw := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1500"}}

	assert.Equal(t, 2500.0, newTestEngine().Score(priced, nil).Breakdown.PortfolioValueUSD)
	assert.Equal(t, 1500.0, newTestEngine().Score(raw, nil).Breakdown.PortfolioValueUSD)
}

func TestScore_ClampedAt850(t *testing.T) {
	rich := entity.ChainSnapshot{ChainID: 1, NativeBalance: "1"}
	for i := 0; i < 21; i++ {
		rich.Tokens = append(rich.Tokens, entity.TokenBalance{Symbol: fmt.Sprintf("T%d", i), ValueUSD: 5000})
	}
	for i := 0; i < 501; i++ {
		rich.Transactions = append(rich.Transactions, entity.Transaction{Hash: fmt.Sprint(i)})
	}
	chains := []entity.ChainSnapshot{rich}
	for id := uint64(2); id <= 20; id++ {
		chains = append(chains, entity.ChainSnapshot{ChainID: id, NativeBalance: "1"})
	}

	res := newTestEngine().Score(chains, nil)

	assert.Equal(t, 850, res.Score)
	assert.Equal(t, 20, res.Breakdown.ActiveChains)
	assert.Equal(t, 300+200+500+100+75, res.Breakdown.UnclampedScore)
	assert.Equal(t, []string{RecommendMultiChain, RecommendEngagement, RecommendBestRates}, res.Recommendations)
}

func TestScore_Monotonic(t *testing.T) {
	e := newTestEngine()
	assertNonDecreasing := func(t *testing.T, scores []int) {
		t.Helper()
		for i := 1; i < len(scores); i++ {
			assert.GreaterOrEqual(t, scores[i], scores[i-1], "step %d", i)
		}
	}

	t.Run("portfolio value", func(t *testing.T) {
		var scores []int
		for _, v := range []float64{0, 999, 1001, 4999, 5001, 9999, 10001, 49999, 50001, 1e7} {
			chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "0", Tokens: []entity.TokenBalance{{ValueUSD: v}}}}
			scores = append(scores, e.Score(chains, nil).Score)
		}
		assertNonDecreasing(t, scores)
	})

	t.Run("repayment ratio", func(t *testing.T) {
		var scores []int
		for repays := 0; repays <= 12; repays++ {
			interactions := append(repeat(entity.InteractionBorrow, 10, 1, daysAgo(100)), repeat(entity.InteractionRepay, repays, 1, daysAgo(100))...)
			scores = append(scores, e.Score(nil, interactions).Score)
		}
		assertNonDecreasing(t, scores)
	})

	t.Run("active chains", func(t *testing.T) {
		var scores []int
		var chains []entity.ChainSnapshot
		for id := uint64(1); id <= 30; id++ {
			chains = append(chains, entity.ChainSnapshot{ChainID: id, NativeBalance: "0.5"})
			scores = append(scores, e.Score(chains, nil).Score)
		}
		assertNonDecreasing(t, scores)
	})

	t.Run("transactions and tokens", func(t *testing.T) {
		var txScores, tokenScores []int
		for _, n := range []int{0, 10, 51, 101, 201, 501, 900} {
			c := entity.ChainSnapshot{ChainID: 1, NativeBalance: "1", Transactions: make([]entity.Transaction, n)}
			txScores = append(txScores, e.Score([]entity.ChainSnapshot{c}, nil).Score)
		}
		for _, n := range []int{0, 3, 6, 11, 21, 40} {
			c := entity.ChainSnapshot{ChainID: 1, NativeBalance: "1", Tokens: make([]entity.TokenBalance, n)}
			tokenScores = append(tokenScores, e.Score([]entity.ChainSnapshot{c}, nil).Score)
		}
		assertNonDecreasing(t, txScores)
		assertNonDecreasing(t, tokenScores)
	})
}

func TestScore_Bounds(t *testing.T) {
	e := newTestEngine()
	for n := 0; n < 40; n++ {
		var chains []entity.ChainSnapshot
		for id := 0; id < n; id++ {
			chains = append(chains, entity.ChainSnapshot{
				ChainID:       uint64(id + 1),
				NativeBalance: fmt.Sprint(id * 1000),
				Tokens:        make([]entity.TokenBalance, id),
				Transactions:  make([]entity.Transaction, id*20),
			})
		}
		s := e.Score(chains, repeat(entity.InteractionRepay, n, 1, daysAgo(n))).Score
		assert.GreaterOrEqual(t, s, 300)
		assert.LessOrEqual(t, s, 850)
	}
}

func TestScore_RiskFactors(t *testing.T) {
	t.Run("high gas", func(t *testing.T) {
		over := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1", Transactions: []entity.Transaction{{GasUsed: "21000"}}}}
		exact := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1", Transactions: []entity.Transaction{{GasUsed: "30"}, {GasUsed: "20"}}}}

		assert.Equal(t, []string{riskHighGasMessage}, newTestEngine().Score(over, nil).RiskFactors)
		assert.Empty(t, newTestEngine().Score(exact, nil).RiskFactors)
	})

	t.Run("recent borrowing", func(t *testing.T) {
		chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1"}}
		heavy := append(repeat(entity.InteractionBorrow, 3, 1, daysAgo(5)), interaction(entity.InteractionRepay, 1, daysAgo(5)))
		balanced := append(repeat(entity.InteractionBorrow, 2, 1, daysAgo(5)), interaction(entity.InteractionRepay, 1, daysAgo(5)))
		old := repeat(entity.InteractionBorrow, 3, 1, daysAgo(31))

		assert.Equal(t, []string{riskBorrowingMessage}, newTestEngine().Score(chains, heavy).RiskFactors)
		assert.Empty(t, newTestEngine().Score(chains, balanced).RiskFactors)
		assert.Empty(t, newTestEngine().Score(chains, old).RiskFactors)
	})

	t.Run("liquidity floor sums chains", func(t *testing.T) {
		chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "0.05"}, {ChainID: 10, NativeBalance: "0.05"}}
		assert.Empty(t, newTestEngine().Score(chains, nil).RiskFactors)

		chains[1].NativeBalance = "0.04"
		assert.Equal(t, []string{riskLiquidityMessage}, newTestEngine().Score(chains, nil).RiskFactors)
	})

	t.Run("order", func(t *testing.T) {
		chains := []entity.ChainSnapshot{{
			ChainID:       1,
			NativeBalance: "0",
			Tokens:        []entity.TokenBalance{{Symbol: "PEPE", ValueUSD: 99}, {Symbol: "USDC", ValueUSD: 1}},
			Transactions:  []entity.Transaction{{GasUsed: "100"}},
		}}
		res := newTestEngine().Score(chains, repeat(entity.InteractionBorrow, 1, 1, daysAgo(1)))

		kinds := make([]entity.RiskKind, len(res.RiskDetails))
		for i, r := range res.RiskDetails {
			kinds[i] = r.Kind
		}
		assert.Equal(t, []entity.RiskKind{entity.RiskHighGas, entity.RiskConcentration, entity.RiskRecentBorrowing, entity.RiskLowLiquidity}, kinds)
	})
}

func TestScore_EngagementWindow(t *testing.T) {
	chains := []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1"}}
	recent := append(repeat(entity.InteractionRepay, 5, 1, daysAgo(89)), interaction(entity.InteractionRepay, 10, daysAgo(1)))
	stale := append(repeat(entity.InteractionRepay, 5, 1, daysAgo(91)), interaction(entity.InteractionRepay, 10, daysAgo(1)))

	assert.NotContains(t, newTestEngine().Score(chains, recent).Recommendations, RecommendEngagement)
	assert.Contains(t, newTestEngine().Score(chains, stale).Recommendations, RecommendEngagement)
}

func TestSimulateImpact(t *testing.T) {
	tests := []struct {
		name    string
		current int
		action  entity.SimulationAction
		amount  float64
		want    int
	}{
		{"deposit small", 600, entity.SimulateDeposit, 550, 605},
		{"supply capped", 600, entity.SimulateSupply, 100000, 620},
		{"deposit below one point", 600, entity.SimulateDeposit, 99, 600},
		{"borrow", 600, entity.SimulateBorrow, 450, 598},
		{"borrow capped", 600, entity.SimulateBorrow, 1e12, 585},
		{"repay", 600, entity.SimulateRepay, 900, 603},
		{"repay capped", 600, entity.SimulateRepay, 1e9, 610},
		{"clamped high", 845, entity.SimulateDeposit, 5000, 850},
		{"clamped low", 305, entity.SimulateBorrow, 10000, 300},
		{"unknown action", 600, "stake", 5000, 600},
		{"negative amount", 600, entity.SimulateDeposit, -500, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestEngine().SimulateImpact(tt.current, tt.action, tt.amount)
			assert.Equal(t, tt.current, got.CurrentScore)
			assert.Equal(t, tt.want, got.NewScore)
			assert.Equal(t, tt.want-tt.current, got.ScoreChange)
			assert.NotEmpty(t, got.Factors)
		})
	}
}
