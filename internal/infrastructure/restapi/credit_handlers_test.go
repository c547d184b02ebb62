package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"credit_aggregator/internal/app/port/porttest"
	"credit_aggregator/internal/domain/entity"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const testAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeCreditService struct {
	mu          sync.Mutex
	aggregateFn func(address string) (entity.CreditAssessment, error)
	batchCalls  [][]string
	lastAction  entity.SimulationAction
	lastAmount  float64
	simulateErr error
}

func (f *fakeCreditService) Aggregate(ctx context.Context, address string) (entity.CreditAssessment, error) {
	return f.aggregateFn(address)
}

func (f *fakeCreditService) AggregateBatch(ctx context.Context, addresses []string) entity.BatchResult {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, addresses)
	f.mu.Unlock()
	res := entity.BatchResult{Results: []entity.CreditAssessment{}}
	for _, a := range addresses {
		if a == testAddress {
			res.Results = append(res.Results, entity.CreditAssessment{Address: a, CreditScore: 500})
			continue
		}
		res.Errors = append(res.Errors, entity.AddressError{Address: a, Message: "invalid address"})
	}
	return res
}

func (f *fakeCreditService) Simulate(ctx context.Context, address string, action entity.SimulationAction, amount float64) (entity.CreditImpact, error) {
	f.mu.Lock()
	f.lastAction, f.lastAmount = action, amount
	f.mu.Unlock()
	if f.simulateErr != nil {
		return entity.CreditImpact{}, f.simulateErr
	}
	return entity.CreditImpact{Action: action, Amount: amount, CurrentScore: 600, NewScore: 610, ScoreChange: 10}, nil
}

func newTestRouter(svc *fakeCreditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewCreditHandler(svc, 3, porttest.NopLogger{}), zap.NewNop())
}

func okService() *fakeCreditService {
	return &fakeCreditService{aggregateFn: func(address string) (entity.CreditAssessment, error) {
		if address != testAddress {
			return entity.CreditAssessment{}, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
		}
		return entity.CreditAssessment{
			Address:         address,
			Chains:          []entity.ChainSnapshot{{ChainID: 1, NativeBalance: "1"}},
			CreditScore:     725,
			RiskFactors:     []string{},
			Recommendations: []string{"Increase your protocol engagement with regular deposits and repayments"},
			Positions:       map[entity.Protocol]map[uint64]entity.ProtocolPosition{entity.ProtocolAave: {}},
		}, nil
	}}
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newTestRouter(okService()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetCredit(t *testing.T) {
	w := serve(newTestRouter(okService()), http.MethodGet, "/api/v1/credit/"+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got entity.CreditAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, testAddress, got.Address)
	assert.Equal(t, 725, got.CreditScore)
	require.Len(t, got.Chains, 1)
	assert.Contains(t, got.Positions, entity.ProtocolAave)
}

func TestGetCredit_Errors(t *testing.T) {
	w := serve(newTestRouter(okService()), http.MethodGet, "/api/v1/credit/0xnope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid address")

	broken := &fakeCreditService{aggregateFn: func(string) (entity.CreditAssessment, error) {
		return entity.CreditAssessment{}, fmt.Errorf("unexpected")
	}}
	w = serve(newTestRouter(broken), http.MethodGet, "/api/v1/credit/"+testAddress, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestBatchCredit(t *testing.T) {
	svc := okService()
	r := newTestRouter(svc)

	w := serve(r, http.MethodPost, "/api/v1/credit/batch", `{"addresses":["`+testAddress+`","0xbad"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got entity.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Results, 1)
	assert.Equal(t, 500, got.Results[0].CreditScore)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "0xbad", got.Errors[0].Address)
}

func TestBatchCredit_RejectsBadRequests(t *testing.T) {
	svc := okService()
	r := newTestRouter(svc)

	tests := map[string]string{
		"malformed": `{"addresses":`,
		"empty":     `{"addresses":[]}`,
		"too many":  `{"addresses":["a","b","c","d"]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := serve(r, http.MethodPost, "/api/v1/credit/batch", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, svc.batchCalls)
}

func TestSimulate(t *testing.T) {
	svc := okService()
	r := newTestRouter(svc)

	w := serve(r, http.MethodGet, "/api/v1/credit/"+testAddress+"/simulate?action=Deposit&amount=1000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.SimulateDeposit, svc.lastAction)
	assert.Equal(t, 1000.0, svc.lastAmount)

	var got entity.CreditImpact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 10, got.ScoreChange)

	w = serve(r, http.MethodGet, "/api/v1/credit/"+testAddress+"/simulate?action=deposit&amount=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.simulateErr = fmt.Errorf("%w: unknown action", entity.ErrInvalidSimulation)
	w = serve(r, http.MethodGet, "/api/v1/credit/"+testAddress+"/simulate?action=stake&amount=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndMetrics(t *testing.T) {
	r := newTestRouter(okService())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
