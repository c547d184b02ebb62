package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/configloader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAddress = "0x1111111111111111111111111111111111111111"

type fakeExplorer struct {
	mu        sync.Mutex
	responses map[string]string
	status    int
	queries   []url.Values
}

func (f *fakeExplorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	body, ok := f.responses[r.URL.Query().Get("action")]
	status := f.status
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		body = `{"status":"0","message":"No transactions found","result":[]}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, fake *fakeExplorer, apiKey string) *blockscoutClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	netDef := entity.NetworkDefinition{ChainID: 1, Name: "test", Decimals: 18, ExplorerAPIURL: srv.URL + "/"}
	cfg := configloader.ExplorerConfig{APIKey: apiKey, RequestTimeoutMillis: 2000, RateLimit: 100, BurstLimit: 10}
	return NewClient(netDef, cfg, zap.NewNop()).(*blockscoutClient)
}

func TestGetNativeBalance(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{
		"balance": `{"status":"1","message":"OK","result":"1500000000000000000"}`,
	}}
	c := newTestClient(t, fake, "secret")

	balance, err := c.GetNativeBalance(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, "1.5", balance)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.queries, 1)
	q := fake.queries[0]
	assert.Equal(t, "account", q.Get("module"))
	assert.Equal(t, testAddress, q.Get("address"))
	assert.Equal(t, "secret", q.Get("apikey"))
}

func TestGetTokenBalancesSkipsNFTCollections(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{
		"tokenlist": `{"status":"1","message":"OK","result":[
			{"balance":"2500000","contractAddress":"0xa0b8","decimals":"6","name":"USD Coin","symbol":"USDC","type":"ERC-20"},
			{"balance":"3","contractAddress":"0xbeef","decimals":"","name":"Punks","symbol":"PUNK","type":"ERC-721"},
			{"balance":"1000000000000000000","contractAddress":"0xdai","decimals":"18","name":"Dai","symbol":"DAI","type":"ERC-20"}
		]}`,
	}}
	c := newTestClient(t, fake, "")

	tokens, err := c.GetTokenBalances(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "USDC", tokens[0].Symbol)
	assert.Equal(t, "2.5", tokens[0].Balance)
	assert.Equal(t, uint8(6), tokens[0].Decimals)
	assert.Equal(t, "DAI", tokens[1].Symbol)
	assert.Equal(t, "1", tokens[1].Balance)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.queries[0].Get("apikey"))
}

func TestGetTransactionsParsesFields(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{
		"txlist": `{"status":"1","message":"OK","result":[
			{"hash":"0x2","blockNumber":"200","timeStamp":"1700000100","from":"0xa","to":"0xb","value":"0","gasUsed":"21000","isError":"0","txreceipt_status":"1","input":"0x617ba037","functionName":"supply(address,uint256,address,uint16)"},
			{"hash":"0x1","blockNumber":"100","timeStamp":"1700000000","from":"0xa","to":"0xc","value":"250000000000000000","gasUsed":"50000","isError":"1","input":"0x"}
		]}`,
	}}
	c := newTestClient(t, fake, "")

	txs, err := c.GetTransactions(context.Background(), testAddress, 100)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "0x2", txs[0].Hash)
	assert.Equal(t, int64(1700000100), txs[0].Timestamp)
	assert.Equal(t, uint64(200), txs[0].BlockNumber)
	assert.True(t, txs[0].Status)
	assert.Equal(t, "0x617ba037", txs[0].Input)
	assert.Equal(t, "supply(address,uint256,address,uint16)", txs[0].FunctionName)

	assert.False(t, txs[1].Status)
	assert.Equal(t, "0.25", txs[1].Value)
	assert.Equal(t, "50000", txs[1].GasUsed)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	q := fake.queries[0]
	assert.Equal(t, "desc", q.Get("sort"))
	assert.Equal(t, "100", q.Get("offset"))
	assert.Equal(t, "1", q.Get("page"))
}

func TestNoResultsIsEmptyNotError(t *testing.T) {
	c := newTestClient(t, &fakeExplorer{responses: map[string]string{}}, "")

	txs, err := c.GetTransactions(context.Background(), testAddress, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	transfers, err := c.GetNFTTransfers(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestAPIErrorIsReported(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{
		"balance": `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`,
	}}
	c := newTestClient(t, fake, "")

	balance, err := c.GetNativeBalance(context.Background(), testAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTOK")
	assert.Equal(t, "0", balance)
}

func TestHTTPErrorIsReported(t *testing.T) {
	c := newTestClient(t, &fakeExplorer{status: http.StatusBadGateway}, "")

	tokens, err := c.GetTokenBalances(context.Background(), testAddress)
	require.Error(t, err)
	assert.Empty(t, tokens)
}

func TestGetNFTTransfers(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{
		"tokennfttx": `{"status":"1","message":"OK","result":[
			{"contractAddress":"0xnft","tokenID":"7","tokenName":"","tokenSymbol":"APE","from":"0x0","to":"0xa","timeStamp":"1700000000"}
		]}`,
	}}
	c := newTestClient(t, fake, "")

	transfers, err := c.GetNFTTransfers(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "7", transfers[0].TokenID)
	assert.Equal(t, "APE", transfers[0].TokenName)
}

func TestCancelledContextStopsBeforeRequest(t *testing.T) {
	fake := &fakeExplorer{responses: map[string]string{}}
	c := newTestClient(t, fake, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := c.GetNativeBalance(ctx, testAddress)
	assert.Error(t, err)
}

func TestProviderRequiresExplorerURL(t *testing.T) {
	p := NewClientProvider(configloader.ExplorerConfig{}, zap.NewNop())

	_, err := p.GetExplorer(entity.NetworkDefinition{ChainID: 5})
	assert.ErrorIs(t, err, entity.ErrUnsupportedChain)

	def := entity.NetworkDefinition{ChainID: 1, ExplorerAPIURL: "https://eth.blockscout.com"}
	first, err := p.GetExplorer(def)
	require.NoError(t, err)
	second, err := p.GetExplorer(def)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), first.ChainID())
}
