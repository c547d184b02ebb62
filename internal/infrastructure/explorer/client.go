package explorer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"credit_aggregator/internal/app/port"
	"credit_aggregator/internal/domain/entity"
	"credit_aggregator/internal/infrastructure/configloader"
	"credit_aggregator/internal/pkg/metrics"
	"credit_aggregator/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	actionBalance    = "balance"
	actionTokenList  = "tokenlist"
	actionTxList     = "txlist"
	actionNFTTxList  = "tokennfttx"
	defaultDecimals  = 18
	nftTransferLimit = 100
)

// blockscoutClient talks to one chain's Etherscan-compatible API.
type blockscoutClient struct {
	client         *fasthttp.Client
	baseURL        string
	apiKey         string
	chainID        uint64
	nativeDecimals uint8
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
}

// NewClient creates an explorer client for netDef.
func NewClient(netDef entity.NetworkDefinition, cfg configloader.ExplorerConfig, logger *zap.Logger) port.ExplorerClient {
	decimals := uint8(defaultDecimals)
	if netDef.Decimals > 0 && netDef.Decimals <= 255 {
		decimals = uint8(netDef.Decimals)
	}
	burst := cfg.BurstLimit
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &blockscoutClient{
		client:         &fasthttp.Client{Name: "credit_aggregator"},
		baseURL:        strings.TrimRight(netDef.ExplorerAPIURL, "/"),
		apiKey:         cfg.APIKey,
		chainID:        netDef.ChainID,
		nativeDecimals: decimals,
		timeout:        time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		limiter:        rate.NewLimiter(limit, burst),
		logger:         logger.Named("ExplorerClient").With(zap.Uint64("chainId", netDef.ChainID)),
	}
}

func (c *blockscoutClient) ChainID() uint64 {
	return c.chainID
}

// GetNativeBalance returns the native balance formatted in native units.
func (c *blockscoutClient) GetNativeBalance(ctx context.Context, address string) (string, error) {
	raw, err := c.call(ctx, actionBalance, address, nil)
	if err != nil {
		return "0", err
	}
	if raw == nil {
		return "0", nil
	}

	var wei string
	if err := json.Unmarshal(raw, &wei); err != nil {
		return "0", fmt.Errorf("failed to decode balance result: %w", err)
	}
	formatted, err := utils.FormatBaseUnits(wei, c.nativeDecimals)
	if err != nil {
		return "0", fmt.Errorf("failed to format balance %q: %w", wei, err)
	}
	return formatted, nil
}

// GetTokenBalances returns fungible token holdings in API order. NFT collections are skipped.
func (c *blockscoutClient) GetTokenBalances(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	raw, err := c.call(ctx, actionTokenList, address, nil)
	if err != nil || raw == nil {
		return []entity.TokenBalance{}, err
	}

	var items []tokenListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []entity.TokenBalance{}, fmt.Errorf("failed to decode tokenlist result: %w", err)
	}

	tokens := make([]entity.TokenBalance, 0, len(items))
	for _, item := range items {
		if isNFTType(item.Type) {
			continue
		}
		decimals := parseDecimals(item.Decimals)
		balance, err := utils.FormatBaseUnits(item.Balance, decimals)
		if err != nil {
			c.logger.Debug("Skipping token with malformed balance",
				zap.String("contract", item.ContractAddress),
				zap.String("balance", item.Balance),
				zap.Error(err))
			continue
		}
		tokens = append(tokens, entity.TokenBalance{
			ContractAddress: item.ContractAddress,
			Name:            item.Name,
			Symbol:          item.Symbol,
			Balance:         balance,
			Decimals:        decimals,
		})
	}
	return tokens, nil
}

// GetTransactions returns up to limit transactions sorted most recent first.
func (c *blockscoutClient) GetTransactions(ctx context.Context, address string, limit int) ([]entity.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	raw, err := c.call(ctx, actionTxList, address, map[string]string{
		"sort":   "desc",
		"page":   "1",
		"offset": strconv.Itoa(limit),
	})
	if err != nil || raw == nil {
		return []entity.Transaction{}, err
	}

	var items []txListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []entity.Transaction{}, fmt.Errorf("failed to decode txlist result: %w", err)
	}

	txs := make([]entity.Transaction, 0, len(items))
	for _, item := range items {
		value, err := utils.FormatBaseUnits(item.Value, c.nativeDecimals)
		if err != nil {
			value = "0"
		}
		ts, _ := strconv.ParseInt(item.TimeStamp, 10, 64)
		block, _ := strconv.ParseUint(item.BlockNumber, 10, 64)
		txs = append(txs, entity.Transaction{
			Hash:         item.Hash,
			Timestamp:    ts,
			Value:        value,
			From:         item.From,
			To:           item.To,
			GasUsed:      item.GasUsed,
			Status:       item.IsError != "1" && item.TxReceiptStatus != "0",
			FunctionName: item.FunctionName,
			BlockNumber:  block,
			Input:        item.Input,
		})
	}
	return txs, nil
}

// GetNFTTransfers returns raw ERC-721 transfer records.
func (c *blockscoutClient) GetNFTTransfers(ctx context.Context, address string) ([]entity.NFTTransfer, error) {
	raw, err := c.call(ctx, actionNFTTxList, address, map[string]string{
		"sort":   "desc",
		"page":   "1",
		"offset": strconv.Itoa(nftTransferLimit),
	})
	if err != nil || raw == nil {
		return []entity.NFTTransfer{}, err
	}

	var items []nftTransferItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return []entity.NFTTransfer{}, fmt.Errorf("failed to decode tokennfttx result: %w", err)
	}

	transfers := make([]entity.NFTTransfer, 0, len(items))
	for _, item := range items {
		ts, _ := strconv.ParseInt(item.TimeStamp, 10, 64)
		name := item.TokenName
		if name == "" {
			name = item.TokenSymbol
		}
		transfers = append(transfers, entity.NFTTransfer{
			ContractAddress: item.ContractAddress,
			TokenID:         item.TokenID,
			TokenName:       name,
			From:            item.From,
			To:              item.To,
			Timestamp:       ts,
		})
	}
	return transfers, nil
}

// call executes module=account&action=... and returns the raw result.
// A nil result with a nil error means the explorer reported no records.
func (c *blockscoutClient) call(ctx context.Context, action, address string, extra map[string]string) (jsoniter.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", action, err)
	}

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("module", "account")
	args.Set("action", action)
	args.Set("address", address)
	for k, v := range extra {
		args.Set(k, v)
	}
	if c.apiKey != "" {
		args.Set("apikey", c.apiKey)
	}
	requestURL := c.baseURL + "/api?" + args.String()

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.observe(action, "transport_error")
		c.logger.Warn("Explorer request failed", zap.String("action", action), zap.Error(err))
		return nil, fmt.Errorf("explorer %s request failed: %w", action, err)
	}

	body := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.observe(action, "http_"+strconv.Itoa(resp.StatusCode()))
		return nil, fmt.Errorf("explorer %s returned status %d: %s", action, resp.StatusCode(), truncate(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.observe(action, "decode_error")
		return nil, fmt.Errorf("failed to decode explorer %s response: %w", action, err)
	}

	switch env.Status {
	case "1":
		c.observe(action, "ok")
		return env.Result, nil
	case "0":
		if isNoResultsMessage(env.Message) {
			c.observe(action, "empty")
			return nil, nil
		}
		c.observe(action, "api_error")
		return nil, fmt.Errorf("explorer %s error: %s (%s)", action, env.Message, truncate(env.Result))
	default:
		// Some Blockscout endpoints omit status on success.
		if len(env.Result) > 0 && string(env.Result) != "null" {
			c.observe(action, "ok")
			return env.Result, nil
		}
		c.observe(action, "api_error")
		return nil, fmt.Errorf("explorer %s returned unexpected status %q: %s", action, env.Status, env.Message)
	}
}

func (c *blockscoutClient) observe(action, outcome string) {
	metrics.ExplorerRequests.WithLabelValues(strconv.FormatUint(c.chainID, 10), action, outcome).Inc()
}

func isNoResultsMessage(msg string) bool {
	m := strings.ToLower(strings.TrimSpace(msg))
	return strings.HasPrefix(m, "no ") && strings.HasSuffix(m, "found")
}

func isNFTType(t string) bool {
	switch strings.ToUpper(strings.ReplaceAll(t, "-", "")) {
	case "ERC721", "ERC1155", "ERC404":
		return true
	}
	return false
}

func parseDecimals(s string) uint8 {
	if s == "" {
		return defaultDecimals
	}
	d, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return defaultDecimals
	}
	return uint8(d)
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
