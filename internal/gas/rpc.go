package gas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// RPCSource fetches a gas price with an eth_gasPrice JSON-RPC call. The node
// answers in hex-encoded wei; the source converts to gwei.
type RPCSource struct {
	name       string
	endpoint   string
	timeout    time.Duration
	confidence domain.Confidence
	httpClient *http.Client
}

// NewRPCSource creates a JSON-RPC gas source.
func NewRPCSource(name, endpoint string, timeout time.Duration, confidence domain.Confidence) *RPCSource {
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &RPCSource{
		name:       name,
		endpoint:   endpoint,
		timeout:    timeout,
		confidence: confidence,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (s *RPCSource) Name() string { return s.name }

func (s *RPCSource) Confidence() domain.Confidence { return s.confidence }

func (s *RPCSource) Timeout() time.Duration { return s.timeout }

// Fetch performs the eth_gasPrice call. The key is not part of the wire call;
// one RPC endpoint serves one chain.
func (s *RPCSource) Fetch(ctx context.Context, key string) (float64, error) {
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  "eth_gasPrice",
		"params":  []any{},
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return 0, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return hexWeiToGwei(rpcResp.Result)
}

func hexWeiToGwei(hex string) (float64, error) {
	trimmed := strings.TrimPrefix(hex, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty gas price result")
	}
	wei, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex gas price %q", hex)
	}
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return gwei, nil
}
