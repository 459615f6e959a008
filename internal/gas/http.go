package gas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

const defaultSourceTimeout = 3 * time.Second

// HTTPSource fetches a gas price from a JSON HTTP endpoint. The response is
// expected to carry the gwei price in a top-level field, either as a number
// or a numeric string.
type HTTPSource struct {
	name       string
	endpoint   string
	field      string
	timeout    time.Duration
	confidence domain.Confidence
	httpClient *http.Client
}

// NewHTTPSource creates an HTTP gas source. An empty field defaults to
// "gas_price_gwei".
func NewHTTPSource(name, endpoint, field string, timeout time.Duration, confidence domain.Confidence) *HTTPSource {
	if field == "" {
		field = "gas_price_gwei"
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	return &HTTPSource{
		name:       name,
		endpoint:   endpoint,
		field:      field,
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

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Confidence() domain.Confidence { return s.confidence }

func (s *HTTPSource) Timeout() time.Duration { return s.timeout }

// Fetch performs the HTTP request and extracts the configured field.
func (s *HTTPSource) Fetch(ctx context.Context, key string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", key)
	req.URL.RawQuery = q.Encode()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gas fetch: %w", err)
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

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}

	raw, ok := payload[s.field]
	if !ok {
		return 0, fmt.Errorf("field %q missing in response", s.field)
	}
	return parseNumeric(raw)
}

// parseNumeric accepts both a JSON number and a numeric string.
func parseNumeric(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("value %s is neither number nor string", raw)
	}
	n, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric string %q: %w", str, err)
	}
	return n, nil
}
