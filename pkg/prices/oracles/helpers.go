package oracles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/version"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// httpOracle holds what the REST oracles share: a client, a per-call
// deadline and an optional token bucket.
type httpOracle struct {
	name    string
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *logging.Logger
}

func newHTTPOracle(name, defaultURL string, cfg map[string]interface{}, logger *logging.Logger) (*httpOracle, error) {
	timeout, err := getDuration(cfg, "timeout", defaultTimeout)
	if err != nil {
		return nil, err
	}

	o := &httpOracle{
		name:    name,
		baseURL: getString(cfg, "api_url", defaultURL),
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}

	if rps := getFloat(cfg, "rate_limit", 0); rps > 0 {
		burst := int(getFloat(cfg, "burst", 1))
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	return o, nil
}

// Name returns the oracle name
func (o *httpOracle) Name() string {
	return o.name
}

// statusError carries the HTTP status of a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.code)
}

func (e *statusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// getJSON performs one bounded GET and decodes the body into out.
// Transport failures, timeouts and non-2xx responses are returned as-is
// or as ErrUnexpectedStatus; an undecodable 2xx body is wrapped in ErrDecode.
func (o *httpOracle) getJSON(ctx context.Context, url string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func getString(cfg map[string]interface{}, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

func getFloat(cfg map[string]interface{}, key string, def float64) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func getInt(cfg map[string]interface{}, key string, def int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func getDuration(cfg map[string]interface{}, key string, def time.Duration) (time.Duration, error) {
	raw, ok := cfg[key]
	if !ok {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a duration string", ErrInvalidConfig, key)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return d, nil
}

// getStringMap reads a map of string values, e.g. a symbol -> id table.
func getStringMap(cfg map[string]interface{}, key string) (map[string]string, error) {
	raw, ok := cfg[key]
	if !ok {
		return map[string]string{}, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a map", ErrInvalidConfig, key)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int, int64, float64:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("%w: %s.%s is %T", ErrInvalidConfig, key, k, v)
		}
	}
	return out, nil
}
