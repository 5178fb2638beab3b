package source

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/config"
)

// httpClient is the shared transport for the source clients: retries with
// exponential backoff and jitter on network errors, 429s, and 5xx responses.
type httpClient struct {
	client     *http.Client
	userAgent  string
	maxRetries int
}

func newHTTPClient(cfg config.SourcesConfig) *httpClient {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "fundlens/1.0"
	}
	return &httpClient{
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:  userAgent,
		maxRetries: maxRetries,
	}
}

// get fetches a URL, retrying transient failures. The caller owns the body.
func (c *httpClient) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	var lastErr error
	for attempt := range c.maxRetries {
		resp, err := c.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("http request failed, retrying",
				zap.String("url", req.URL.Redacted()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("source: http 429 from %s", req.URL.Redacted())
			zap.L().Warn("rate limited (429), backing off",
				zap.String("url", req.URL.Redacted()),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
		case resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("source: http %d from %s", resp.StatusCode, req.URL.Redacted())
			c.backoff(ctx, attempt)
		case resp.StatusCode != http.StatusOK:
			_ = resp.Body.Close()
			return nil, eris.Errorf("source: http %d from %s", resp.StatusCode, req.URL.Redacted())
		default:
			return resp.Body, nil
		}
	}
	return nil, eris.Wrap(lastErr, "source: all retries exhausted")
}

// getJSON fetches a URL and decodes the response body into out.
func (c *httpClient) getJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return eris.Wrap(err, "source: decode json response")
	}
	return nil
}

func (c *httpClient) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
