package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const userAgent = "cryptomonth/1.0"

// maxResponseBytes caps upstream response bodies. The largest normal
// payload (CoinMarketCap 1000 listings) is well under 4 MiB.
const maxResponseBytes = 16 << 20

// guard wraps one upstream host with a token-bucket rate limiter, a
// circuit breaker and a bounded-timeout HTTP client. Every adapter
// request goes through it.
type guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	client  *http.Client
}

func newGuard(name string, rps float64, burst int, timeout time.Duration) *guard {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &guard{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		client: &http.Client{Timeout: timeout},
	}
}

// getJSON fetches url and decodes the 2xx response body into v. Rate
// limiting, breaker state and non-2xx statuses all surface as errors;
// the caller's fan-out decides what a failure means for the run.
func (g *guard) getJSON(ctx context.Context, url string, header http.Header, v interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", g.name, err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		for k, vals := range header {
			for _, val := range vals {
				req.Header.Add(k, val)
			}
		}

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body := io.LimitReader(resp.Body, maxResponseBytes)
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	return nil
}
