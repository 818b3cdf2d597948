package backend

import (
	"context"
	"net/http"
	"time"
)

// retryableStatus reports whether an HTTP status warrants a transparent
// retry. Rate limits and server-side failures are transient; everything
// else is terminal.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doWithRetry performs an HTTP request with bounded retries and exponential
// backoff. The build function is invoked per attempt so the request body
// reader is fresh each time. Retries stop as soon as the context is done;
// callers always receive either a non-retryable response or the last error.
func doWithRetry(ctx context.Context, hc *http.Client, maxRetries int, backoff time.Duration, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if retryableStatus(resp.StatusCode) && attempt < maxRetries {
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}
