// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil carries the HTTP plumbing the collaborator clients
// share, chiefly rate-limit-aware request execution.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay is the first backoff interval after a 429 from a
// collaborator API. Each further attempt doubles it. Tests shrink this
// to keep runs fast.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// DoWithRetry sends req and, whenever the collaborator answers 429 Too
// Many Requests, backs off and tries again. Backoff doubles from
// RetryBaseDelay on every attempt.
//
// A maxRetries of 0 means the default of 5. Each 429 body is drained and
// closed before the wait so the connection can be reused. Cancelling ctx
// during a wait returns ctx.Err(). Once retries run out the final 429
// response is handed back unread, leaving the caller to decide.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
