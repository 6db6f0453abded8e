// Package linkcheck verifies that the source URLs attached to verified
// claims are still reachable.
package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"veritrack/internal/model"
	"veritrack/internal/util"
)

const checkMaxRetries = 3

// checkSleepFunc is the sleep function used between retries (injectable for tests)
var checkSleepFunc = time.Sleep

// Checker probes claim source links concurrently
type Checker struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
}

// NewChecker creates a new link checker
func NewChecker(cfg model.HTTPConfig, maxWorkers int) *Checker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Checker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
	}
}

// CheckAll probes the source URL of every claim that carries one. Claims
// without a verification or without a source URL are skipped.
func (c *Checker) CheckAll(ctx context.Context, claims []model.Claim) []model.LinkCheck {
	type target struct {
		claimID string
		url     string
	}

	var targets []target
	for _, claim := range claims {
		if claim.Verification == nil || claim.Verification.SourceURL == "" {
			continue
		}
		targets = append(targets, target{claimID: claim.ID, url: claim.Verification.SourceURL})
	}

	if len(targets) == 0 {
		return []model.LinkCheck{}
	}

	results := make([]model.LinkCheck, len(targets))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, tgt := range targets {
		wg.Add(1)
		go func(idx int, t target) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.LinkCheck{
					ClaimID:      t.claimID,
					URL:          t.url,
					IsAccessible: false,
					Error:        "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkSingleWithRetry(ctx, t.claimID, t.url)
		}(i, tgt)
	}

	wg.Wait()
	return results
}

// checkSingle probes a single URL with a HEAD request
func (c *Checker) checkSingle(ctx context.Context, claimID, rawURL string) model.LinkCheck {
	result := model.LinkCheck{
		ClaimID:      claimID,
		URL:          rawURL,
		IsAccessible: false,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	}

	return result
}

// checkSingleWithRetry retries transient failures with exponential backoff
func (c *Checker) checkSingleWithRetry(ctx context.Context, claimID, rawURL string) model.LinkCheck {
	var result model.LinkCheck
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.checkSingle(ctx, claimID, rawURL)
		if !isRetryableCheck(result) {
			return result
		}
		if attempt < checkMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			checkSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableCheck returns true for results that indicate transient failures
func isRetryableCheck(result model.LinkCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
