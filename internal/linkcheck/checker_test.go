package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"veritrack/internal/model"
)

func testConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:   5 * time.Second,
		UserAgent: "test-agent",
	}
}

func claimWithURL(id, url string) model.Claim {
	return model.Claim{
		ID: id,
		Verification: &model.VerificationResult{
			Summary:   "ok",
			SourceURL: url,
		},
	}
}

func TestCheckAll_MixedResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	claims := []model.Claim{
		claimWithURL("c1", server.URL+"/good"),
		claimWithURL("c2", server.URL+"/gone"),
		{ID: "c3"}, // no verification, skipped
		{ID: "c4", Verification: &model.VerificationResult{Summary: "no url"}},
	}

	checker := NewChecker(testConfig(), 4)
	results := checker.CheckAll(context.Background(), claims)

	if len(results) != 2 {
		t.Fatalf("len = %d, want 2 (claims without source URLs are skipped)", len(results))
	}

	byID := make(map[string]model.LinkCheck)
	for _, r := range results {
		byID[r.ClaimID] = r
	}

	if !byID["c1"].IsAccessible || byID["c1"].StatusCode != 200 {
		t.Errorf("c1 = %+v", byID["c1"])
	}
	if byID["c2"].IsAccessible || byID["c2"].StatusCode != 404 {
		t.Errorf("c2 = %+v", byID["c2"])
	}
}

func TestCheckAll_UsesHead(t *testing.T) {
	var method atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method.Store(r.Method)
	}))
	defer server.Close()

	checker := NewChecker(testConfig(), 1)
	checker.CheckAll(context.Background(), []model.Claim{claimWithURL("c1", server.URL)})

	if method.Load() != http.MethodHead {
		t.Errorf("method = %v, want HEAD", method.Load())
	}
}

func TestCheckAll_Empty(t *testing.T) {
	checker := NewChecker(testConfig(), 4)
	results := checker.CheckAll(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("want empty non-nil slice, got %v", results)
	}
}

func TestCheckAll_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}))
	defer server.Close()

	origSleep := checkSleepFunc
	checkSleepFunc = func(d time.Duration) {}
	defer func() { checkSleepFunc = origSleep }()

	checker := NewChecker(testConfig(), 1)
	results := checker.CheckAll(context.Background(), []model.Claim{claimWithURL("c1", server.URL)})

	if !results[0].IsAccessible {
		t.Errorf("expected success after retries, got %+v", results[0])
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestIsRetryableCheck(t *testing.T) {
	tests := []struct {
		name      string
		result    model.LinkCheck
		retryable bool
	}{
		{"503", model.LinkCheck{StatusCode: 503}, true},
		{"429", model.LinkCheck{StatusCode: 429}, true},
		{"404", model.LinkCheck{StatusCode: 404}, false},
		{"200", model.LinkCheck{StatusCode: 200, IsAccessible: true}, false},
		{"timeout", model.LinkCheck{Error: "request failed: context deadline exceeded (Client.Timeout)"}, true},
		{"refused", model.LinkCheck{Error: "request failed: dial tcp: connection refused"}, true},
		{"bad url", model.LinkCheck{Error: "create request: parse: invalid URL"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableCheck(tt.result); got != tt.retryable {
				t.Errorf("isRetryableCheck(%+v) = %v, want %v", tt.result, got, tt.retryable)
			}
		})
	}
}
