package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

// stubVerifier records which claims it was asked to verify
type stubVerifier struct {
	mu      sync.Mutex
	called  []string
	failIDs map[string]bool
}

func (s *stubVerifier) VerifyClaim(ctx context.Context, claimID string) error {
	s.mu.Lock()
	s.called = append(s.called, claimID)
	s.mu.Unlock()

	if s.failIDs[claimID] {
		return errors.New("verification failed")
	}
	return nil
}

func TestBatchVerifier_VerifyAll(t *testing.T) {
	verifier := &stubVerifier{failIDs: map[string]bool{"c3": true}}
	batch := NewBatchVerifier(verifier, 4)

	ids := []string{"c1", "c2", "c3", "c4", "c5"}
	results := batch.VerifyAll(context.Background(), ids)

	if len(results) != len(ids) {
		t.Fatalf("results = %d, want %d", len(results), len(ids))
	}

	gotIDs := make([]string, len(results))
	failures := 0
	for i, r := range results {
		gotIDs[i] = r.ClaimID
		if r.GetError() != nil {
			failures++
			if r.ClaimID != "c3" {
				t.Errorf("unexpected failure for %s", r.ClaimID)
			}
		}
	}
	sort.Strings(gotIDs)

	wantIDs := append([]string(nil), ids...)
	sort.Strings(wantIDs)
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("ids = %v, want %v", gotIDs, wantIDs)
		}
	}

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestBatchVerifier_Empty(t *testing.T) {
	batch := NewBatchVerifier(&stubVerifier{}, 4)
	results := batch.VerifyAll(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("want empty non-nil slice, got %v", results)
	}
}

func TestReadURLsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.txt")
	content := "https://a.example.com/one\n" +
		"\n" +
		"# a comment\n" +
		"https://b.example.com/two\n" +
		"https://a.example.com/one\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"https://a.example.com/one", "https://b.example.com/two"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestReadURLsFromFile_Missing(t *testing.T) {
	if _, err := ReadURLsFromFile("/nonexistent/urls.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
