package worker

import (
	"context"
)

// Verifier verifies a single claim by id
type Verifier interface {
	VerifyClaim(ctx context.Context, claimID string) error
}

// VerifyJob represents a claim verification job
type VerifyJob struct {
	ClaimID  string
	Verifier Verifier
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	return &VerifyResult{
		ClaimID: j.ClaimID,
		Error:   j.Verifier.VerifyClaim(ctx, j.ClaimID),
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	ClaimID string
	Error   error
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchVerifier verifies multiple claims concurrently
type BatchVerifier struct {
	verifier    Verifier
	concurrency int
}

// NewBatchVerifier creates a new batch verifier
func NewBatchVerifier(verifier Verifier, concurrency int) *BatchVerifier {
	return &BatchVerifier{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// VerifyAll verifies the given claims concurrently and returns one result
// per claim. Result order is completion order, not submission order.
func (b *BatchVerifier) VerifyAll(ctx context.Context, claimIDs []string) []*VerifyResult {
	if len(claimIDs) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, id := range claimIDs {
		pool.Submit(&VerifyJob{
			ClaimID:  id,
			Verifier: b.verifier,
		})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, len(results))
	for i, result := range results {
		verifyResults[i] = result.(*VerifyResult)
	}

	return verifyResults
}
