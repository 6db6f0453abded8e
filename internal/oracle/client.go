package oracle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"veritrack/internal/cache"
	"veritrack/internal/model"
)

// SynthesisFallback is returned by Synthesize when the oracle cannot be
// reached. It is a fixed human-readable string, never an error.
const SynthesisFallback = "Report generation is unavailable: the analysis service could not be reached."

// Client wraps a Provider with the fallback policy, response caching,
// and rate limiting. Callers get the documented degraded value on any
// failure; the only operation that surfaces an error is Verify, whose
// caller needs to flag the claim.
type Client struct {
	provider Provider
	cache    cache.Cache // nil disables caching
	limiter  *rate.Limiter
	log      *zap.Logger
}

// ClientOptions configures a Client
type ClientOptions struct {
	Cache             cache.Cache
	RequestsPerMinute float64
	Burst             int
	Logger            *zap.Logger
}

// NewClient creates a Client around a provider
func NewClient(provider Provider, opts ClientOptions) *Client {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		provider: provider,
		cache:    opts.Cache,
		limiter:  rate.NewLimiter(rate.Limit(rpm/60.0), burst),
		log:      logger,
	}
}

// Provider returns the underlying provider
func (c *Client) Provider() Provider {
	return c.provider
}

// Extract asks the oracle for candidate claims. Per the extraction
// contract it never fails: any provider or schema error yields an empty
// batch, which the caller treats as a no-op ingestion round.
func (c *Client) Extract(ctx context.Context, text string, source model.Source) []model.ExtractedClaim {
	raw, err := c.complete(ctx, "extract", buildExtractionPrompt(text, source), true)
	if err != nil {
		c.log.Warn("extraction failed, returning empty batch",
			zap.String("source", source.Name), zap.Error(err))
		return []model.ExtractedClaim{}
	}

	claims, err := parseExtraction(raw)
	if err != nil {
		c.log.Warn("extraction response malformed, returning empty batch",
			zap.String("source", source.Name), zap.Error(err))
		return []model.ExtractedClaim{}
	}

	return claims
}

// Verify asks the oracle to check one claim. On failure the caller must
// flag the claim and leave its verification absent.
func (c *Client) Verify(ctx context.Context, claim model.Claim) (*model.VerificationResult, error) {
	// Never cached: re-verification is expected to be fresh
	raw, err := c.complete(ctx, "verify", buildVerificationPrompt(claim), false)
	if err != nil {
		return nil, fmt.Errorf("verify claim %s: %w", claim.ID, err)
	}

	result, err := parseVerification(raw)
	if err != nil {
		return nil, fmt.Errorf("verify claim %s: %w", claim.ID, err)
	}

	return result, nil
}

// Classify asks the oracle how an incoming batch interacts with the
// existing corpus. An empty slice with a nil error is a valid "no
// interactions found" result; an error means the call itself failed and
// the merge must fail open.
func (c *Client) Classify(ctx context.Context, existing, incoming []ClaimRef) ([]model.Interaction, error) {
	raw, err := c.complete(ctx, "classify", buildClassificationPrompt(existing, incoming), true)
	if err != nil {
		return nil, err
	}

	interactions, err := parseInteractions(raw)
	if err != nil {
		return nil, err
	}

	return interactions, nil
}

// Synthesize asks the oracle to write the report prose. On any failure
// it returns the fixed fallback string instead of raising.
func (c *Client) Synthesize(ctx context.Context, items []model.ReportItem) string {
	raw, err := c.complete(ctx, "synthesize", buildSynthesisPrompt(items), true)
	if err != nil {
		c.log.Warn("synthesis failed, returning fallback", zap.Error(err))
		return SynthesisFallback
	}
	return raw
}

// complete runs one oracle round trip: cache lookup, rate limit wait,
// provider call, cache store. cacheable is false for operations whose
// answer must be fresh.
func (c *Client) complete(ctx context.Context, op, prompt string, cacheable bool) (string, error) {
	key := cache.Key(op, prompt)

	if cacheable && c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			return string(cached), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	raw, err := c.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	c.log.Debug("oracle call completed",
		zap.String("op", op),
		zap.String("provider", c.provider.Name()),
		zap.Duration("duration", time.Since(start)))

	if cacheable && c.cache != nil {
		if err := c.cache.Set(key, []byte(raw), 0); err != nil {
			c.log.Debug("cache store failed", zap.String("op", op), zap.Error(err))
		}
	}

	return raw, nil
}
