// Package pipeline orchestrates the claim lifecycle: ingestion rounds,
// single and batch verification, and report generation, all over one
// shared store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"veritrack/internal/cache"
	"veritrack/internal/fetch"
	"veritrack/internal/linkcheck"
	"veritrack/internal/model"
	"veritrack/internal/oracle"
	"veritrack/internal/report"
	"veritrack/internal/resolve"
	"veritrack/internal/score"
	"veritrack/internal/store"
	"veritrack/internal/worker"
)

// Oracle is the slice of the analysis client the pipeline calls directly.
// Classification and synthesis are reached through the resolver and the
// report builder.
type Oracle interface {
	Extract(ctx context.Context, text string, source model.Source) []model.ExtractedClaim
	Verify(ctx context.Context, claim model.Claim) (*model.VerificationResult, error)
}

// Options wires a pipeline together. Fetcher and Links are optional;
// without them IngestURL and link-annotated reports are unavailable.
type Options struct {
	Store         *store.Store
	Oracle        Oracle
	Resolver      *resolve.Resolver
	Reporter      *report.Builder
	Fetcher       *fetch.Fetcher
	Links         *linkcheck.Checker
	VerifyWorkers int
	Logger        *zap.Logger
}

// Pipeline coordinates the components over one claim store
type Pipeline struct {
	store    *store.Store
	oracle   Oracle
	resolver *resolve.Resolver
	reporter *report.Builder
	fetcher  *fetch.Fetcher
	links    *linkcheck.Checker
	workers  int
	log      *zap.Logger

	// mergeMu serializes ingestion rounds. Per-claim verification
	// updates deliberately run outside it; the store version guard
	// protects the replace against them.
	mergeMu sync.Mutex
}

// New creates a pipeline from explicit components
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.VerifyWorkers
	if workers <= 0 {
		workers = 4
	}

	return &Pipeline{
		store:    opts.Store,
		oracle:   opts.Oracle,
		resolver: opts.Resolver,
		reporter: opts.Reporter,
		fetcher:  opts.Fetcher,
		links:    opts.Links,
		workers:  workers,
		log:      logger,
	}
}

// FromConfig builds a fully wired pipeline: oracle provider, response
// cache, resolver, report builder, fetcher, and link checker.
func FromConfig(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := oracle.NewProvider(oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return nil, fmt.Errorf("oracle provider: %w", err)
	}

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			responseCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			responseCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		}
	}

	client := oracle.NewClient(provider, oracle.ClientOptions{
		Cache:             responseCache,
		RequestsPerMinute: cfg.Oracle.RequestsPerMinute,
		Burst:             cfg.Oracle.Burst,
		Logger:            logger,
	})

	return New(Options{
		Store:         store.New(),
		Oracle:        client,
		Resolver:      resolve.New(client, logger),
		Reporter:      report.NewBuilder(client, logger),
		Fetcher:       fetch.NewFetcher(cfg.HTTP, logger),
		Links:         linkcheck.NewChecker(cfg.HTTP, cfg.Concurrency.LinkCheckWorkers),
		VerifyWorkers: cfg.Concurrency.VerifyWorkers,
		Logger:        logger,
	}), nil
}

// Store exposes the underlying claim store
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// IngestResult summarizes one ingestion round
type IngestResult struct {
	Source    model.Source
	Extracted int  // Candidate claims the oracle produced
	Merged    bool // True when the round went through conflict resolution
	Claims    int  // Total claims after the round
}

// Ingest runs one ingestion round: create the source, extract candidate
// claims, and either insert them (first round) or merge them against
// the existing corpus. An unknown category falls back to user input.
func (p *Pipeline) Ingest(ctx context.Context, name string, category model.SourceCategory, content string) (*IngestResult, error) {
	if !model.ValidCategory(category) {
		category = model.CategoryUserInput
	}

	src := p.store.CreateSource(store.SourceSpec{
		Name:       name,
		Category:   category,
		RawContent: content,
	})

	batch := p.oracle.Extract(ctx, content, src)
	p.log.Info("extraction round completed",
		zap.String("source", src.Name),
		zap.String("category", string(category)),
		zap.Int("candidates", len(batch)))

	// Only the newest batch carries the highlight flag
	p.store.MarkSeen()

	minted := p.store.RecordExtraction(src, batch)
	merged := false
	if len(minted) > 0 {
		merged = p.applyBatch(ctx, minted)
	}

	_, claims := p.store.Counts()
	return &IngestResult{
		Source:    src,
		Extracted: len(batch),
		Merged:    merged,
		Claims:    claims,
	}, nil
}

// IngestURL fetches a page, reduces it to visible text, and runs the
// normal ingestion round on it.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string, category model.SourceCategory) (*IngestResult, error) {
	if p.fetcher == nil {
		return nil, errors.New("pipeline: URL ingestion is not configured")
	}

	page, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("ingest url: %w", err)
	}

	name := page.Title
	if name == "" {
		name = page.Subject
	}
	if !model.ValidCategory(category) {
		category = model.CategoryNewsArticle
	}

	return p.Ingest(ctx, name, category, page.Text)
}

// applyBatch lands a minted batch in the store, returning whether the
// round was a conflict-resolution merge. On a stale snapshot the pure
// interaction transform is replayed against fresh claims, so a racing
// per-claim update survives without a second oracle call.
func (p *Pipeline) applyBatch(ctx context.Context, minted []model.Claim) bool {
	p.mergeMu.Lock()
	defer p.mergeMu.Unlock()

	_, existing, version := p.store.Snapshot()
	if len(existing) == 0 {
		p.store.InsertClaims(minted)
		return false
	}

	merged, interactions, classified := p.resolver.MergeDetailed(ctx, existing, minted)

	for {
		err := p.store.ReplaceClaims(merged, version)
		if err == nil {
			return true
		}
		if !errors.Is(err, store.ErrStaleSnapshot) {
			p.log.Error("claim replace failed", zap.Error(err))
			return true
		}

		p.log.Debug("snapshot went stale during merge, replaying")
		_, existing, version = p.store.Snapshot()
		if classified {
			merged = resolve.ApplyInteractions(existing, minted, interactions)
		} else {
			merged = append(append([]model.Claim{}, minted...), existing...)
		}
	}
}

// VerifyClaim runs one claim through the verification oracle and applies
// the outcome. On oracle failure the claim is flagged with its
// verification left absent, and the error is returned for reporting.
func (p *Pipeline) VerifyClaim(ctx context.Context, claimID string) error {
	claim, ok := p.store.Claim(claimID)
	if !ok {
		return fmt.Errorf("claim %s not found", claimID)
	}

	p.store.UpdateClaim(claimID, func(c model.Claim) model.Claim {
		c.Status = model.StatusAnalyzing
		return c
	})

	result, err := p.oracle.Verify(ctx, claim)
	if err != nil {
		p.store.UpdateClaim(claimID, func(c model.Claim) model.Claim {
			c.Status = model.StatusFlagged
			return c
		})
		p.log.Warn("verification failed", zap.String("claim", claimID), zap.Error(err))
		return err
	}

	// Score against the claim's current state, not the snapshot taken
	// before the oracle call; a racing update wins by arriving later.
	p.store.UpdateClaim(claimID, func(c model.Claim) model.Claim {
		newScore, newStatus := score.ApplyVerification(c.CredibilityScore, result.Summary)
		c.CredibilityScore = newScore
		c.CredibilityLevel = score.LevelFor(newScore)
		c.Status = newStatus
		c.Verification = result
		c.BiasAnalysis += " [VERIFICATION] " + result.Summary
		return c
	})

	p.log.Info("claim verified",
		zap.String("claim", claimID),
		zap.Bool("is_verified", result.IsVerified))
	return nil
}

// VerifyAll runs every claim through verification concurrently. Results
// land in the store in arrival order, last write winning per claim.
func (p *Pipeline) VerifyAll(ctx context.Context) []*worker.VerifyResult {
	ids := p.store.ClaimIDs()
	batch := worker.NewBatchVerifier(verifierFunc(p.VerifyClaim), p.workers)
	return batch.VerifyAll(ctx, ids)
}

// verifierFunc adapts a function to the worker.Verifier interface
type verifierFunc func(ctx context.Context, claimID string) error

func (f verifierFunc) VerifyClaim(ctx context.Context, claimID string) error {
	return f(ctx, claimID)
}

// Report builds a report from the current snapshot. With checkLinks set
// and a link checker configured, verification source URLs are probed and
// the results attached as advisory annotations.
func (p *Pipeline) Report(ctx context.Context, checkLinks bool) model.Report {
	_, claims, _ := p.store.Snapshot()
	rep := p.reporter.Build(ctx, claims)

	if checkLinks && p.links != nil {
		rep.Links = p.links.CheckAll(ctx, claims)
	}

	return rep
}

// Claims returns a snapshot of the current claim collection
func (p *Pipeline) Claims() []model.Claim {
	_, claims, _ := p.store.Snapshot()
	return claims
}

// Sources returns a snapshot of the registered sources
func (p *Pipeline) Sources() []model.Source {
	sources, _, _ := p.store.Snapshot()
	return sources
}
