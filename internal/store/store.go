// Package store owns the authoritative claim and source collections.
// All other components operate on snapshots or single claims passed by
// value; nothing outside this package mutates shared state directly.
package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"veritrack/internal/model"
	"veritrack/internal/score"
)

// ErrStaleSnapshot is returned by ReplaceClaims when a mutation landed
// after the snapshot the replacement was computed from.
var ErrStaleSnapshot = errors.New("store: snapshot is stale")

// SourceSpec describes a source to be created
type SourceSpec struct {
	Name       string
	Category   model.SourceCategory
	RawContent string
}

// Store holds sources and claims for the lifetime of the process.
// Every mutation is serialized under one mutex and bumps the version,
// which ReplaceClaims uses as an optimistic guard against a whole-list
// replace clobbering a per-claim update that raced it.
type Store struct {
	mu      sync.Mutex
	sources []model.Source
	claims  []model.Claim
	version uint64

	// seq disambiguates claim ids minted within the same nanosecond
	seq atomic.Int64
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// CreateSource registers a new immutable source and returns it
func (s *Store) CreateSource(spec SourceSpec) model.Source {
	src := model.Source{
		ID:         uuid.NewString(),
		Name:       spec.Name,
		Category:   spec.Category,
		RawContent: spec.RawContent,
		IngestedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.version++
	s.mu.Unlock()

	return src
}

// RecordExtraction mints claims from an extraction batch: each gets a
// fresh globally-unique id, an initial score/level/status from the
// score engine, and the new-claim highlight flag. The claims are NOT
// inserted; the caller decides between a first-round insert and a
// conflict-resolution merge. Returns nil if the source is not known to
// the store, since a claim must never reference a missing source.
func (s *Store) RecordExtraction(source model.Source, items []model.ExtractedClaim) []model.Claim {
	if !s.hasSource(source.ID) {
		return nil
	}

	claims := make([]model.Claim, 0, len(items))
	for i, item := range items {
		sc, level, status := score.ApplyExtraction(item.Score)
		claims = append(claims, model.Claim{
			ID:               s.mintID(source.ID, i),
			Text:             item.ClaimText,
			OriginalText:     item.ClaimText,
			SourceID:         source.ID,
			CredibilityScore: sc,
			CredibilityLevel: level,
			BiasAnalysis:     item.BiasAnalysis,
			Context:          item.Context,
			Status:           status,
			IsNew:            true,
		})
	}
	return claims
}

// mintID builds a claim id that cannot collide even for items minted in
// the same millisecond: source prefix + positional index + monotonic
// counter + high-resolution timestamp.
func (s *Store) mintID(sourceID string, index int) string {
	prefix := sourceID
	if i := strings.IndexByte(prefix, '-'); i > 0 {
		prefix = prefix[:i]
	}
	return fmt.Sprintf("%s-%d-%d-%d", prefix, index, s.seq.Add(1), time.Now().UnixNano())
}

// InsertClaims appends minted claims to the collection (first-round ingestion)
func (s *Store) InsertClaims(claims []model.Claim) {
	s.mu.Lock()
	s.claims = append(s.claims, cloneClaims(claims)...)
	s.version++
	s.mu.Unlock()
}

// Snapshot returns deep copies of the source and claim collections
// along with the version they were observed at.
func (s *Store) Snapshot() ([]model.Source, []model.Claim, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := make([]model.Source, len(s.sources))
	copy(sources, s.sources)
	return sources, cloneClaims(s.claims), s.version
}

// ReplaceClaims atomically swaps the authoritative claim collection.
// baseVersion must be the version of the snapshot the new list was
// computed from; if any mutation landed since, ErrStaleSnapshot is
// returned and nothing changes, so the caller can recompute instead of
// silently destroying the racing update.
func (s *Store) ReplaceClaims(claims []model.Claim, baseVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != baseVersion {
		return ErrStaleSnapshot
	}
	s.claims = cloneClaims(claims)
	s.version++
	return nil
}

// UpdateClaim applies a pure transformation to the claim with the given
// id. A missing id is a silent no-op: the claim may have been replaced
// between a verification request being issued and its response
// arriving, and that race is legitimate, not an error.
func (s *Store) UpdateClaim(id string, update func(model.Claim) model.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.claims {
		if s.claims[i].ID == id {
			s.claims[i] = cloneClaim(update(cloneClaim(s.claims[i])))
			s.version++
			return
		}
	}
}

// Claim returns a copy of the claim with the given id
func (s *Store) Claim(id string) (model.Claim, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.claims {
		if s.claims[i].ID == id {
			return cloneClaim(s.claims[i]), true
		}
	}
	return model.Claim{}, false
}

// ClaimIDs returns the ids of all claims in display order
func (s *Store) ClaimIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.claims))
	for i, c := range s.claims {
		ids[i] = c.ID
	}
	return ids
}

// MarkSeen clears the transient new-claim highlight on every claim.
// Called at the start of an ingestion round so only the newest batch
// carries the flag.
func (s *Store) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.claims {
		if s.claims[i].IsNew {
			s.claims[i].IsNew = false
			changed = true
		}
	}
	if changed {
		s.version++
	}
}

// Counts returns the number of sources and claims
func (s *Store) Counts() (sources int, claims int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources), len(s.claims)
}

func (s *Store) hasSource(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sources {
		if s.sources[i].ID == id {
			return true
		}
	}
	return false
}

// cloneClaim copies a claim including its verification result, so
// snapshot holders can never alias store-owned memory.
func cloneClaim(c model.Claim) model.Claim {
	if c.Verification != nil {
		v := *c.Verification
		c.Verification = &v
	}
	return c
}

func cloneClaims(claims []model.Claim) []model.Claim {
	out := make([]model.Claim, len(claims))
	for i, c := range claims {
		out[i] = cloneClaim(c)
	}
	return out
}
