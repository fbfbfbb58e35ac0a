package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
)

const (
	defaultBoostAmount  = 8
	defaultHotSetSize   = 100
	defaultSearchWindow = 100

	millisPerDay = 24 * 60 * 60 * 1000
)

// Options tune the store. Zero values select the built-in defaults.
type Options struct {
	// BoostAmount is added to importance on every boosted read.
	BoostAmount float64
	// HotSetSize bounds the recency index; the lowest-ranked entries are
	// trimmed once the bound is exceeded.
	HotSetSize int64
	// SearchWindow is how many top-importance records a substring search
	// scans. Search is a bounded heuristic, not full-corpus retrieval.
	SearchWindow int64
}

// Store is the importance-scored, decay-driven record engine. It keeps four
// backend structures in step for every record: the primary field map, the
// global importance index, the per-category membership set, and the bounded
// recency index.
//
// The group of writes for one logical operation is not a cross-structure
// transaction. Instead every mutator follows a fixed ordering: primary
// record first and subordinate indexes after on create, subordinate indexes
// first and the primary record last on delete. A racing reader sees either
// "not yet visible" or "fully visible", never an index entry it cannot
// resolve back to a record.
type Store struct {
	backend core.Backend
	opts    Options

	// Per-id serialization for the boost read-modify-write, so concurrent
	// boosts never lose an importance increment.
	locks sync.Map
}

func NewStore(backend core.Backend, opts Options) *Store {
	if opts.BoostAmount == 0 {
		opts.BoostAmount = defaultBoostAmount
	}
	if opts.HotSetSize == 0 {
		opts.HotSetSize = defaultHotSetSize
	}
	if opts.SearchWindow == 0 {
		opts.SearchWindow = defaultSearchWindow
	}
	return &Store{backend: backend, opts: opts}
}

// Add creates a record and registers it in all indexes. The category is
// normalized, never rejected.
func (s *Store) Add(ctx context.Context, content, category string, confidence float64, pinned bool) (*core.MemoryRecord, error) {
	rec := newRecord(content, category, confidence, pinned)

	// Primary record first, subordinate indexes after.
	if err := s.backend.PutFields(ctx, entryKey(rec.ID), encodeRecord(rec)); err != nil {
		return nil, fmt.Errorf("failed to store memory %s: %w", rec.ID, err)
	}
	if err := s.backend.IndexPut(ctx, keyAll, rec.ID, rec.Importance); err != nil {
		return nil, s.indexFault(ctx, "importance index", rec.ID, err)
	}
	if err := s.backend.SetAdd(ctx, categoryKey(rec.Category), rec.ID); err != nil {
		return nil, s.indexFault(ctx, "category index", rec.ID, err)
	}
	if err := s.backend.IndexPut(ctx, keyAccessed, rec.ID, float64(rec.CreatedAt)); err != nil {
		return nil, s.indexFault(ctx, "recency index", rec.ID, err)
	}

	s.bumpStat(ctx, statTotalMemories, 1)
	s.bumpStat(ctx, statCategoryPrefix+rec.Category, 1)

	log.FromCtx(ctx).Debug().
		Str("id", rec.ID).
		Str("category", rec.Category).
		Float64("importance", rec.Importance).
		Msg("memory added")

	return rec, nil
}

// Get reads a record by id. Absence is reported as a nil record, not an
// error. With boost enabled the record's importance is raised and its access
// metadata updated before it is returned; with boost disabled the read has
// no side effects at all.
func (s *Store) Get(ctx context.Context, id string, boost bool) (*core.MemoryRecord, error) {
	fields, err := s.backend.GetFields(ctx, entryKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	rec := decodeRecord(fields)
	if boost {
		if err := s.boost(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// boost raises importance by the configured amount (clamped at 100), stamps
// the access, and re-ranks the record. Repeated boosts move importance
// monotonically upward until the clamp.
func (s *Store) boost(ctx context.Context, rec *core.MemoryRecord) error {
	mu := s.lockFor(rec.ID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock so two in-flight boosts compound instead of
	// one overwriting the other.
	fields, err := s.backend.GetFields(ctx, entryKey(rec.ID))
	if err != nil {
		return fmt.Errorf("failed to re-read memory %s: %w", rec.ID, err)
	}
	if current, perr := strconv.ParseFloat(fields["importance"], 64); perr == nil {
		rec.Importance = current
	}

	now := time.Now().UnixMilli()
	rec.Importance = clamp(rec.Importance+s.opts.BoostAmount, 0, 100)
	rec.LastAccessedAt = now
	rec.AccessCount++

	// Primary record first: importance and timestamp by overwrite, the
	// access counter via the backend's atomic increment.
	err = s.backend.PutFields(ctx, entryKey(rec.ID), map[string]string{
		"importance":    strconv.FormatFloat(rec.Importance, 'f', -1, 64),
		"last_accessed": strconv.FormatInt(now, 10),
	})
	if err != nil {
		return fmt.Errorf("failed to boost memory %s: %w", rec.ID, err)
	}
	if err := s.backend.IncrFieldBy(ctx, entryKey(rec.ID), "access_count", 1); err != nil {
		return s.indexFault(ctx, "access counter", rec.ID, err)
	}
	if err := s.backend.IndexPut(ctx, keyAll, rec.ID, rec.Importance); err != nil {
		return s.indexFault(ctx, "importance index", rec.ID, err)
	}
	if err := s.backend.IndexPut(ctx, keyAccessed, rec.ID, float64(now)); err != nil {
		return s.indexFault(ctx, "recency index", rec.ID, err)
	}
	if err := s.backend.IndexTrim(ctx, keyAccessed, s.opts.HotSetSize); err != nil {
		return s.indexFault(ctx, "recency trim", rec.ID, err)
	}

	s.bumpStat(ctx, statTotalAccesses, 1)
	return nil
}

// ListByCategory returns a category's records ordered by importance
// descending, truncated to limit. Unknown or empty categories yield an empty
// slice. List views never boost.
func (s *Store) ListByCategory(ctx context.Context, category string, limit int) ([]*core.MemoryRecord, error) {
	normalized := Normalize(category)
	ids, err := s.backend.SetMembers(ctx, categoryKey(normalized))
	if err != nil {
		return nil, fmt.Errorf("failed to list category %q: %w", normalized, err)
	}
	if len(ids) == 0 {
		return []*core.MemoryRecord{}, nil
	}

	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		score, ok, err := s.backend.IndexScore(ctx, keyAll, id)
		if err != nil {
			return nil, fmt.Errorf("failed to score memory %s: %w", id, err)
		}
		if ok {
			scores[id] = score
		}
	}

	sort.SliceStable(ids, func(i, j int) bool {
		return scores[ids[i]] > scores[ids[j]]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	records := make([]*core.MemoryRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Search scans a bounded window of the top-importance records for a
// case-insensitive substring. A content hit scores relevance 1.0, a
// category-name hit 0.5; non-matches are excluded. Results are ordered by
// relevance descending, ties broken by importance descending.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	needle := strings.ToLower(query)

	window, err := s.backend.IndexRangeDesc(ctx, keyAll, 0, s.opts.SearchWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to scan importance index: %w", err)
	}

	results := []core.SearchResult{}
	for _, entry := range window {
		rec, err := s.Get(ctx, entry.ID, false)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}

		var relevance float64
		switch {
		case strings.Contains(strings.ToLower(rec.Content), needle):
			relevance = 1.0
		case strings.Contains(strings.ToLower(rec.Category), needle):
			relevance = 0.5
		default:
			continue
		}

		results = append(results, core.SearchResult{MemoryRecord: *rec, Relevance: relevance})
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Importance > results[j].Importance
	})
	return results, nil
}

// Update merges a partial patch onto an existing record, validates the
// result, and re-indexes as needed. A failed validation writes nothing.
func (s *Store) Update(ctx context.Context, id string, patch core.RecordPatch) (*core.MemoryRecord, error) {
	existing, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}

	updated := *existing
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Importance != nil {
		updated.Importance = *patch.Importance
	}
	if patch.Confidence != nil {
		updated.Confidence = *patch.Confidence
	}
	if patch.Pinned != nil {
		updated.Pinned = *patch.Pinned
	}
	if patch.RelatedIDs != nil {
		updated.RelatedIDs = patch.RelatedIDs
	}

	if violations := validateRecord(&updated); len(violations) > 0 {
		return nil, &core.ValidationError{Violations: violations}
	}

	if err := s.backend.PutFields(ctx, entryKey(id), encodeRecord(&updated)); err != nil {
		return nil, fmt.Errorf("failed to update memory %s: %w", id, err)
	}
	if patch.Importance != nil {
		if err := s.backend.IndexPut(ctx, keyAll, id, updated.Importance); err != nil {
			return nil, s.indexFault(ctx, "importance index", id, err)
		}
	}
	if patch.Category != nil && updated.Category != existing.Category {
		if err := s.backend.SetRemove(ctx, categoryKey(existing.Category), id); err != nil {
			return nil, s.indexFault(ctx, "category index", id, err)
		}
		if err := s.backend.SetAdd(ctx, categoryKey(updated.Category), id); err != nil {
			return nil, s.indexFault(ctx, "category index", id, err)
		}
	}

	return &updated, nil
}

// Delete removes a record from all four structures. Idempotent: deleting an
// absent id returns false, not an error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	rec, err := s.Get(ctx, id, false)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	// Subordinate indexes first, primary record last, so a racing reader
	// never resolves an index entry to a missing record.
	if err := s.backend.IndexRemove(ctx, keyAll, id); err != nil {
		return false, s.indexFault(ctx, "importance index", id, err)
	}
	if err := s.backend.SetRemove(ctx, categoryKey(rec.Category), id); err != nil {
		return false, s.indexFault(ctx, "category index", id, err)
	}
	if err := s.backend.IndexRemove(ctx, keyAccessed, id); err != nil {
		return false, s.indexFault(ctx, "recency index", id, err)
	}
	if err := s.backend.DeleteFields(ctx, entryKey(id)); err != nil {
		return false, fmt.Errorf("failed to delete memory %s: %w", id, err)
	}

	s.bumpStat(ctx, statDeletedRecords, 1)
	return true, nil
}

// ApplyDecay multiplies every non-pinned record's importance by
// decayRate^daysElapsed, where daysElapsed is whole days since the persisted
// last-decay timestamp, floored to 1. Pinned records are skipped entirely.
// Safe to re-run: a failed sweep leaves applied updates in place and the
// elapsed-time accounting catches up on the next successful run.
func (s *Store) ApplyDecay(ctx context.Context) (core.DecayResult, error) {
	logger := log.FromCtx(ctx)
	now := time.Now().UnixMilli()

	lastRun := now
	if raw, ok, err := s.backend.GetValue(ctx, keyLastDecay); err != nil {
		return core.DecayResult{}, fmt.Errorf("failed to read last decay timestamp: %w", err)
	} else if ok {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			lastRun = parsed
		}
	}

	days := int((now - lastRun) / millisPerDay)
	if days < 1 {
		days = 1
	}
	logger.Info().Int("days", days).Msg("applying importance decay")

	entries, err := s.backend.IndexRangeAsc(ctx, keyAll, 0, -1)
	if err != nil {
		return core.DecayResult{}, fmt.Errorf("failed to scan importance index: %w", err)
	}

	decayed := 0
	for _, entry := range entries {
		rec, err := s.Get(ctx, entry.ID, false)
		if err != nil {
			return core.DecayResult{Decayed: decayed, DaysElapsed: days}, err
		}
		if rec == nil || rec.Pinned {
			continue
		}

		next := clamp(entry.Score*math.Pow(rec.DecayRate, float64(days)), 0, 100)
		err = s.backend.PutFields(ctx, entryKey(entry.ID), map[string]string{
			"importance": strconv.FormatFloat(next, 'f', -1, 64),
		})
		if err != nil {
			return core.DecayResult{Decayed: decayed, DaysElapsed: days},
				fmt.Errorf("failed to decay memory %s: %w", entry.ID, err)
		}
		if err := s.backend.IndexPut(ctx, keyAll, entry.ID, next); err != nil {
			return core.DecayResult{Decayed: decayed, DaysElapsed: days},
				s.indexFault(ctx, "importance index", entry.ID, err)
		}
		decayed++
	}

	if err := s.backend.PutValue(ctx, keyLastDecay, strconv.FormatInt(now, 10)); err != nil {
		return core.DecayResult{Decayed: decayed, DaysElapsed: days},
			fmt.Errorf("failed to store last decay timestamp: %w", err)
	}
	if err := s.backend.PutFields(ctx, keyStats, map[string]string{
		statLastDecay: strconv.FormatInt(now, 10),
	}); err != nil {
		logger.Error().Err(err).Msg("failed to record decay timestamp in stats")
	}

	logger.Info().Int("decayed", decayed).Msg("decay applied")
	return core.DecayResult{Decayed: decayed, DaysElapsed: days}, nil
}

// Prune deletes every record with importance strictly below threshold,
// walking the importance index ascending and stopping at the first record at
// or above it. The index stays globally sorted between runs because every
// importance mutation re-indexes immediately, so the short-circuit is valid.
func (s *Store) Prune(ctx context.Context, threshold float64) (int, error) {
	entries, err := s.backend.IndexRangeAsc(ctx, keyAll, 0, -1)
	if err != nil {
		return 0, fmt.Errorf("failed to scan importance index: %w", err)
	}

	pruned := 0
	for _, entry := range entries {
		if entry.Score >= threshold {
			break
		}
		removed, err := s.Delete(ctx, entry.ID)
		if err != nil {
			return pruned, err
		}
		if removed {
			pruned++
		}
	}

	if pruned > 0 {
		s.bumpStat(ctx, statPrunedRecords, int64(pruned))
	}
	log.FromCtx(ctx).Info().
		Int("pruned", pruned).
		Float64("threshold", threshold).
		Msg("low-importance memories pruned")
	return pruned, nil
}

// Stats returns the aggregate view: totals, the hot-set size, the durable
// counters, and a count for every known category (zero when empty).
func (s *Store) Stats(ctx context.Context) (*core.MemoryStats, error) {
	total, err := s.backend.IndexCard(ctx, keyAll)
	if err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}
	hot, err := s.backend.IndexCard(ctx, keyAccessed)
	if err != nil {
		return nil, fmt.Errorf("failed to count hot memories: %w", err)
	}
	rawStats, err := s.backend.GetFields(ctx, keyStats)
	if err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	stats := &core.MemoryStats{
		TotalMemories: total,
		HotMemories:   hot,
		Counters:      make(map[string]int64, len(rawStats)),
		Categories:    make(map[string]int64, len(categories)),
	}
	for field, raw := range rawStats {
		v, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		if field == statLastDecay {
			stats.LastDecay = v
			continue
		}
		stats.Counters[field] = v
	}

	for _, cat := range categories {
		n, err := s.backend.SetCard(ctx, categoryKey(cat))
		if err != nil {
			return nil, fmt.Errorf("failed to count category %q: %w", cat, err)
		}
		stats.Categories[cat] = n
	}

	return stats, nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// bumpStat increments a durable counter. Counter drift is tolerable; a
// failed increment is logged and swallowed.
func (s *Store) bumpStat(ctx context.Context, field string, delta int64) {
	if err := s.backend.IncrFieldBy(ctx, keyStats, field, delta); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("stat", field).Msg("failed to increment stat")
	}
}

// indexFault wraps a subordinate-index write failure. The already-written
// structures are left as-is: the store never replays a partially-completed
// multi-structure sequence, it logs and surfaces the fault.
func (s *Store) indexFault(ctx context.Context, structure, id string, err error) error {
	log.FromCtx(ctx).Error().Err(err).
		Str("structure", structure).
		Str("id", id).
		Msg("index write failed mid-sequence")
	return fmt.Errorf("failed to update %s for %s: %w", structure, id, err)
}
