package memory

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, ":memory:")
	require.NoError(t, err, "failed to open test database")

	backend := sqlite.NewBackend(db)
	t.Cleanup(func() { backend.Close() })
	return NewStore(backend, Options{})
}

func ptr[T any](v T) *T { return &v }

func TestAddThenBoostedGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "rewrite the billing service", "Active Projects", 85, false)
	require.NoError(t, err)
	assert.Equal(t, "Active Projects", rec.Category)
	assert.Equal(t, float64(90), rec.Importance, "importance comes from the category base")
	assert.Equal(t, float64(85), rec.Confidence)

	got, err := s.Get(ctx, rec.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, float64(98), got.Importance, "90 base + 8 boost")
	assert.Equal(t, int64(1), got.AccessCount)
	assert.GreaterOrEqual(t, got.LastAccessedAt, rec.CreatedAt)
}

func TestGetMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Get(ctx, "mem_nope", true)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBoostMonotonicAndClamped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "lives in Lisbon", "Boss Profile", 90, false)
	require.NoError(t, err)
	require.Equal(t, float64(100), rec.Importance, "Boss Profile base is already at the rail")

	prev := rec.Importance
	for i := 1; i <= 5; i++ {
		got, err := s.Get(ctx, rec.ID, true)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Importance, prev, "boost never decreases importance")
		assert.LessOrEqual(t, got.Importance, float64(100))
		assert.Equal(t, int64(i), got.AccessCount)
		prev = got.Importance
	}
}

func TestSilentGetHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "drinks tea, not coffee", "Food & Drink Preferences", 80, false)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := s.Get(ctx, rec.ID, false)
		require.NoError(t, err)
		assert.Equal(t, rec.Importance, got.Importance)
		assert.Equal(t, int64(0), got.AccessCount)
		assert.Equal(t, rec.LastAccessedAt, got.LastAccessedAt)
	}
}

func TestConcurrentBoostsLoseNoIncrements(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "weekly sync moved to Tuesday", "Habits & Routines", 80, false)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Get(ctx, rec.ID, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.AccessCount)
	assert.LessOrEqual(t, got.Importance, float64(100))
	assert.GreaterOrEqual(t, got.Importance, rec.Importance)
}

func TestListByCategoryOrdersByImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	low, err := s.Add(ctx, "low priority fact", "Technology & Tools", 80, false)
	require.NoError(t, err)
	high, err := s.Add(ctx, "high priority fact", "Technology & Tools", 80, false)
	require.NoError(t, err)

	_, err = s.Update(ctx, low.ID, core.RecordPatch{Importance: ptr(40.0)})
	require.NoError(t, err)
	_, err = s.Update(ctx, high.ID, core.RecordPatch{Importance: ptr(90.0)})
	require.NoError(t, err)

	records, err := s.ListByCategory(ctx, "Technology & Tools", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, high.ID, records[0].ID)
	assert.Equal(t, low.ID, records[1].ID)

	// Listing must not perturb ranking.
	got, err := s.Get(ctx, high.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.AccessCount)
}

func TestListByCategoryUnknownIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records, err := s.ListByCategory(ctx, "entirely unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, records, "unknown category lists the fallback, which is empty")
}

func TestListByCategoryHonorsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.Add(ctx, "fact "+strconv.Itoa(i), "Travel & Places", 80, false)
		require.NoError(t, err)
	}

	records, err := s.ListByCategory(ctx, "Travel & Places", 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestSearchRanksContentAboveCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Content hit: relevance 1.0. Lives in a low-importance category.
	contentHit, err := s.Add(ctx, "met John Smith at the conference", "Notes & Miscellaneous", 80, false)
	require.NoError(t, err)
	// Not a match for "john" at all; only the second query, aimed at its
	// category name, finds it.
	categoryHit, err := s.Add(ctx, "met someone at the conference", "Friends & Contacts", 80, false)
	require.NoError(t, err)

	results, err := s.Search(ctx, "john", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, contentHit.ID, results[0].ID)
	assert.Equal(t, 1.0, results[0].Relevance)

	results, err = s.Search(ctx, "contacts", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, categoryHit.ID, results[0].ID)
	assert.Equal(t, 0.5, results[0].Relevance)
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// "travel" hits one record's content and another record's category name.
	inContent, err := s.Add(ctx, "wants to travel to Kyoto", "Notes & Miscellaneous", 80, false)
	require.NoError(t, err)
	inCategory, err := s.Add(ctx, "prefers window seats", "Travel & Places", 80, false)
	require.NoError(t, err)

	results, err := s.Search(ctx, "travel", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, inContent.ID, results[0].ID, "content match outranks category match")
	assert.Equal(t, 1.0, results[0].Relevance)
	assert.Equal(t, inCategory.ID, results[1].ID)
	assert.Equal(t, 0.5, results[1].Relevance)

	// Ties on relevance break by importance descending.
	other, err := s.Add(ctx, "travel insurance is sorted", "Boss Profile", 80, false)
	require.NoError(t, err)
	results, err = s.Search(ctx, "travel", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, other.ID, results[0].ID, "higher importance wins the relevance tie")
	assert.Equal(t, inContent.ID, results[1].ID)
}

func TestSearchHonorsLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 6; i++ {
		_, err := s.Add(ctx, "likes hiking trip "+strconv.Itoa(i), "Entertainment Preferences", 80, false)
		require.NoError(t, err)
	}

	results, err := s.Search(ctx, "hiking", 4)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestUpdateMissingRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Update(ctx, "mem_missing", core.RecordPatch{Content: ptr("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "original content", "Decisions & Commitments", 80, false)
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, core.RecordPatch{Content: ptr("")})
	require.Error(t, err)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Violations)

	got, err := s.Get(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "original content", got.Content, "failed validation must not write")
}

func TestUpdateCategoryMovesMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "ship the migration", "Active Projects", 80, false)
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, core.RecordPatch{Category: ptr("Decisions & Commitments")})
	require.NoError(t, err)

	oldList, err := s.ListByCategory(ctx, "Active Projects", 10)
	require.NoError(t, err)
	for _, r := range oldList {
		assert.NotEqual(t, rec.ID, r.ID, "old category still lists the record")
	}

	newList, err := s.ListByCategory(ctx, "Decisions & Commitments", 10)
	require.NoError(t, err)
	require.Len(t, newList, 1)
	assert.Equal(t, rec.ID, newList[0].ID)
}

func TestUpdateRejectsUnknownCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "x", "Active Projects", 80, false)
	require.NoError(t, err)

	// Update does not normalize; a non-taxonomy category fails validation.
	_, err = s.Update(ctx, rec.ID, core.RecordPatch{Category: ptr("Johnson Projects")})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "temporary note", "Notes & Miscellaneous", 80, false)
	require.NoError(t, err)

	removed, err := s.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := s.Get(ctx, rec.ID, true)
	require.NoError(t, err)
	assert.Nil(t, got, "deleted record must not resolve")

	removed, err = s.Delete(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports absence, not an error")
}

func TestApplyDecay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "gym on Mondays", "Habits & Routines", 80, false)
	require.NoError(t, err)
	require.Equal(t, float64(85), rec.Importance)
	require.Equal(t, 0.95, rec.DecayRate)

	// Pretend the last run happened three days ago.
	threeDaysAgo := time.Now().Add(-72*time.Hour - time.Minute).UnixMilli()
	require.NoError(t, s.backend.PutValue(ctx, keyLastDecay, strconv.FormatInt(threeDaysAgo, 10)))

	result, err := s.ApplyDecay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.DaysElapsed)
	assert.Equal(t, 1, result.Decayed)

	got, err := s.Get(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.InDelta(t, 85*0.95*0.95*0.95, got.Importance, 1e-9)
}

func TestApplyDecayFloorsToOneDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "high water mark", "Boss Profile", 80, false)
	require.NoError(t, err)
	require.Equal(t, float64(100), rec.Importance)

	// Two runs inside the same day window: each applies at least one day.
	first, err := s.ApplyDecay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DaysElapsed)

	second, err := s.ApplyDecay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.DaysElapsed)

	got, err := s.Get(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.InDelta(t, 100*0.98*0.98, got.Importance, 1e-9)
}

func TestApplyDecaySkipsPinned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pinned, err := s.Add(ctx, "wedding anniversary June 12", "Key Dates & Milestones", 95, true)
	require.NoError(t, err)
	plain, err := s.Add(ctx, "conference in October", "Key Dates & Milestones", 80, false)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.ApplyDecay(ctx)
		require.NoError(t, err)
	}

	gotPinned, err := s.Get(ctx, pinned.ID, false)
	require.NoError(t, err)
	assert.Equal(t, pinned.Importance, gotPinned.Importance, "pinned importance is frozen")

	gotPlain, err := s.Get(ctx, plain.ID, false)
	require.NoError(t, err)
	assert.Less(t, gotPlain.Importance, plain.Importance)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doomed, err := s.Add(ctx, "stale fact", "Notes & Miscellaneous", 80, false)
	require.NoError(t, err)
	survivor, err := s.Add(ctx, "fresh fact", "Notes & Miscellaneous", 80, false)
	require.NoError(t, err)

	_, err = s.Update(ctx, doomed.ID, core.RecordPatch{Importance: ptr(4.0)})
	require.NoError(t, err)

	pruned, err := s.Prune(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	got, err := s.Get(ctx, doomed.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got)

	kept, err := s.Get(ctx, survivor.ID, false)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, survivor.Importance, kept.Importance, "records at or above threshold untouched")
}

func TestPrunedPinnedRecordBelowThreshold(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Pinning exempts from decay, not from the prune floor.
	rec, err := s.Add(ctx, "pinned but faded", "Notes & Miscellaneous", 80, true)
	require.NoError(t, err)
	_, err = s.Update(ctx, rec.ID, core.RecordPatch{Importance: ptr(3.0)})
	require.NoError(t, err)

	pruned, err := s.Prune(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	got, err := s.Get(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestImportanceAlwaysInRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Add(ctx, "stress the rails", "Pending Action Items", 80, false)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := s.Get(ctx, rec.ID, true)
		require.NoError(t, err)
		_, err = s.ApplyDecay(ctx)
		require.NoError(t, err)

		got, err := s.Get(ctx, rec.ID, false)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Importance, 0.0)
		assert.LessOrEqual(t, got.Importance, 100.0)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Add(ctx, "alpha", "Active Projects", 80, false)
	require.NoError(t, err)
	_, err = s.Add(ctx, "beta", "Active Projects", 80, false)
	require.NoError(t, err)
	_, err = s.Get(ctx, a.ID, true)
	require.NoError(t, err)
	_, err = s.Delete(ctx, a.ID)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalMemories)
	assert.Equal(t, int64(1), stats.HotMemories)
	assert.Equal(t, int64(2), stats.Counters[statTotalMemories])
	assert.Equal(t, int64(1), stats.Counters[statTotalAccesses])
	assert.Equal(t, int64(1), stats.Counters[statDeletedRecords])

	require.Len(t, stats.Categories, 20, "every known category is reported")
	assert.Equal(t, int64(1), stats.Categories["Active Projects"])
	assert.Equal(t, int64(0), stats.Categories["Family Members"], "empty categories report zero")
}

func TestHotSetIsBounded(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	backend := sqlite.NewBackend(db)
	t.Cleanup(func() { backend.Close() })
	s := NewStore(backend, Options{HotSetSize: 5})

	for i := 0; i < 8; i++ {
		rec, err := s.Add(ctx, "hot "+strconv.Itoa(i), "Notes & Miscellaneous", 80, false)
		require.NoError(t, err)
		_, err = s.Get(ctx, rec.ID, true)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.HotMemories)
}

// A reader racing writers must never resolve an index entry to a missing
// record: creates write the primary record first, deletes remove it last.
func TestReaderNeverSeesOrphanedIndexEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 15; i++ {
			rec, err := s.Add(ctx, "churn "+strconv.Itoa(i), "Notes & Miscellaneous", 80, false)
			if !assert.NoError(t, err) {
				break
			}
			if i%2 == 0 {
				_, err = s.Delete(ctx, rec.ID)
				assert.NoError(t, err)
			}
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			entries, err := s.backend.IndexRangeAsc(ctx, keyAll, 0, -1)
			if !assert.NoError(t, err) {
				return
			}
			for _, entry := range entries {
				rec, err := s.Get(ctx, entry.ID, false)
				if !assert.NoError(t, err) {
					return
				}
				// The entry may have been deleted between the range read
				// and the record read; what must never happen is the range
				// still naming the id after the primary record vanished.
				if rec == nil {
					if score, ok, _ := s.backend.IndexScore(ctx, keyAll, entry.ID); ok {
						t.Errorf("index still scores %s at %v with no primary record", entry.ID, score)
					}
				}
			}
		}
	}()

	wg.Wait()
}

func TestCloseReleasesBackend(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	s := NewStore(sqlite.NewBackend(db), Options{})
	require.NoError(t, s.Close())

	_, err = s.Get(ctx, "mem_x", false)
	assert.Error(t, err, "reads after close fail")
}
