package memory

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sandevgo/recall/internal/core"
)

// newRecordID returns an opaque time+random composite id.
func newRecordID() string {
	return "mem_" + ulid.Make().String()
}

// newRecord builds a fresh record. The stored category is normalized, while
// base importance and decay rate are looked up by the caller-supplied name,
// with generic fallbacks when it is not an exact taxonomy member. Callers
// never set importance directly.
func newRecord(content, category string, confidence float64, pinned bool) *core.MemoryRecord {
	now := time.Now().UnixMilli()
	return &core.MemoryRecord{
		ID:             newRecordID(),
		Content:        content,
		Category:       Normalize(category),
		Importance:     DefaultImportance(category),
		Confidence:     clamp(confidence, 0, 100),
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		DecayRate:      DefaultDecayRate(category),
		RelatedIDs:     []string{},
		Pinned:         pinned,
	}
}

// validateRecord returns the list of violated constraints, empty when the
// record is persistable.
func validateRecord(rec *core.MemoryRecord) []string {
	var violations []string

	if rec.ID == "" {
		violations = append(violations, "invalid or missing id")
	}
	if rec.Content == "" {
		violations = append(violations, "invalid or missing content")
	}
	if !IsKnownCategory(rec.Category) {
		violations = append(violations, "invalid category")
	}
	if rec.Importance < 0 || rec.Importance > 100 {
		violations = append(violations, "invalid importance (must be 0-100)")
	}
	if rec.Confidence < 0 || rec.Confidence > 100 {
		violations = append(violations, "invalid confidence (must be 0-100)")
	}

	return violations
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
