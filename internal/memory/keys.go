package memory

import (
	"encoding/json"
	"strconv"

	"github.com/sandevgo/recall/internal/core"
)

// Backend key layout. One field map per record, one membership set per
// category, two scored indexes (global importance, boost recency), a stats
// field map, and a last-decay scalar.
const (
	keyAll       = "recall:all"        // scored index: importance -> id
	keyAccessed  = "recall:accessed"   // scored index: boost timestamp -> id (hot set)
	keyStats     = "recall:stats"      // field map: aggregate counters
	keyLastDecay = "recall:last_decay" // scalar: epoch ms of last decay run
)

// Stats counter fields.
const (
	statTotalMemories  = "total_memories"
	statTotalAccesses  = "total_accesses"
	statDeletedRecords = "deleted_memories"
	statPrunedRecords  = "pruned_memories"
	statLastDecay      = "last_decay"
	statCategoryPrefix = "category_"
)

func entryKey(id string) string {
	return "recall:mem:" + id
}

func categoryKey(category string) string {
	return "recall:cat:" + category
}

// encodeRecord flattens a record into backend field-map form.
func encodeRecord(rec *core.MemoryRecord) map[string]string {
	related, _ := json.Marshal(rec.RelatedIDs)
	return map[string]string{
		"id":            rec.ID,
		"content":       rec.Content,
		"category":      rec.Category,
		"importance":    strconv.FormatFloat(rec.Importance, 'f', -1, 64),
		"confidence":    strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
		"created_at":    strconv.FormatInt(rec.CreatedAt, 10),
		"last_accessed": strconv.FormatInt(rec.LastAccessedAt, 10),
		"access_count":  strconv.FormatInt(rec.AccessCount, 10),
		"decay_rate":    strconv.FormatFloat(rec.DecayRate, 'f', -1, 64),
		"related_ids":   string(related),
		"pinned":        strconv.FormatBool(rec.Pinned),
	}
}

// decodeRecord rebuilds a record from backend field-map form. Numeric fields
// written by older layouts or by atomic increments parse leniently: a bad
// field decodes to its zero value rather than failing the read.
func decodeRecord(fields map[string]string) *core.MemoryRecord {
	rec := &core.MemoryRecord{
		ID:         fields["id"],
		Content:    fields["content"],
		Category:   fields["category"],
		RelatedIDs: []string{},
	}
	rec.Importance, _ = strconv.ParseFloat(fields["importance"], 64)
	rec.Confidence, _ = strconv.ParseFloat(fields["confidence"], 64)
	rec.CreatedAt, _ = strconv.ParseInt(fields["created_at"], 10, 64)
	rec.LastAccessedAt, _ = strconv.ParseInt(fields["last_accessed"], 10, 64)
	rec.AccessCount, _ = strconv.ParseInt(fields["access_count"], 10, 64)
	rec.DecayRate, _ = strconv.ParseFloat(fields["decay_rate"], 64)
	rec.Pinned = fields["pinned"] == "true"

	if raw := fields["related_ids"]; raw != "" {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err == nil && ids != nil {
			rec.RelatedIDs = ids
		}
	}

	return rec
}
