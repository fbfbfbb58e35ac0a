package core

const (
	RecallName          = "Recall"
	RecallRepositoryURL = "https://github.com/sandevgo/recall"
	RecallVersion       = "0.1.0"
)

// MemoryRecord is the unit of storage. Timestamps are epoch milliseconds.
type MemoryRecord struct {
	ID             string   `json:"id"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	Importance     float64  `json:"importance"`
	Confidence     float64  `json:"confidence"`
	CreatedAt      int64    `json:"created_at"`
	LastAccessedAt int64    `json:"last_accessed"`
	AccessCount    int64    `json:"access_count"`
	DecayRate      float64  `json:"decay_rate"`
	RelatedIDs     []string `json:"related_ids"`
	Pinned         bool     `json:"pinned"`
}

// RecordPatch carries partial field replacements for an update. Nil pointers
// leave the existing value untouched; RelatedIDs replaces the whole set when
// non-nil.
type RecordPatch struct {
	Content    *string
	Category   *string
	Importance *float64
	Confidence *float64
	Pinned     *bool
	RelatedIDs []string
}

// SearchResult pairs a record with its match relevance: 1.0 for a content
// match, 0.5 for a category-name match.
type SearchResult struct {
	MemoryRecord
	Relevance float64 `json:"relevance"`
}

type DecayResult struct {
	Decayed     int `json:"decayed"`
	DaysElapsed int `json:"days_elapsed"`
}

// MemoryStats is the aggregate view over the whole store. Categories always
// contains every known category, with zero for empty ones.
type MemoryStats struct {
	TotalMemories int64            `json:"total_memories"`
	HotMemories   int64            `json:"hot_memories"`
	LastDecay     int64            `json:"last_decay"`
	Counters      map[string]int64 `json:"counters"`
	Categories    map[string]int64 `json:"categories"`
}
