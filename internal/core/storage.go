package core

import "context"

// ScoredID is one entry of a scored index.
type ScoredID struct {
	ID    string
	Score float64
}

// Backend is the durable primitive set the store runs on: keyed field maps,
// scored indexes, membership sets, and scalars. Implementable over any
// key-value + sorted-set + set service.
//
// Each method call maps to a single atomic structure update at the backend.
// The store layers its multi-structure write-ordering contract on top of
// these calls; the backend itself never spans structures.
type Backend interface {
	// Keyed field maps (one map per record, plus the stats map).
	// GetFields returns an empty map for an absent key, not an error.
	// IncrFieldBy must be atomic at the backend, not read-then-write.
	PutFields(ctx context.Context, key string, fields map[string]string) error
	GetFields(ctx context.Context, key string) (map[string]string, error)
	IncrFieldBy(ctx context.Context, key, field string, delta int64) error
	DeleteFields(ctx context.Context, key string) error

	// Scored indexes. Ranges are rank-based; count < 0 means "to the end".
	// Trim drops the lowest-scored entries so at most keep remain.
	IndexPut(ctx context.Context, index, id string, score float64) error
	IndexScore(ctx context.Context, index, id string) (float64, bool, error)
	IndexRangeAsc(ctx context.Context, index string, offset, count int64) ([]ScoredID, error)
	IndexRangeDesc(ctx context.Context, index string, offset, count int64) ([]ScoredID, error)
	IndexRemove(ctx context.Context, index, id string) error
	IndexCard(ctx context.Context, index string) (int64, error)
	IndexTrim(ctx context.Context, index string, keep int64) error

	// Membership sets (category projections).
	SetAdd(ctx context.Context, set, id string) error
	SetRemove(ctx context.Context, set, id string) error
	SetMembers(ctx context.Context, set string) ([]string, error)
	SetCard(ctx context.Context, set string) (int64, error)

	// Durable scalars (last-decay timestamp).
	GetValue(ctx context.Context, key string) (string, bool, error)
	PutValue(ctx context.Context, key, value string) error

	Close() error
}
