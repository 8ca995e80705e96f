package cache

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Stats is the snapshot spec.md §4.3's stats() contract returns: hits,
// misses, evictions, and the current entry count.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// Stats returns a point-in-time snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
	}
}

// MarshalProto encodes s as a protobuf-wire-format structpb.Struct, for
// observability sinks that consume protobuf rather than JSON (e.g. a
// metrics sidecar fed over a binary pipe). There is no generated
// CacheStats message in this module, so structpb — the protobuf
// library's own type for ad-hoc, schema-less payloads — carries the
// counters instead of hand-rolling one.
func (s Stats) MarshalProto() ([]byte, error) {
	st, err := structpb.NewStruct(map[string]any{
		"hits":      float64(s.Hits),
		"misses":    float64(s.Misses),
		"evictions": float64(s.Evictions),
		"size":      float64(s.Size),
	})
	if err != nil {
		return nil, err
	}

	return proto.Marshal(st)
}
