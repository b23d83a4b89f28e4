package core

import (
	"encoding/json"
	"sort"
)

// Metadata is an immutable, layered key/value store.
//
// Each store holds one layer of entries and an optional parent. Lookups
// that miss the local layer fall back to the parent chain. Keys are
// case-sensitive. The zero value is an empty store ready to use.
//
// Metadata never changes after construction: Set, Merge and WithParent
// return new stores that share the existing layers read-only.
type Metadata struct {
	entries map[string]any
	parent  *Metadata
}

// NewMetadata creates a single-layer store from entries.
// The map is copied, so later changes to entries are not observed.
func NewMetadata(entries map[string]any) Metadata {
	return Metadata{entries: copyEntries(entries)}
}

// Get returns the value stored under key, searching parent layers when the
// key is absent locally. A present key holding nil returns (nil, true).
func (m Metadata) Get(key string) (any, bool) {
	for layer := &m; layer != nil; layer = layer.parent {
		if v, ok := layer.entries[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether key is visible in the store.
func (m Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// String returns the value under key when it is a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set returns a new store where key maps to value, layered over m.
func (m Metadata) Set(key string, value any) Metadata {
	return m.layer(map[string]any{key: value})
}

// Merge returns a new store with every visible entry of other layered over m.
// Entries in other win on key collision.
func (m Metadata) Merge(other Metadata) Metadata {
	return m.layer(other.ToMap())
}

// MergeMap is Merge for a plain map of overrides.
func (m Metadata) MergeMap(entries map[string]any) Metadata {
	return m.layer(copyEntries(entries))
}

// WithParent returns a copy of m whose lookups fall back to parent once
// every layer of m has been searched. Existing parents of m stay in the
// chain ahead of the new one.
func (m Metadata) WithParent(parent Metadata) Metadata {
	layers := m.layers()
	out := parent
	for i := len(layers) - 1; i >= 0; i-- {
		out = out.layer(layers[i])
	}
	return out
}

// Keys returns the sorted set of visible keys.
func (m Metadata) Keys() []string {
	flat := m.ToMap()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of visible keys.
func (m Metadata) Len() int {
	return len(m.ToMap())
}

// ToMap flattens the store into a fresh map. Mutating the result does not
// affect m.
func (m Metadata) ToMap() map[string]any {
	layers := m.layers()
	out := make(map[string]any)
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			out[k] = v
		}
	}
	return out
}

// MarshalJSON encodes the flattened store as a JSON object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

func (m Metadata) layer(entries map[string]any) Metadata {
	if len(entries) == 0 {
		return m
	}
	if m.entries == nil && m.parent == nil {
		return Metadata{entries: entries}
	}
	parent := m
	return Metadata{entries: entries, parent: &parent}
}

// layers returns the entry maps from top to bottom.
func (m Metadata) layers() []map[string]any {
	var out []map[string]any
	for layer := &m; layer != nil; layer = layer.parent {
		if len(layer.entries) > 0 {
			out = append(out, layer.entries)
		}
	}
	return out
}

func copyEntries(entries map[string]any) map[string]any {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]any, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out
}
