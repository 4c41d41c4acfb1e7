package lpp

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps type identifiers to descriptors. The standard table is
// shared; custom entries are per instance and guarded for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	custom map[uint8]TypeDescriptor
}

// NewRegistry returns a registry seeded with the standard types.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[uint8]TypeDescriptor)}
}

// Lookup returns the descriptor registered for id.
func (r *Registry) Lookup(id uint8) (TypeDescriptor, bool) {
	if d, ok := standardTypes[id]; ok {
		return d, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.custom[id]
	return d, ok
}

// Register adds a custom type decoded as raw bytes. An id that is already
// known is left untouched and no error is returned.
func (r *Registry) Register(id uint8, name string, size int) error {
	if size < 1 {
		return fmt.Errorf("%w (type 0x%02X, size %d)", ErrInvalidTypeSize, id, size)
	}
	if name == "" {
		return fmt.Errorf("%w (type 0x%02X)", ErrInvalidTypeName, id)
	}
	if _, ok := standardTypes[id]; ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[id]; ok {
		return nil
	}
	r.custom[id] = TypeDescriptor{ID: id, Name: name, Size: size, Decode: decodeRaw}
	return nil
}

// Types lists every known descriptor ordered by id.
func (r *Registry) Types() []TypeDescriptor {
	out := StandardTypes()
	r.mu.RLock()
	for _, d := range r.custom {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
