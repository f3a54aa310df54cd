package index

import "sync/atomic"

// Handle holds the current Index and allows atomically swapping in a rebuilt
// one. Searches load a snapshot once and keep using it for their whole
// duration, so a concurrent swap never affects an in-flight query.
type Handle struct {
	ptr atomic.Pointer[Index]
}

// NewHandle creates a Handle pointing at the given Index.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	h.ptr.Store(idx)
	return h
}

// Load returns the current Index snapshot.
func (h *Handle) Load() *Index {
	return h.ptr.Load()
}

// Swap replaces the current Index. Future searches see the new Index;
// in-flight searches keep the snapshot they started with.
func (h *Handle) Swap(idx *Index) {
	h.ptr.Store(idx)
}
