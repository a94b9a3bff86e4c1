package logger

import "sync"

// RingBuffer keeps the last N items pushed, safe for concurrent use.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int // slot written by the next Push
	full  bool
}

// NewRingBuffer creates a ring buffer holding up to capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push appends item, evicting the oldest one when the buffer is full.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next++
	if r.next == len(r.items) {
		r.next = 0
		r.full = true
	}
}

// GetAll returns every item, oldest first.
func (r *RingBuffer[T]) GetAll() []T {
	return r.Tail(0, nil)
}

// Tail returns the newest limit items accepted by keep, oldest first.
// A nil keep accepts everything; limit <= 0 means no limit.
func (r *RingBuffer[T]) Tail(limit int, keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}

	// Walk backwards from the newest item, then reverse.
	out := make([]T, 0, limit)
	for i := 1; i <= n && len(out) < limit; i++ {
		item := r.items[(r.next-i+len(r.items))%len(r.items)]
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of buffered items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *RingBuffer[T]) lenLocked() int {
	if r.full {
		return len(r.items)
	}
	return r.next
}

// Clear empties the buffer.
func (r *RingBuffer[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.items)
	r.next = 0
	r.full = false
}
