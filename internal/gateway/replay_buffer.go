package gateway

import "sync"

// ReplayBuffer keeps the most recent envelopes for one channel so a client
// that detects a channel_seq gap can backfill the missed range.
//
// Channel sequences are assigned contiguously by the broadcaster, so the
// buffer is a sliding window [firstSeq, firstSeq+len): frame i carries
// sequence firstSeq+i. A non-contiguous push (hub restart, counter reset)
// restarts the window.
type ReplayBuffer struct {
	mu       sync.RWMutex
	frames   [][]byte
	firstSeq int64
	capacity int
}

// NewReplayBuffer creates a buffer retaining up to capacity envelopes.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &ReplayBuffer{capacity: capacity}
}

// Push records the envelope for seq, evicting the oldest frame once the
// window is full. The frame is copied; the caller may reuse its slice.
func (rb *ReplayBuffer) Push(seq int64, frame []byte) {
	cp := append([]byte(nil), frame...)

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.frames) == 0 || seq != rb.firstSeq+int64(len(rb.frames)) {
		rb.frames = rb.frames[:0]
		rb.firstSeq = seq
	}
	rb.frames = append(rb.frames, cp)

	if n := len(rb.frames) - rb.capacity; n > 0 {
		rb.frames = rb.frames[n:]
		rb.firstSeq += int64(n)
	}
	// Re-slicing pins the old backing array; compact once it has grown to
	// twice the window.
	if cap(rb.frames) > 2*rb.capacity {
		rb.frames = append(make([][]byte, 0, rb.capacity), rb.frames...)
	}
}

// Range returns the buffered envelopes with seq in [fromSeq, toSeq], oldest
// first. Sequences that have already been evicted are silently absent.
func (rb *ReplayBuffer) Range(fromSeq, toSeq int64) [][]byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if len(rb.frames) == 0 {
		return nil
	}
	lastSeq := rb.firstSeq + int64(len(rb.frames)) - 1
	if fromSeq < rb.firstSeq {
		fromSeq = rb.firstSeq
	}
	if toSeq > lastSeq {
		toSeq = lastSeq
	}
	if fromSeq > toSeq {
		return nil
	}

	out := make([][]byte, 0, toSeq-fromSeq+1)
	for seq := fromSeq; seq <= toSeq; seq++ {
		out = append(out, rb.frames[seq-rb.firstSeq])
	}
	return out
}

// Len returns the number of buffered envelopes.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.frames)
}
