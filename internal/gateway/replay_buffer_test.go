package gateway

import (
	"strconv"
	"testing"
)

func fillBuffer(rb *ReplayBuffer, from, to int64) {
	for seq := from; seq <= to; seq++ {
		rb.Push(seq, []byte("env-"+strconv.FormatInt(seq, 10)))
	}
}

func TestReplayBuffer_RangeReturnsRequestedWindow(t *testing.T) {
	rb := NewReplayBuffer(100)
	fillBuffer(rb, 1, 10)

	got := rb.Range(3, 7)
	if len(got) != 5 {
		t.Fatalf("Range(3,7) returned %d frames, want 5", len(got))
	}
	for i, frame := range got {
		want := "env-" + strconv.FormatInt(int64(i)+3, 10)
		if string(frame) != want {
			t.Errorf("frame[%d] = %q, want %q", i, frame, want)
		}
	}
}

func TestReplayBuffer_EvictsOldestWhenFull(t *testing.T) {
	rb := NewReplayBuffer(5)
	fillBuffer(rb, 1, 8)

	if rb.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rb.Len())
	}

	// Sequences 1-3 are gone; the range clamps to what survived.
	got := rb.Range(1, 10)
	if len(got) != 5 {
		t.Fatalf("Range(1,10) returned %d frames, want 5", len(got))
	}
	if string(got[0]) != "env-4" || string(got[4]) != "env-8" {
		t.Errorf("window is [%s..%s], want [env-4..env-8]", got[0], got[4])
	}
}

func TestReplayBuffer_NonContiguousPushRestartsWindow(t *testing.T) {
	rb := NewReplayBuffer(10)
	fillBuffer(rb, 1, 4)
	fillBuffer(rb, 100, 102) // sequence jump

	if got := rb.Range(1, 4); len(got) != 0 {
		t.Errorf("pre-jump frames should be dropped, got %d", len(got))
	}
	got := rb.Range(100, 102)
	if len(got) != 3 {
		t.Fatalf("Range(100,102) returned %d frames, want 3", len(got))
	}
}

func TestReplayBuffer_EmptyAndOutOfWindow(t *testing.T) {
	rb := NewReplayBuffer(10)
	if got := rb.Range(1, 100); len(got) != 0 {
		t.Fatalf("empty buffer Range returned %d frames", len(got))
	}
	fillBuffer(rb, 5, 9)
	if got := rb.Range(20, 30); len(got) != 0 {
		t.Fatalf("out-of-window Range returned %d frames", len(got))
	}
}
