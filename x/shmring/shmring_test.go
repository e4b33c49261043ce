package shmring

import (
	"testing"
)

func TestOrderAcrossWrapWithPartialProgress(t *testing.T) {
	r := New(64)

	// Produce a known sequence [0..N)
	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	// Interleave small writes and reads, forcing frequent wraps and partial
	// first-span progress.
	p := src
	dst := make([]byte, N)
	off := 0

	for off < N {
		if len(p) > 0 {
			step := 7
			if step > len(p) {
				step = len(p)
			}
			w := r.TryWriteFrom(p[:step])
			p = p[w:]
		}

		var tmp [17]byte
		n := r.TryReadInto(tmp[:])
		if n > 0 {
			copy(dst[off:], tmp[:n])
			off += n
		}
	}

	for i := 0; i < N; i++ {
		if dst[i] != src[i] {
			t.Fatalf("mismatch at %d: got=%d want=%d", i, dst[i], src[i])
		}
	}
}

func TestReadableEdgeCoalesced(t *testing.T) {
	r := New(8)
	select {
	case <-r.Readable():
		t.Fatal("unexpected Readable on empty ring")
	default:
	}
	if n := r.TryWriteFrom([]byte{1, 2, 3}); n != 3 {
		t.Fatalf("write 3 -> %d", n)
	}
	select {
	case <-r.Readable(): // should fire once
	default:
		t.Fatal("expected Readable")
	}
	select {
	case <-r.Readable(): // coalesced; no second token yet
		t.Fatal("unexpected extra Readable")
	default:
	}
}

func TestWritableEdgeAfterFull(t *testing.T) {
	r := New(4)
	if n := r.TryWriteFrom([]byte{1, 2, 3, 4}); n != 4 {
		t.Fatalf("fill: %d", n)
	}
	if n := r.TryWriteFrom([]byte{5}); n != 0 {
		t.Fatalf("write to full ring accepted %d bytes", n)
	}
	r.TryReadInto(make([]byte, 2))
	select {
	case <-r.Writable():
	default:
		t.Fatal("expected Writable after draining a full ring")
	}
}

func TestSpaceAvailable(t *testing.T) {
	r := New(16)
	if r.Space() != 16 || r.Available() != 0 {
		t.Fatalf("fresh ring: space=%d avail=%d", r.Space(), r.Available())
	}
	r.TryWriteFrom(make([]byte, 5))
	if r.Space() != 11 || r.Available() != 5 {
		t.Fatalf("after write: space=%d avail=%d", r.Space(), r.Available())
	}
}
