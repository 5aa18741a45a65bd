package frame

import (
	"testing"

	"egos32/internal/diskio/memdisk"
	"egos32/internal/platform"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	cache := NewRandomCache(platform.NFrames, memdisk.New(platform.FrameStoreBlocks))
	return NewAllocator(cache)
}

func TestAllocReturnsLowestFreeFrameID(t *testing.T) {
	a := newTestAllocator(t)
	id0, _ := a.Alloc()
	if id0 != 0 {
		t.Fatalf("expected first alloc to return frame 0, got %d", id0)
	}
	id1, _ := a.Alloc()
	if id1 != 1 {
		t.Fatalf("expected second alloc to return frame 1, got %d", id1)
	}
}

func TestAllocSkipsFreedNonLowestFrame(t *testing.T) {
	a := newTestAllocator(t)
	a.Alloc() // 0
	a.Alloc() // 1
	a.Alloc() // 2
	a.Record(0, 8, 0, 0)
	a.Record(1, 9, 0, 0)
	a.Record(2, 8, 1, 0)
	a.Free(0) // every frame is now stamped with an owner, so pid 0 owns nothing: a no-op
	a.Free(9)

	id, _ := a.Alloc()
	if id != 1 {
		t.Fatalf("expected the freed frame 1 to be reused first, got %d", id)
	}
}

func TestFreeReclaimsOnlyFramesOwnedByPid(t *testing.T) {
	a := newTestAllocator(t)
	f0, _ := a.Alloc()
	f1, _ := a.Alloc()
	a.Record(f0, 1, 0, 0)
	a.Record(f1, 2, 0, 0)

	a.Free(1)

	_, _, _, inUse0 := a.Lookup(f0)
	_, _, _, inUse1 := a.Lookup(f1)
	if inUse0 {
		t.Fatalf("expected frame owned by freed pid to be released")
	}
	if !inUse1 {
		t.Fatalf("expected frame owned by a different pid to remain in use")
	}
}

func TestOwnedByReturnsAscendingFrameIDs(t *testing.T) {
	a := newTestAllocator(t)
	f0, _ := a.Alloc()
	f1, _ := a.Alloc()
	a.Record(f0, 3, 0, 0)
	a.Record(f1, 3, 1, 0)

	ids := a.OwnedBy(3)
	if len(ids) != 2 || ids[0] != f0 || ids[1] != f1 {
		t.Fatalf("unexpected owned ids: %v", ids)
	}
}
