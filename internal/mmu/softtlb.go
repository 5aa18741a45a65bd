package mmu

import (
	"egos32/internal/frame"
	"egos32/internal/platform"
)

// SoftTLB simulates a TLB by copying a process's pages into and out of
// a single shared user-virtual window on every context switch, rather
// than installing hardware page tables (spec.md §4.3). The window is
// keyed by page number rather than laid out as one flat address range,
// since a process's mapped pages (syscall slot, app args, stack, code)
// sit at widely separated virtual addresses.
type SoftTLB struct {
	alloc      *frame.Allocator
	window     map[int][]byte // pageNo -> PageSize bytes, valid while currentPid owns it
	currentPid int
}

// NewSoftTLB builds a software-TLB engine over alloc.
func NewSoftTLB(alloc *frame.Allocator) *SoftTLB {
	return &SoftTLB{
		alloc:      alloc,
		window:     make(map[int][]byte),
		currentPid: -1,
	}
}

func (s *SoftTLB) Alloc(pid int) (int, []byte) {
	return s.alloc.Alloc()
}

// Map stamps frameID's mapping record; the caller must have allocated
// frameID already (spec.md §4.3, "map").
func (s *SoftTLB) Map(pid, pageNo, frameID, flags int) {
	s.alloc.Record(frameID, pid, pageNo, flags)
}

// Switch is a no-op if pid is already resident; otherwise it writes
// the outgoing process's pages back to the cache and copies the
// incoming process's pages into the window (spec.md §4.3, "switch").
func (s *SoftTLB) Switch(pid int) {
	if pid == s.currentPid {
		return
	}
	if s.currentPid >= 0 {
		for _, f := range s.alloc.OwnedBy(s.currentPid) {
			_, pageNo, _, _ := s.alloc.Lookup(f)
			s.alloc.Cache().Write(f, s.window[pageNo])
			delete(s.window, pageNo)
		}
	}
	for _, f := range s.alloc.OwnedBy(pid) {
		_, pageNo, _, _ := s.alloc.Lookup(f)
		page := make([]byte, platform.PageSize)
		copy(page, s.alloc.Cache().Read(f, false))
		s.window[pageNo] = page
	}
	s.currentPid = pid
}

// Free releases pid's frames; if pid was the resident address space,
// the window no longer corresponds to any pid until the next Switch.
func (s *SoftTLB) Free(pid int) {
	s.alloc.Free(pid)
	if s.currentPid == pid {
		s.currentPid = -1
		s.window = make(map[int][]byte)
	}
}

func (s *SoftTLB) pageOf(addr uintptr) (pageNo, offset int) {
	return int(addr) / platform.PageSize, int(addr) % platform.PageSize
}

// ReadAt copies length bytes out of the currently resident process's
// window. The caller must have already Switch-ed to that process.
func (s *SoftTLB) ReadAt(addr uintptr, length int) []byte {
	pageNo, offset := s.pageOf(addr)
	page, ok := s.window[pageNo]
	out := make([]byte, length)
	if !ok {
		return out
	}
	copy(out, page[offset:offset+length])
	return out
}

// WriteAt copies data into the currently resident process's window,
// allocating the backing page slot on first touch.
func (s *SoftTLB) WriteAt(addr uintptr, data []byte) {
	pageNo, offset := s.pageOf(addr)
	page, ok := s.window[pageNo]
	if !ok {
		page = make([]byte, platform.PageSize)
		s.window[pageNo] = page
	}
	copy(page[offset:], data)
}
