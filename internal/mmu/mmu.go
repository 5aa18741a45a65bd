// Package mmu provides the two interchangeable translation engines
// (spec.md §4.3, §4.4) behind a single capability set, following
// Design Note 9's "two alternative MMU back-ends selected at runtime":
// express as a small capability set {map, switch, free, alloc}, with
// initialization choosing the variant and the rest of the kernel
// staying parametric over Engine.
package mmu

import "egos32/internal/frame"

// Engine is the capability set every translation back-end implements.
// The scheduler and syscall dispatcher depend only on this interface,
// never on SoftTLB or PageTable directly.
type Engine interface {
	// Alloc reserves a fresh physical frame for pid, as frame.Allocator.Alloc.
	Alloc(pid int) (frameID int, mem []byte)
	// Map installs frameID at pageNo in pid's address space with the
	// given permission flags.
	Map(pid, pageNo, frameID, flags int)
	// Switch brings pid's address space into view. A no-op if pid is
	// already the active address space.
	Switch(pid int)
	// Free releases every frame owned by pid and drops any engine-local
	// state about pid.
	Free(pid int)
	// ReadAt copies length bytes out of the currently active address
	// space starting at the virtual address addr, into a fresh slice
	// the caller owns.
	ReadAt(addr uintptr, length int) []byte
	// WriteAt copies data into the currently active address space
	// starting at the virtual address addr.
	WriteAt(addr uintptr, data []byte)
}

// NewEngine builds the Engine requested, over the same allocator and
// cache either way (spec.md §9, "Initialization chooses the variant").
func NewEngine(usePageTable bool, alloc *frame.Allocator) Engine {
	if usePageTable {
		return NewPageTable(alloc)
	}
	return NewSoftTLB(alloc)
}
