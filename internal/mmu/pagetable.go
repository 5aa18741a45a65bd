package mmu

import (
	"egos32/internal/frame"
	"egos32/internal/klog"
	"egos32/internal/platform"
)

// pageTableEntry is one Sv32 leaf slot: a frame id, a valid bit and a
// user (U) bit. R/W/X are not recorded per entry; every valid entry is
// treated as readable, writable and executable. Identity-region entries
// carry frameID -1 since they are not backed by the disk-backed frame
// store (spec.md §4.4, "Invariants").
type pageTableEntry struct {
	valid   bool
	frameID int
	user    bool
}

type leaf struct {
	entries [1024]pageTableEntry
}

type root struct {
	leaves [1024]*leaf
}

// PageTable is the Sv32 two-level translation engine: a per-process
// root page indexed by VPN1, each populated entry pointing at a leaf
// page indexed by VPN0 (spec.md §4.4). Unlike the software TLB it
// never copies page contents on switch — only the active root changes.
type PageTable struct {
	alloc      *frame.Allocator
	roots      map[int]*root
	maxPid     int
	currentPid int
}

// NewPageTable builds a page-table engine over alloc, tracking at most
// maxPid distinct process roots (spec.md §9, unifying the page-table
// engine's process cap with the rest of the core's MAX_NPROCESS).
func NewPageTable(alloc *frame.Allocator) *PageTable {
	return &PageTable{
		alloc:      alloc,
		roots:      make(map[int]*root),
		maxPid:     platform.DefaultMaxTrackedPid,
		currentPid: -1,
	}
}

// SetMaxTrackedPid overrides the process-id bound enforced on root
// creation, so callers can unify it with bootcfg.Config.MaxNProcess.
func (p *PageTable) SetMaxTrackedPid(max int) {
	p.maxPid = max
}

func (p *PageTable) rootFor(pid int) *root {
	if r, ok := p.roots[pid]; ok {
		return r
	}
	if pid < 0 || pid >= p.maxPid {
		klog.Fatalf("mmu: pid %d exceeds the page-table engine's tracked process bound (%d)", pid, p.maxPid)
	}
	r := &root{}
	installIdentityRegion(r)
	p.roots[pid] = r
	return r
}

// installIdentityRegion maps every platform.IdentityRegions range at
// its own physical address with kernel-only permissions, before any
// user mapping exists (spec.md §4.4, "Invariants").
func installIdentityRegion(r *root) {
	for _, region := range platform.IdentityRegions {
		for off := uintptr(0); off < region.Size; off += platform.PageSize {
			pageNo := int((region.Base + off) / platform.PageSize)
			vpn1, vpn0 := splitPageNo(pageNo)
			if r.leaves[vpn1] == nil {
				r.leaves[vpn1] = &leaf{}
			}
			r.leaves[vpn1].entries[vpn0] = pageTableEntry{valid: true, frameID: -1, user: false}
		}
	}
}

func splitPageNo(pageNo int) (vpn1, vpn0 int) {
	return pageNo >> 10, pageNo & 0x3FF
}

func (p *PageTable) Alloc(pid int) (int, []byte) {
	return p.alloc.Alloc()
}

// Map installs frameID at the leaf indexed by pageNo's VPN1/VPN0 with
// user RWX permissions, lazily building pid's identity region first if
// this is its first mapping (spec.md §4.4, "map"). flags is accepted
// for symmetry with mmu.Engine but ignored: the page-table engine
// always installs user RWX for application mappings, per spec.
func (p *PageTable) Map(pid, pageNo, frameID, flags int) {
	r := p.rootFor(pid)
	vpn1, vpn0 := splitPageNo(pageNo)
	if r.leaves[vpn1] == nil {
		r.leaves[vpn1] = &leaf{}
	}
	r.leaves[vpn1].entries[vpn0] = pageTableEntry{valid: true, frameID: frameID, user: true}
	p.alloc.Record(frameID, pid, pageNo, flags)
}

// Switch writes pid's root into the page-table base register (modeled
// here as simply recording the active pid); the outgoing mapping stays
// intact, unlike the software TLB's copy-based switch (spec.md §4.4).
func (p *PageTable) Switch(pid int) {
	p.rootFor(pid) // ensures the identity region exists before activation
	p.currentPid = pid
}

func (p *PageTable) Free(pid int) {
	p.alloc.Free(pid)
	delete(p.roots, pid)
	if p.currentPid == pid {
		p.currentPid = -1
	}
}

func (p *PageTable) lookup(pageNo int) (frameID int, ok bool) {
	r, exists := p.roots[p.currentPid]
	if !exists {
		return 0, false
	}
	vpn1, vpn0 := splitPageNo(pageNo)
	l := r.leaves[vpn1]
	if l == nil || !l.entries[vpn0].valid {
		return 0, false
	}
	return l.entries[vpn0].frameID, true
}

func (p *PageTable) ReadAt(addr uintptr, length int) []byte {
	pageNo := int(addr) / platform.PageSize
	offset := int(addr) % platform.PageSize
	out := make([]byte, length)
	frameID, ok := p.lookup(pageNo)
	if !ok || frameID < 0 {
		return out
	}
	page := p.alloc.Cache().Read(frameID, false)
	copy(out, page[offset:offset+length])
	return out
}

func (p *PageTable) WriteAt(addr uintptr, data []byte) {
	pageNo := int(addr) / platform.PageSize
	offset := int(addr) % platform.PageSize
	frameID, ok := p.lookup(pageNo)
	if !ok || frameID < 0 {
		klog.Fatalf("mmu: write to unmapped page %d in pid %d", pageNo, p.currentPid)
	}
	page := make([]byte, platform.PageSize)
	copy(page, p.alloc.Cache().Read(frameID, false))
	copy(page[offset:], data)
	p.alloc.Cache().Write(frameID, page)
}
