package frame

import (
	"egos32/internal/bootcfg"
	"egos32/internal/diskio"
	"egos32/internal/klog"
	"egos32/internal/platform"
)

// NewCache builds the Cache implementation named by cfg.Eviction,
// sized to cfg.CachedFrames resident slots.
func NewCache(cfg bootcfg.Config, disk diskio.Device) Cache {
	switch cfg.Eviction {
	case bootcfg.LRU:
		return NewLRUCache(cfg.CachedFrames, disk)
	default:
		return NewRandomCache(cfg.CachedFrames, disk)
	}
}

// mapping is one entry of the allocator's frame table (spec.md §4.2).
type mapping struct {
	inUse  bool
	pid    int
	pageNo int
	flags  int
}

// Allocator hands out the platform.NFrames physical frames backed by
// the paging device, first-fit lowest-index, and reclaims them on
// process exit.
type Allocator struct {
	cache    Cache
	mappings []mapping
}

// NewAllocator builds an Allocator over cache, tracking
// platform.NFrames frames.
func NewAllocator(cache Cache) *Allocator {
	return &Allocator{
		cache:    cache,
		mappings: make([]mapping, platform.NFrames),
	}
}

// Cache returns the paging device backing this allocator, for
// translation engines that need to stage bytes directly (spec.md §4.3,
// §4.4).
func (a *Allocator) Cache() Cache {
	return a.cache
}

// Alloc reserves the lowest-indexed free frame, pulls it into the
// cache in alloc-only mode (spec.md §4.2), and returns its id and
// fast-memory contents. Fails fatally when no frame is free.
func (a *Allocator) Alloc() (frameID int, mem []byte) {
	for i := range a.mappings {
		if !a.mappings[i].inUse {
			a.mappings[i].inUse = true
			mem := a.cache.Read(i, true)
			return i, mem
		}
	}
	klog.Fatalf("frame: no free frames remain")
	panic("unreachable")
}

// Record stamps frameID's mapping entry with pid, pageNo and flags, for
// bookkeeping by the translation engines (spec.md §4.3/§4.4 map).
func (a *Allocator) Record(frameID, pid, pageNo, flags int) {
	a.mappings[frameID].pid = pid
	a.mappings[frameID].pageNo = pageNo
	a.mappings[frameID].flags = flags
}

// Lookup returns the pid, pageNo and flags stamped on frameID, and
// whether the frame is currently in use.
func (a *Allocator) Lookup(frameID int) (pid, pageNo, flags int, inUse bool) {
	m := a.mappings[frameID]
	return m.pid, m.pageNo, m.flags, m.inUse
}

// FindByPidPage returns the frame id mapped to pid at pageNo, if any.
// Used by translation engines that address frames by (pid, pageNo)
// rather than by copying into a shared window.
func (a *Allocator) FindByPidPage(pid, pageNo int) (frameID int, ok bool) {
	for i := range a.mappings {
		if a.mappings[i].inUse && a.mappings[i].pid == pid && a.mappings[i].pageNo == pageNo {
			return i, true
		}
	}
	return 0, false
}

// OwnedBy returns every frame id currently mapped to pid, in ascending
// order. Used by the translation engines to drive their switch-copy
// loops (spec.md §4.3) and by Free.
func (a *Allocator) OwnedBy(pid int) []int {
	var ids []int
	for i := range a.mappings {
		if a.mappings[i].inUse && a.mappings[i].pid == pid {
			ids = append(ids, i)
		}
	}
	return ids
}

// Free invalidates and releases every frame owned by pid.
func (a *Allocator) Free(pid int) {
	for _, id := range a.OwnedBy(pid) {
		a.cache.Invalidate(id)
		a.mappings[id] = mapping{}
	}
}
