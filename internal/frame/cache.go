// Package frame implements the 256-frame paging device (spec.md §4.1)
// and the physical-frame allocator built on top of it (spec.md §4.2).
//
// Only a subset of the 256 addressable frames reside in fast memory at
// once; the rest live on a diskio.Device. Grounded on the teaching
// kernel's earth/dev_page.c, which keeps the writeback-aware random
// policy as its last actively-compiled version with LRU and LFRU kept
// alongside as commented-out alternatives (spec.md §9 Open Question).
package frame

import (
	"bytes"
	"math/rand"

	"egos32/internal/diskio"
	"egos32/internal/frameidlist"
	"egos32/internal/klog"
	"egos32/internal/platform"
)

// Cache is the paging device contract: a fixed number of fast-memory
// slots standing in for a 256-frame address space backed by disk.
type Cache interface {
	// Init marks every slot empty and every dirty bit clear.
	Init()
	// Invalidate evicts frameID without writing back, idempotently.
	Invalidate(frameID int)
	// Write stages src (exactly platform.PageSize bytes) into the slot
	// holding frameID, installing it with eviction if necessary, and
	// marks the slot dirty unless src is already resident unchanged.
	Write(frameID int, src []byte)
	// Read returns the fast-memory bytes for frameID, installing it
	// with eviction if necessary. When allocOnly is false and the
	// frame was not already resident, its contents are loaded from
	// disk first; when allocOnly is true, a freshly installed slot's
	// contents are left undefined.
	Read(frameID int, allocOnly bool) []byte
}

type slot struct {
	frameID int // -1 when empty
	dirty   bool
	data    [platform.PageSize]byte
}

func (s *slot) empty() bool { return s.frameID < 0 }

func writeBack(disk diskio.Device, s *slot) {
	if !s.dirty {
		return
	}
	block := diskio.FrameBlock(s.frameID)
	if err := disk.WriteBlocks(block, platform.BlocksPerPage, s.data[:]); err != nil {
		klog.Fatalf("frame: writeback of frame %d failed: %v", s.frameID, err)
	}
	s.dirty = false
}

func loadFromDisk(disk diskio.Device, s *slot) {
	block := diskio.FrameBlock(s.frameID)
	if err := disk.ReadBlocks(block, platform.BlocksPerPage, s.data[:]); err != nil {
		klog.Fatalf("frame: read of frame %d failed: %v", s.frameID, err)
	}
}

// RandomCache is the writeback-aware random eviction policy mandated by
// spec.md §4.1: on a miss with no empty slot, a resident slot is chosen
// uniformly at random and, if dirty, written back before reuse.
type RandomCache struct {
	slots []slot
	disk  diskio.Device
	rng   *rand.Rand
}

// NewRandomCache allocates a RandomCache with room for nslots resident
// frames, backed by disk.
func NewRandomCache(nslots int, disk diskio.Device) *RandomCache {
	c := &RandomCache{
		slots: make([]slot, nslots),
		disk:  disk,
		rng:   rand.New(rand.NewSource(1)),
	}
	c.Init()
	return c
}

func (c *RandomCache) Init() {
	for i := range c.slots {
		c.slots[i] = slot{frameID: -1}
	}
}

func (c *RandomCache) find(frameID int) int {
	for i := range c.slots {
		if c.slots[i].frameID == frameID {
			return i
		}
	}
	return -1
}

// install returns the index of a slot ready to hold frameID, evicting a
// resident slot at random if every slot is already in use.
func (c *RandomCache) install(frameID int) int {
	for i := range c.slots {
		if c.slots[i].empty() {
			c.slots[i].frameID = frameID
			return i
		}
	}
	idx := c.rng.Intn(len(c.slots))
	writeBack(c.disk, &c.slots[idx])
	c.slots[idx] = slot{frameID: frameID}
	return idx
}

func (c *RandomCache) Invalidate(frameID int) {
	if idx := c.find(frameID); idx >= 0 {
		c.slots[idx] = slot{frameID: -1}
	}
}

func (c *RandomCache) Write(frameID int, src []byte) {
	idx := c.find(frameID)
	if idx < 0 {
		idx = c.install(frameID)
	} else if bytes.Equal(c.slots[idx].data[:], src) {
		return
	}
	copy(c.slots[idx].data[:], src)
	c.slots[idx].dirty = true
}

func (c *RandomCache) Read(frameID int, allocOnly bool) []byte {
	idx := c.find(frameID)
	if idx < 0 {
		idx = c.install(frameID)
		if !allocOnly {
			loadFromDisk(c.disk, &c.slots[idx])
		}
	}
	return c.slots[idx].data[:]
}

// LRUCache is the least-recently-used alternative policy sanctioned by
// spec.md §9: a sanctioned substitute for RandomCache provided it
// preserves §4.1's invariants, which it does by construction here.
type LRUCache struct {
	slots   []slot
	disk    diskio.Device
	list    frameidlist.List
	nodes   map[int]*frameidlist.Node // frameID -> recency node
	slotIdx map[int]int               // frameID -> slot index
}

// NewLRUCache allocates an LRUCache with room for nslots resident
// frames, backed by disk.
func NewLRUCache(nslots int, disk diskio.Device) *LRUCache {
	c := &LRUCache{
		slots: make([]slot, nslots),
		disk:  disk,
	}
	c.Init()
	return c
}

func (c *LRUCache) Init() {
	for i := range c.slots {
		c.slots[i] = slot{frameID: -1}
	}
	c.list = frameidlist.List{}
	c.nodes = make(map[int]*frameidlist.Node)
	c.slotIdx = make(map[int]int)
}

func (c *LRUCache) touch(frameID int) {
	if n, ok := c.nodes[frameID]; ok {
		c.list.MoveToFront(n)
		return
	}
	c.nodes[frameID] = c.list.PushFront(frameID)
}

func (c *LRUCache) forget(frameID int) {
	if n, ok := c.nodes[frameID]; ok {
		c.list.Remove(n)
		delete(c.nodes, frameID)
	}
	delete(c.slotIdx, frameID)
}

// install returns the index of a slot ready to hold frameID, evicting
// the least-recently-used resident slot if every slot is already in use.
func (c *LRUCache) install(frameID int) int {
	for i := range c.slots {
		if c.slots[i].empty() {
			c.slots[i].frameID = frameID
			c.slotIdx[frameID] = i
			c.touch(frameID)
			return i
		}
	}
	victim := c.list.Last()
	if victim == nil {
		klog.Fatalf("frame: LRU cache has no resident slots to evict")
	}
	victimID := victim.Value()
	idx := c.slotIdx[victimID]
	writeBack(c.disk, &c.slots[idx])
	c.forget(victimID)
	c.slots[idx] = slot{frameID: frameID}
	c.slotIdx[frameID] = idx
	c.touch(frameID)
	return idx
}

func (c *LRUCache) find(frameID int) int {
	idx, ok := c.slotIdx[frameID]
	if !ok {
		return -1
	}
	return idx
}

func (c *LRUCache) Invalidate(frameID int) {
	idx := c.find(frameID)
	if idx < 0 {
		return
	}
	c.slots[idx] = slot{frameID: -1}
	c.forget(frameID)
}

func (c *LRUCache) Write(frameID int, src []byte) {
	idx := c.find(frameID)
	if idx < 0 {
		idx = c.install(frameID)
	} else {
		c.touch(frameID)
		if bytes.Equal(c.slots[idx].data[:], src) {
			return
		}
	}
	copy(c.slots[idx].data[:], src)
	c.slots[idx].dirty = true
}

func (c *LRUCache) Read(frameID int, allocOnly bool) []byte {
	idx := c.find(frameID)
	if idx < 0 {
		idx = c.install(frameID)
		if !allocOnly {
			loadFromDisk(c.disk, &c.slots[idx])
		}
	} else {
		c.touch(frameID)
	}
	return c.slots[idx].data[:]
}
