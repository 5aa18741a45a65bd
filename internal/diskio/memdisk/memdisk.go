// Package memdisk is an in-memory diskio.Device, standing in for real SD
// or disk-image hardware the way the teaching kernel's QEMU/semihosting
// path stands in for the Arty board: the frame, mmu, proc, ipc and trap
// tests run against it, no real block device required.
package memdisk

import (
	"fmt"

	"egos32/internal/platform"
)

// Disk is a fixed-size in-memory block store.
type Disk struct {
	blocks []byte
	// FailAfter, when non-negative, makes the Nth subsequent I/O
	// operation return an error instead of succeeding — used to exercise
	// the core's "disk I/O failures are fatal" contract (spec.md §4.1).
	FailAfter int
	opCount   int
}

// New allocates a Disk with room for nblocks blocks, zero-filled.
func New(nblocks int) *Disk {
	return &Disk{
		blocks:    make([]byte, nblocks*platform.BlockSize),
		FailAfter: -1,
	}
}

func (d *Disk) checkFailure() error {
	if d.FailAfter < 0 {
		return nil
	}
	if d.opCount == d.FailAfter {
		d.opCount++
		return fmt.Errorf("memdisk: simulated I/O failure")
	}
	d.opCount++
	return nil
}

func (d *Disk) ReadBlocks(blockNo, nblocks int, dst []byte) error {
	if err := d.checkFailure(); err != nil {
		return err
	}
	start := blockNo * platform.BlockSize
	end := start + nblocks*platform.BlockSize
	if start < 0 || end > len(d.blocks) {
		return fmt.Errorf("memdisk: read [%d,%d) out of range (size %d)", start, end, len(d.blocks))
	}
	if len(dst) < nblocks*platform.BlockSize {
		return fmt.Errorf("memdisk: dst too small for %d blocks", nblocks)
	}
	copy(dst, d.blocks[start:end])
	return nil
}

func (d *Disk) WriteBlocks(blockNo, nblocks int, src []byte) error {
	if err := d.checkFailure(); err != nil {
		return err
	}
	start := blockNo * platform.BlockSize
	end := start + nblocks*platform.BlockSize
	if start < 0 || end > len(d.blocks) {
		return fmt.Errorf("memdisk: write [%d,%d) out of range (size %d)", start, end, len(d.blocks))
	}
	if len(src) < nblocks*platform.BlockSize {
		return fmt.Errorf("memdisk: src too small for %d blocks", nblocks)
	}
	copy(d.blocks[start:end], src)
	return nil
}
