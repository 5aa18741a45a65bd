// Package filedisk is a diskio.Device backed by a regular OS file, the
// host-side stand-in for the Arty board's microSD card (spec.md §6,
// "Persistent state"). Grounded on the retrieval pack's memory
// simulator, which backs its swap area with os.OpenFile plus
// file.WriteAt/file.Seek rather than an in-memory slice.
package filedisk

import (
	"fmt"
	"os"

	"egos32/internal/platform"
)

// Disk is a block device backed by path, grown to at least nblocks
// blocks on open.
type Disk struct {
	file *os.File
}

// Open opens (creating if needed) the disk image at path and ensures
// it is at least nblocks blocks long.
func Open(path string, nblocks int) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("filedisk: open %s: %w", path, err)
	}
	size := int64(nblocks) * platform.BlockSize
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filedisk: stat %s: %w", path, err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("filedisk: truncate %s to %d bytes: %w", path, size, err)
		}
	}
	return &Disk{file: f}, nil
}

// Close releases the underlying file handle.
func (d *Disk) Close() error {
	return d.file.Close()
}

func (d *Disk) ReadBlocks(blockNo, nblocks int, dst []byte) error {
	if len(dst) < nblocks*platform.BlockSize {
		return fmt.Errorf("filedisk: dst too small for %d blocks", nblocks)
	}
	n, err := d.file.ReadAt(dst[:nblocks*platform.BlockSize], int64(blockNo)*platform.BlockSize)
	if err != nil {
		return fmt.Errorf("filedisk: read %d blocks at %d: %w", nblocks, blockNo, err)
	}
	if n != nblocks*platform.BlockSize {
		return fmt.Errorf("filedisk: short read of %d bytes, wanted %d", n, nblocks*platform.BlockSize)
	}
	return nil
}

func (d *Disk) WriteBlocks(blockNo, nblocks int, src []byte) error {
	if len(src) < nblocks*platform.BlockSize {
		return fmt.Errorf("filedisk: src too small for %d blocks", nblocks)
	}
	n, err := d.file.WriteAt(src[:nblocks*platform.BlockSize], int64(blockNo)*platform.BlockSize)
	if err != nil {
		return fmt.Errorf("filedisk: write %d blocks at %d: %w", nblocks, blockNo, err)
	}
	if n != nblocks*platform.BlockSize {
		return fmt.Errorf("filedisk: short write of %d bytes, wanted %d", n, nblocks*platform.BlockSize)
	}
	return nil
}
