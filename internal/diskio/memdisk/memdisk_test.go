package memdisk

import (
	"bytes"
	"testing"

	"egos32/internal/platform"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	d := New(platform.FrameStoreBlocks)
	src := bytes.Repeat([]byte{0xAB}, platform.BlocksPerPage*platform.BlockSize)
	if err := d.WriteBlocks(16, platform.BlocksPerPage, src); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	dst := make([]byte, platform.BlocksPerPage*platform.BlockSize)
	if err := d.ReadBlocks(16, platform.BlocksPerPage, dst); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(src, dst) {
		t.Fatalf("round trip mismatch")
	}
}

func TestOutOfRangeFails(t *testing.T) {
	d := New(8)
	buf := make([]byte, platform.BlockSize)
	if err := d.ReadBlocks(100, 1, buf); err == nil {
		t.Fatalf("expected an out-of-range read to fail")
	}
}

func TestSimulatedFailure(t *testing.T) {
	d := New(platform.FrameStoreBlocks)
	d.FailAfter = 0
	buf := make([]byte, platform.BlockSize)
	if err := d.ReadBlocks(0, 1, buf); err == nil {
		t.Fatalf("expected the simulated failure to trigger")
	}
}
