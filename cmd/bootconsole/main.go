// Command bootconsole is the host-side boot entry point: it resolves
// the board/translation/disk configuration (spec.md §6,
// "Environment / configuration"), prompting on the TTY for the MMU
// translation engine when the board supports a choice, then wires up
// the frame cache, allocator, MMU engine, process table, rendezvous
// service and trap dispatcher exactly as the real boot sequence would
// before handing off to it. Grounded on the teaching kernel's
// boot/anticipation/cmd/release/main.go, generalized from a flag-only
// loader to one that also exercises the interactive TTY prompt.
package main

import (
	"flag"
	"log"
	"os"

	"egos32/internal/arch/riscv32"
	"egos32/internal/bootcfg"
	"egos32/internal/diskio/filedisk"
	"egos32/internal/frame"
	"egos32/internal/ipc"
	"egos32/internal/mmu"
	"egos32/internal/platform"
	"egos32/internal/proc"
	"egos32/internal/syscall"
	"egos32/internal/trap"
)

// core is every piece the boot sequence assembles before handing off
// to the real trap vector (spec.md §4, L0-L2 wiring).
type core struct {
	disk  *filedisk.Disk
	table *proc.Table
	ipc   *ipc.Service
	trap  *trap.Dispatcher
	cpu   *riscv32.CPU
	cfg   bootcfg.Config
}

func boot(cfg bootcfg.Config) (*core, error) {
	disk, err := filedisk.Open(cfg.DiskPath, platform.FrameStoreBlocks)
	if err != nil {
		return nil, err
	}

	cache := frame.NewCache(cfg, disk)
	cache.Init()
	alloc := frame.NewAllocator(cache)

	engine := mmu.NewEngine(cfg.Translation == bootcfg.PageTable, alloc)
	if pt, ok := engine.(*mmu.PageTable); ok {
		pt.SetMaxTrackedPid(cfg.MaxNProcess)
	}

	cpu := &riscv32.CPU{}
	table := proc.NewTable(cfg.MaxNProcess, engine, cpu)
	svc := ipc.NewService(table, engine)
	dispatcher := trap.NewDispatcher(cpu, table, syscall.NewDispatcher(svc))

	return &core{disk: disk, table: table, ipc: svc, trap: dispatcher, cpu: cpu, cfg: cfg}, nil
}

func main() {
	fs := flag.NewFlagSet("bootconsole", flag.ExitOnError)
	interactive := fs.Bool("interactive", true, "prompt on the TTY for the MMU translation engine when the board supports a choice")
	finalize := bootcfg.FlagSet(fs, bootcfg.Default())
	fs.Parse(os.Args[1:])
	cfg := finalize()

	if *interactive && cfg.Board == bootcfg.QEMU {
		translation, err := promptTranslation()
		if err != nil {
			log.Printf("bootconsole: %v, defaulting to software TLB", err)
		} else {
			cfg.Translation = translation
		}
	}

	c, err := boot(cfg)
	if err != nil {
		log.Fatalf("bootconsole: %v", err)
	}
	defer c.disk.Close()

	log.Printf("egos32 core booted: board=%v translation=%v cached_frames=%d max_nprocess=%d disk=%s",
		cfg.Board, cfg.Translation, cfg.CachedFrames, cfg.MaxNProcess, cfg.DiskPath)
}
