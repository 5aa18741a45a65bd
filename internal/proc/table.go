package proc

import (
	"egos32/internal/arch/riscv32"
	"egos32/internal/klog"
	"egos32/internal/mmu"
	"egos32/internal/syscall"
)

// Table is the fixed-size process table, touched only from the trap
// dispatch path (spec.md §5, "Shared resources").
type Table struct {
	entries []PCB
	curr    int
	nextPid int
	mmu     mmu.Engine
	cpu     *riscv32.CPU
	// ResetTimer arms the next timer preemption (spec.md §6, consumed
	// from device drivers). Defaults to a no-op so tests that don't
	// care about the timer don't need to supply one.
	ResetTimer func()
}

// NewTable builds a table with room for size processes, backed by
// engine for address-space switches and cpu for privilege-level
// bookkeeping on Yield.
func NewTable(size int, engine mmu.Engine, cpu *riscv32.CPU) *Table {
	t := &Table{
		entries:    make([]PCB, size),
		nextPid:    GPIDProcess,
		mmu:        engine,
		cpu:        cpu,
		ResetTimer: func() {},
	}
	for i := range t.entries {
		t.entries[i].Status = Unused
	}
	return t
}

// Alloc reserves the first UNUSED slot and assigns it the next pid,
// transitioning it to LOADING (spec.md §3, "process.c proc_alloc").
// Fatal when every slot is occupied.
func (t *Table) Alloc() int {
	for i := range t.entries {
		if t.entries[i].Status == Unused {
			pid := t.nextPid
			t.nextPid++
			t.entries[i] = PCB{Pid: pid, Status: Loading}
			return pid
		}
	}
	klog.Fatalf("proc: reached the limit of %d processes", len(t.entries))
	panic("unreachable")
}

func (t *Table) indexOf(pid int) int {
	for i := range t.entries {
		if t.entries[i].Status != Unused && t.entries[i].Pid == pid {
			return i
		}
	}
	return -1
}

// ByPid returns the PCB for pid, if it has a live entry.
func (t *Table) ByPid(pid int) (*PCB, bool) {
	idx := t.indexOf(pid)
	if idx < 0 {
		return nil, false
	}
	return &t.entries[idx], true
}

func (t *Table) setStatus(pid int, s Status) {
	if idx := t.indexOf(pid); idx >= 0 {
		t.entries[idx].Status = s
	}
}

// SetReady marks pid READY, SetRunning marks it RUNNING, SetRunnable
// marks it RUNNABLE — the three externally-driven transitions the
// loader and IPC layer need (spec.md §3).
func (t *Table) SetReady(pid int)    { t.setStatus(pid, Ready) }
func (t *Table) SetRunning(pid int)  { t.setStatus(pid, Running) }
func (t *Table) SetRunnable(pid int) { t.setStatus(pid, Runnable) }

// SetWaitToSend marks pid WAIT_TO_SEND with the given target receiver.
func (t *Table) SetWaitToSend(pid, receiverPid int) {
	if idx := t.indexOf(pid); idx >= 0 {
		t.entries[idx].Status = WaitToSend
		t.entries[idx].ReceiverPid = receiverPid
	}
}

// SetWaitToRecv marks pid WAIT_TO_RECV.
func (t *Table) SetWaitToRecv(pid int) { t.setStatus(pid, WaitToRecv) }

// Free releases pid's address space and returns its entry to UNUSED
// (spec.md §3, "free(pid)").
func (t *Table) Free(pid int) {
	t.mmu.Free(pid)
	t.setStatus(pid, Unused)
}

// FindWaitingSenderFor returns the first pid in WAIT_TO_SEND whose
// ReceiverPid is receiverPid (spec.md §4.8, receive step 1).
func (t *Table) FindWaitingSenderFor(receiverPid int) (int, bool) {
	for i := range t.entries {
		if t.entries[i].Status == WaitToSend && t.entries[i].ReceiverPid == receiverPid {
			return t.entries[i].Pid, true
		}
	}
	return 0, false
}

// SetCurrent forces the table's notion of "current process" to pid
// without touching its status. The default current entry is whichever
// pid was allocated first; this lets the trap layer (and tests) seed
// whichever process actually trapped.
func (t *Table) SetCurrent(pid int) {
	if idx := t.indexOf(pid); idx >= 0 {
		t.curr = idx
	}
}

// CurrentPid returns the pid of the process table's current entry.
func (t *Table) CurrentPid() int {
	return t.entries[t.curr].Pid
}

// Current returns the process table's current entry.
func (t *Table) Current() *PCB {
	return &t.entries[t.curr]
}

// Entries exposes the underlying table for read-only inspection
// (scenario assertions in tests, status dumps in a shell).
func (t *Table) Entries() []PCB {
	return t.entries
}

// Slot returns pid's syscall slot, the fixed per-process region the
// syscall dispatcher and rendezvous messaging marshal through (spec.md
// §3). Nil if pid has no live entry.
func (t *Table) Slot(pid int) *syscall.Slot {
	idx := t.indexOf(pid)
	if idx < 0 {
		return nil
	}
	return &t.entries[idx].Slot
}
