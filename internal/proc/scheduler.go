package proc

import (
	"egos32/internal/arch/riscv32"
	"egos32/internal/klog"
	"egos32/internal/platform"
)

// Yield picks the next runnable entry by rotating from the current
// index through the table, selecting the first whose status is READY,
// RUNNING or RUNNABLE (spec.md §4.6). Fatal if none qualifies.
func (t *Table) Yield() {
	n := len(t.entries)
	next := -1
	for i := 1; i <= n; i++ {
		idx := (t.curr + i) % n
		switch t.entries[idx].Status {
		case Ready, Running, Runnable:
			next = idx
		}
		if next >= 0 {
			break
		}
	}
	if next < 0 {
		klog.Fatalf("proc: no runnable process")
		return
	}

	if t.entries[t.curr].Status == Running {
		t.entries[t.curr].Status = Runnable
	}
	t.curr = next

	pid := t.entries[next].Pid
	t.mmu.Switch(pid)
	t.ResetTimer()

	if t.cpu != nil {
		if IsUserApp(pid) {
			t.cpu.SetPreviousPrivilege(riscv32.MPPUser)
		} else {
			t.cpu.SetPreviousPrivilege(riscv32.MPPMachine)
		}
	}

	if t.entries[next].Status == Ready {
		t.dispatchFirstRun(next)
		return
	}
	t.entries[next].Status = Running
}

// dispatchFirstRun loads argc/argv from the known APPS_ARG region, sets
// the trap PC to the app entry, and transitions READY -> RUNNING
// (spec.md §4.6, "If the new state was READY").
func (t *Table) dispatchFirstRun(idx int) {
	e := &t.entries[idx]
	// e.Kernel.KernelSP is still its zero value here: nothing allocates
	// a real per-process kernel stack in this core, so it round-trips
	// through CtxStart unobserved. Kept rather than hardcoded 0 so a
	// future kernel-stack allocator only has to start setting it.
	riscv32.CtxStart(&e.Kernel, e.Kernel.KernelSP, platform.AppsEntryAddr)
	e.Kernel.Regs[10] = uint32(platform.AppsArgAddr)
	e.Kernel.Regs[11] = uint32(platform.AppsArgAddr) + 4
	e.Status = Running
	if t.cpu != nil {
		t.cpu.WriteMepc(platform.AppsEntryAddr)
	}
}
