// Package trap is the single machine-mode trap entry point (spec.md
// §4.5): it reads the cause register and routes to the syscall
// dispatcher, the scheduler, or process termination. Grounded on the
// teaching kernel's grass/kernel.c trap_entry/trap_entry_vm and
// earth/cpu_intr.c, which do exactly this dispatch over mcause before
// handing off to proc_yield or proc_syscall.
package trap

import (
	"egos32/internal/arch/riscv32"
	"egos32/internal/klog"
	"egos32/internal/platform"
	"egos32/internal/proc"
	"egos32/internal/syscall"
)

// Dispatcher is the trap vector's Go-side handler. Real hardware
// switches to a dedicated kernel stack before calling in and restores
// the interrupted stack on return (spec.md §4.5); that bracket is
// riscv32.CtxSwitch, invoked by the caller around Handle, so Handle
// itself stays architecture-neutral.
type Dispatcher struct {
	cpu      *riscv32.CPU
	table    *proc.Table
	syscalls *syscall.Dispatcher
}

// NewDispatcher builds a trap Dispatcher wired to the running CPU, the
// process table it schedules, and the syscall dispatcher it routes
// ecalls and software interrupts to.
func NewDispatcher(cpu *riscv32.CPU, table *proc.Table, syscalls *syscall.Dispatcher) *Dispatcher {
	return &Dispatcher{cpu: cpu, table: table, syscalls: syscalls}
}

// Handle reads the current trap cause and dispatches it (spec.md
// §4.5). Called once per trap, with the current process still current
// in table.
func (d *Dispatcher) Handle() {
	cause := d.cpu.ReadCause()
	pid := d.table.CurrentPid()

	if riscv32.IsInterrupt(cause) {
		// The interrupt-cause constants carry InterruptBit, so they are
		// matched against the raw cause here, not riscv32.Code(cause).
		d.handleInterrupt(cause, pid)
		return
	}
	d.handleException(riscv32.Code(cause), pid)
}

func (d *Dispatcher) handleException(code uint32, pid int) {
	switch code {
	case riscv32.CauseEcallFromUMode:
		d.syscalls.Dispatch(pid, d.table.Slot(pid))
	case riscv32.CauseEcallFromMMode:
		if proc.IsUserApp(pid) {
			d.terminate(pid)
			return
		}
		klog.Fatalf("trap: ecall-from-machine from privileged pid %d", pid)
	default:
		if proc.IsUserApp(pid) {
			d.terminate(pid)
			return
		}
		klog.Fatalf("trap: exception %#x in privileged pid %d", code, pid)
	}
}

// handleInterrupt takes the raw, unstripped cause (InterruptBit set)
// since the interrupt-cause constants it switches on carry that bit.
func (d *Dispatcher) handleInterrupt(cause uint32, pid int) {
	switch cause {
	case riscv32.CauseTimerInterrupt:
		if !proc.IsPreemptible(pid) {
			d.table.ResetTimer()
			return
		}
		d.table.Yield()
	case riscv32.CauseSoftwareInterrupt:
		d.syscalls.Dispatch(pid, d.table.Slot(pid))
	case riscv32.CauseExternalInterrupt:
		// ctrl-C: the shell only forwards this while a user app holds
		// the foreground, so the current process is always the kill
		// target (spec.md §5, "Cancellation").
		d.terminate(pid)
	default:
		klog.Fatalf("trap: unknown interrupt cause %#x", cause)
	}
}

// terminate redirects pid's trap PC to the exit trampoline (spec.md
// §4.5, "Cancellation"). The process itself voluntarily releases its
// resources through the normal exit syscall once it resumes there;
// terminate does not touch the PCB's status or free its frames.
func (d *Dispatcher) terminate(pid int) {
	pcb, ok := d.table.ByPid(pid)
	if !ok {
		return
	}
	pcb.Kernel.Mepc = platform.ExitTrampolineAddr
	d.cpu.WriteMepc(platform.ExitTrampolineAddr)
}
