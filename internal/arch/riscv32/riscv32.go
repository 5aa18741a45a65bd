// Package riscv32 is the thin architecture module spec.md §9 calls
// for: "inline assembly for CSR access, mret, context switch...
// confined to a thin architecture module exposing typed wrappers."
// The rest of the core (trap, proc, syscall, ipc) never touches a CSR
// or a stack pointer directly — it calls these typed wrappers, which
// on real hardware would be backed by RISC-V assembly and here model
// the same machine-mode state in plain Go so the dispatcher logic
// above them is architecture-neutral and unit-testable without a
// target board.
package riscv32

// InterruptBit is the top bit of mcause that distinguishes an
// interrupt from an exception (spec.md §4.5).
const InterruptBit = uint32(1) << 31

// Exception causes (mcause low bits, InterruptBit clear).
const (
	CauseEcallFromUMode = 8
	CauseEcallFromMMode = 11
)

// Interrupt causes (mcause low bits, InterruptBit set — these are
// matched against the raw mcause, not riscv32.Code(cause), since the
// interrupt bit is how mcause distinguishes them from the exception
// causes above in the first place).
const (
	CauseSoftwareInterrupt = InterruptBit | 3
	CauseTimerInterrupt    = InterruptBit | 7
	// CauseExternalInterrupt is the UART/TTY device line, the source of
	// a ctrl-C user-kill signal (spec.md §4.5).
	CauseExternalInterrupt = InterruptBit | 11
)

// Previous-privilege values for the MPP field of mstatus, which
// governs what mode `mret` drops into (spec.md §4.6).
const (
	MPPUser    = 0
	MPPMachine = 3
)

// Context is a process's saved machine-mode state across a trap: its
// kernel stack pointer, its resume program counter, and its integer
// register file. ctx_start/ctx_switch in the original source operate
// on exactly this state.
type Context struct {
	KernelSP uintptr
	Mepc     uintptr
	Regs     [32]uint32
}

// CPU models the single hardware thread's machine-mode CSR file. The
// core keeps exactly one, reflecting the uniprocessor target.
type CPU struct {
	mcause  uint32
	mepc    uintptr
	mstatus uint32
	mie     uint32 // modeled for completeness; no caller reads or writes it yet
}

// ReadCause returns the most recent trap's mcause value.
func (c *CPU) ReadCause() uint32 { return c.mcause }

// SetCause is used by the trap simulation harness to drive the CPU
// into a given trap before dispatch; real hardware sets this on trap
// entry, which Go code never does directly.
func (c *CPU) SetCause(cause uint32) { c.mcause = cause }

// IsInterrupt reports whether cause's top bit marks it an interrupt
// rather than an exception (spec.md §4.5).
func IsInterrupt(cause uint32) bool { return cause&InterruptBit != 0 }

// Code strips the interrupt bit, leaving the numeric cause code.
func Code(cause uint32) uint32 { return cause &^ InterruptBit }

// ReadMepc returns the trap program counter.
func (c *CPU) ReadMepc() uintptr { return c.mepc }

// WriteMepc overrides the trap program counter, used both for normal
// trap-return bookkeeping and to redirect a killed process's resume
// address to the exit trampoline (spec.md §5, "Cancellation").
func (c *CPU) WriteMepc(pc uintptr) { c.mepc = pc }

// SetPreviousPrivilege sets mstatus.MPP so that `mret` resumes at the
// given privilege level (spec.md §4.6).
func (c *CPU) SetPreviousPrivilege(mpp uint32) {
	c.mstatus = (c.mstatus &^ (3 << 11)) | (mpp << 11)
}

// PreviousPrivilege reads back mstatus.MPP.
func (c *CPU) PreviousPrivilege() uint32 {
	return (c.mstatus >> 11) & 3
}

// RetFromTrap models the `mret` instruction: it returns the program
// counter execution resumes at. Real hardware also restores the
// privilege level from mstatus.MPP as a side effect of the
// instruction; PreviousPrivilege exposes that same state for callers
// that need to observe it.
func (c *CPU) RetFromTrap() uintptr {
	return c.mepc
}

// CtxStart initializes ctx for a process's first dispatch: a fresh
// kernel stack pointer and a resume address at the application's
// entry point (spec.md §4.6, "If the new state was READY").
func CtxStart(ctx *Context, kernelSP, entry uintptr) {
	ctx.KernelSP = kernelSP
	ctx.Mepc = entry
	ctx.Regs = [32]uint32{}
}

// CtxSwitch saves the outgoing process's machine state from cpu into
// out, and loads in's saved state into cpu, so the next `mret` resumes
// the incoming process exactly where it left off.
func CtxSwitch(cpu *CPU, out, in *Context) {
	if out != nil {
		out.Mepc = cpu.mepc
	}
	if in != nil {
		cpu.mepc = in.Mepc
	}
}
