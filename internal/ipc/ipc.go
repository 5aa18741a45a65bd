// Package ipc is the rendezvous messaging layer (spec.md §4.8): the
// synchronous send/recv protocol processes use to exchange short
// messages, plus the exit-to-process-manager contract built on top of
// it. Service implements syscall.Handler, so the syscall dispatcher
// routes directly into it.
//
// Grounded on the teaching kernel's grass/kernel.c proc_send/proc_recv,
// which stage a message through a kernel-local buffer across two
// mmu_switch calls because the syscall slot is itself process-virtual
// memory. Here every process's slot is a Go value the table already
// gives the kernel direct, type-safe access to (proc.Table.Slot), so
// the staging copy is a plain byte copy; the mmu.Switch calls are kept
// at the same two points for engine-state fidelity — they are what
// actually moves "current address space" forward for whichever side
// of the rendezvous isn't already scheduled.
package ipc

import (
	"egos32/internal/kerr"
	"egos32/internal/klog"
	"egos32/internal/mmu"
	"egos32/internal/platform"
	"egos32/internal/proc"
	"egos32/internal/syscall"
)

// Service implements syscall.Handler against a process table and the
// mmu engine backing it.
type Service struct {
	table      *proc.Table
	mmu        mmu.Engine
	dispatcher *syscall.Dispatcher
}

// NewService builds a Service wired to table and engine.
func NewService(table *proc.Table, engine mmu.Engine) *Service {
	s := &Service{table: table, mmu: engine}
	s.dispatcher = syscall.NewDispatcher(s)
	return s
}

// Send implements syscall.Handler's send half (spec.md §4.8, "Send").
// slot is the sender's own syscall slot, already holding the message.
// slot.Retval is 0 on immediate delivery, -1 if receiverPid doesn't
// exist, or syscall.RetvalBlocked if the sender was parked WAIT_TO_SEND.
func (s *Service) Send(currentPid int, slot *syscall.Slot) {
	slot.Msg.SenderPid = currentPid
	receiverPid := slot.Msg.ReceiverPid

	receiver, ok := s.table.ByPid(receiverPid)
	if !ok {
		klog.Errorf("%v", kerr.With(kerr.ErrIPCNoSuchReceiver, currentPid))
		slot.Retval = -1
		return
	}
	if receiver.Status != proc.WaitToRecv {
		slot.Retval = syscall.RetvalBlocked
		s.table.SetWaitToSend(currentPid, receiverPid)
		s.table.Yield()
		return
	}

	s.deliver(slot, s.table.Slot(receiverPid), currentPid, receiverPid)
	s.table.SetRunnable(receiverPid)
	s.table.Yield()
}

// Recv implements syscall.Handler's receive half (spec.md §4.8,
// "Receive"). slot is the receiver's own syscall slot, filled in with
// the delivered message on return, or left with
// syscall.RetvalBlocked if the receiver was parked WAIT_TO_RECV.
func (s *Service) Recv(currentPid int, slot *syscall.Slot) {
	senderPid, ok := s.table.FindWaitingSenderFor(currentPid)
	if !ok {
		slot.Retval = syscall.RetvalBlocked
		s.table.SetWaitToRecv(currentPid)
		s.table.Yield()
		return
	}

	s.deliver(s.table.Slot(senderPid), slot, senderPid, currentPid)
	s.table.SetRunnable(senderPid)
	s.table.Yield()
}

// deliver stages from's message through the two mmu_switch points and
// installs it into to. from and to always name the same pids being
// switched to, in that order.
func (s *Service) deliver(from, to *syscall.Slot, fromPid, toPid int) {
	s.mmu.Switch(fromPid)
	staged := append([]byte(nil), from.Msg.Content...)
	senderPid := from.Msg.SenderPid

	s.mmu.Switch(toPid)
	to.Msg = syscall.Message{SenderPid: senderPid, ReceiverPid: toPid, Content: staged}
	to.Retval = 0
}

// SendMessage is the client-side entry point a process calls to send
// data to receiverPid (spec.md §6, "send(receiver_pid, content)").
// Oversized payloads are rejected before the slot is touched. The
// return value is 0 only once the message has actually been delivered
// into the receiver's slot; a sender that blocked gets back
// syscall.RetvalBlocked, never a false 0.
func (s *Service) SendMessage(senderPid, receiverPid int, data []byte) int {
	if len(data) > platform.SyscallMsgLen {
		klog.Errorf("%v", kerr.With(kerr.ErrIPCMessageTooLarge, senderPid))
		return -1
	}
	slot := s.table.Slot(senderPid)
	slot.Tag = syscall.Send
	slot.Msg = syscall.Message{SenderPid: senderPid, ReceiverPid: receiverPid, Content: append([]byte(nil), data...)}
	s.dispatcher.Dispatch(senderPid, slot)
	return slot.Retval
}

// RecvMessage is the client-side entry point a process calls to block
// for a message (spec.md §6, "recv() -> (sender_pid, content)"). buf
// caps how much of the delivered content is copied back. retval is 0
// only once a message has actually been copied in; a receiver that
// blocked gets back (0, 0, syscall.RetvalBlocked), not a false empty
// delivery from pid 0.
func (s *Service) RecvMessage(receiverPid int, buf []byte) (senderPid int, n int, retval int) {
	if len(buf) > platform.SyscallMsgLen {
		klog.Errorf("%v", kerr.With(kerr.ErrIPCMessageTooLarge, receiverPid))
		return 0, 0, -1
	}
	slot := s.table.Slot(receiverPid)
	slot.Tag = syscall.Recv
	s.dispatcher.Dispatch(receiverPid, slot)
	if slot.Retval == syscall.RetvalBlocked {
		return 0, 0, syscall.RetvalBlocked
	}
	n = copy(buf, slot.Msg.Content)
	return slot.Msg.SenderPid, n, slot.Retval
}
