package ipc

import (
	"testing"

	"egos32/internal/arch/riscv32"
	"egos32/internal/diskio/memdisk"
	"egos32/internal/frame"
	"egos32/internal/mmu"
	"egos32/internal/platform"
	"egos32/internal/proc"
	"egos32/internal/syscall"
)

func newTestService(t *testing.T, size int) (*proc.Table, *Service) {
	t.Helper()
	cache := frame.NewRandomCache(platform.NFrames, memdisk.New(platform.FrameStoreBlocks))
	alloc := frame.NewAllocator(cache)
	engine := mmu.NewSoftTLB(alloc)
	table := proc.NewTable(size, engine, &riscv32.CPU{})
	return table, NewService(table, engine)
}

// Literal end-to-end scenario: A sends to B before B calls recv, B
// then calls recv and receives the buffered message. A is marked
// RUNNABLE and, as the only other schedulable entry, is dispatched to
// RUNNING by the yield that follows delivery.
func TestSendBeforeReceiverReadyThenRecvDeliversMessage(t *testing.T) {
	table, svc := newTestService(t, 4)
	a := table.Alloc()
	b := table.Alloc()
	table.SetRunning(a)
	table.SetReady(b)

	retval := svc.SendMessage(a, b, []byte("ping"))
	if retval != syscall.RetvalBlocked {
		t.Fatalf("expected SendMessage to report blocked, got retval %d", retval)
	}

	pcbA, _ := table.ByPid(a)
	if pcbA.Status != proc.WaitToSend {
		t.Fatalf("expected sender to be WAIT_TO_SEND, got %v", pcbA.Status)
	}

	table.SetRunnable(b) // the sender's yield dispatched the receiver; it now calls recv
	senderPid, n, recvRetval := svc.RecvMessage(b, make([]byte, platform.SyscallMsgLen))
	if recvRetval != 0 {
		t.Fatalf("expected RecvMessage to succeed, got retval %d", recvRetval)
	}
	if senderPid != a {
		t.Fatalf("expected delivered message from pid %d, got %d", a, senderPid)
	}
	if n != len("ping") {
		t.Fatalf("expected 4 bytes delivered, got %d", n)
	}

	pcbA, _ = table.ByPid(a)
	if pcbA.Status != proc.Running {
		t.Fatalf("expected the woken sender to be dispatched to RUNNING after delivery, got %v", pcbA.Status)
	}
}

func TestRecvBeforeSenderThenSendDeliversImmediately(t *testing.T) {
	table, svc := newTestService(t, 4)
	a := table.Alloc()
	b := table.Alloc()
	table.SetReady(a)
	table.SetRunning(b)

	_, _, recvRetval := svc.RecvMessage(b, make([]byte, platform.SyscallMsgLen))
	if recvRetval != syscall.RetvalBlocked {
		t.Fatalf("expected RecvMessage to report blocked, got retval %d", recvRetval)
	}
	pcbB, _ := table.ByPid(b)
	if pcbB.Status != proc.WaitToRecv {
		t.Fatalf("expected receiver to be WAIT_TO_RECV, got %v", pcbB.Status)
	}

	table.SetRunnable(a)
	retval := svc.SendMessage(a, b, []byte("pong"))
	if retval != 0 {
		t.Fatalf("expected SendMessage to succeed, got retval %d", retval)
	}

	recvSlot := table.Slot(b)
	if string(recvSlot.Msg.Content) != "pong" {
		t.Fatalf("expected receiver's slot to hold the delivered content, got %q", recvSlot.Msg.Content)
	}
	if recvSlot.Msg.SenderPid != a {
		t.Fatalf("expected delivered sender pid %d, got %d", a, recvSlot.Msg.SenderPid)
	}

	// The receiver is marked RUNNABLE on delivery and, as the only other
	// schedulable entry, dispatched to RUNNING by the sender's yield.
	pcbB, _ = table.ByPid(b)
	if pcbB.Status != proc.Running {
		t.Fatalf("expected the woken receiver to be dispatched to RUNNING after delivery, got %v", pcbB.Status)
	}
}

func TestSendToUnknownPidReturnsNegativeOneWithoutBlocking(t *testing.T) {
	table, svc := newTestService(t, 4)
	a := table.Alloc()
	table.SetRunning(a)

	retval := svc.SendMessage(a, 999, []byte("hello"))
	if retval != -1 {
		t.Fatalf("expected -1 for a send to an unknown pid, got %d", retval)
	}

	pcbA, _ := table.ByPid(a)
	if pcbA.Status == proc.WaitToSend {
		t.Fatalf("did not expect the sender to block on a send to an unknown pid")
	}
}

func TestSendOversizedPayloadRejectedWithoutTouchingSlot(t *testing.T) {
	table, svc := newTestService(t, 4)
	a := table.Alloc()
	b := table.Alloc()
	table.SetRunning(a)
	table.SetReady(b)

	before := *table.Slot(a)
	oversized := make([]byte, platform.SyscallMsgLen+1)
	retval := svc.SendMessage(a, b, oversized)
	if retval != -1 {
		t.Fatalf("expected -1 for an oversized payload, got %d", retval)
	}
	after := *table.Slot(a)
	if before.Tag != after.Tag || len(before.Msg.Content) != len(after.Msg.Content) {
		t.Fatalf("expected the sender's slot to be untouched by a rejected oversized send")
	}
}

func TestSendExitMarshalsProcRequestToProcessManager(t *testing.T) {
	table, svc := newTestService(t, 4)
	mgr := table.Alloc() // GPIDProcess
	app := table.Alloc()
	table.SetReady(mgr)
	table.SetRunning(app)

	retval := proc.SendExit(svc, app, 42)
	if retval != syscall.RetvalBlocked {
		t.Fatalf("expected SendExit to report blocked until the manager receives, got retval %d", retval)
	}

	pcbApp, _ := table.ByPid(app)
	if pcbApp.Status != proc.WaitToSend {
		t.Fatalf("expected the exiting process to block until the manager receives, got %v", pcbApp.Status)
	}

	table.SetRunnable(mgr)
	senderPid, n, recvRetval := svc.RecvMessage(mgr, make([]byte, platform.SyscallMsgLen))
	if recvRetval != 0 || senderPid != app {
		t.Fatalf("expected the process manager to receive from pid %d, got sender=%d retval=%d", app, senderPid, recvRetval)
	}

	req := proc.UnmarshalProcRequest(table.Slot(mgr).Msg.Content[:n])
	if req.Type != proc.ProcExit || int(req.Pid) != app || int(req.Status) != 42 {
		t.Fatalf("unexpected decoded ProcRequest: %+v", req)
	}
}
