package proc

import (
	"bytes"
	"encoding/binary"

	"egos32/internal/klog"
)

// ProcRequestType tags a request sent to the process manager (GPIDProcess).
type ProcRequestType int32

// ProcExit is the only request type this core originates: a process
// reporting its own exit status (spec.md §6, "exit(status)"; this
// core's concrete message shape for that contract).
const ProcExit ProcRequestType = 1

// ProcRequest is the message a process's client-side exit helper sends
// to GPIDProcess. The process-manager server that interprets it runs
// outside this core.
type ProcRequest struct {
	Type   ProcRequestType
	Pid    int32
	Status int32
}

func (r ProcRequest) marshal() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, r.Type)
	binary.Write(&buf, binary.LittleEndian, r.Pid)
	binary.Write(&buf, binary.LittleEndian, r.Status)
	return buf.Bytes()
}

// UnmarshalProcRequest decodes the bytes a ProcRequest.marshal produced.
// Exported for the process-manager server's own tests.
func UnmarshalProcRequest(data []byte) ProcRequest {
	var r ProcRequest
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &r.Type); err != nil {
		klog.Fatalf("proc: malformed ProcRequest: %v", err)
	}
	binary.Read(buf, binary.LittleEndian, &r.Pid)
	binary.Read(buf, binary.LittleEndian, &r.Status)
	return r
}

// Sender is the subset of ipc.Service's client API SendExit needs.
// Declared here, not imported from ipc, so this package stays below
// ipc in the dependency graph: ipc depends on proc for the table and
// PCB slots, not the other way around.
type Sender interface {
	SendMessage(senderPid, receiverPid int, data []byte) int
}

// SendExit reports pid's exit status to the process manager (spec.md
// §6 "exit(status)"; SendExit is this core's client-side half of that
// contract, the server-side teardown lives outside this core). The
// return value follows sender.SendMessage's: 0 only once the manager
// has actually received it, syscall.RetvalBlocked if pid is left
// WAIT_TO_SEND until the manager calls recv.
func SendExit(sender Sender, pid, status int) int {
	req := ProcRequest{Type: ProcExit, Pid: int32(pid), Status: int32(status)}
	return sender.SendMessage(pid, GPIDProcess, req.marshal())
}
