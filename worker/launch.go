package worker

import (
	"errors"
	"net"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/runner"
)

// WorkerModeFlag is the hidden CLI flag cmd/scriptd recognizes on its own
// argv to re-exec itself as a worker subprocess instead of running the
// daemon listener (§9: "spawn the daemon binary with a worker-mode flag and
// an inherited socketpair/pipe, and pick the runner factory by kind in the
// child").
const WorkerModeFlag = "-worker"

// ErrSpawnTimeout is returned by Launch when the subprocess does not signal
// readiness within the bounded handshake window.
var ErrSpawnTimeout = errors.New("worker did not become ready in time")

// Launch spawns a new worker subprocess hosting a runner of the given kind
// and blocks until it signals readiness or readyTimeout elapses, at which
// point it is killed and ErrSpawnTimeout returned (SpawnFailure, §7). The
// duplex control channel is a UNIX socketpair; one descriptor is kept by
// the daemon and wrapped in a Handle, the other is inherited by the child
// as its first extra file.
//
// The readiness handshake is the inherited peer.AckManager, reused here
// exactly as the demo client uses it for request/response correlation,
// keyed on the worker's pid.
func Launch(kind runner.Kind, callbacks Callbacks, ack peer.AckManager, readyTimeout time.Duration) (handle *Handle, pid int32, err error) {

	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, 0, err
	}

	parentFile := os.NewFile(uintptr(fds[0]), "scriptd-worker-parent")
	childFile := os.NewFile(uintptr(fds[1]), "scriptd-worker-child")

	exe, err := os.Executable()
	if err != nil {
		parentFile.Close()
		childFile.Close()
		return nil, 0, err
	}

	cmd := exec.Command(exe, WorkerModeFlag, strconv.Itoa(int(kind)))
	cmd.ExtraFiles = []*os.File{childFile}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		parentFile.Close()
		childFile.Close()
		return nil, 0, err
	}
	childFile.Close()

	pid = int32(cmd.Process.Pid)

	parentConn, err := net.FileConn(parentFile)
	parentFile.Close()
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, 0, err
	}

	ack.InitAck(pid)
	userOnReady := callbacks.OnReady
	callbacks.OnReady = func() {
		ack.CommitAck(pid, true)
		if userOnReady != nil {
			userOnReady()
		}
	}

	handle, err = NewHandle(cmd, parentConn, callbacks)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, 0, err
	}

	if _, waitErr := ack.WaitAck(pid, readyTimeout); waitErr != nil {
		handle.Kill(0)
		return nil, 0, ErrSpawnTimeout
	}

	return handle, pid, nil
}
