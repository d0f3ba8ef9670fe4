package daemon

import (
	"io"
	"net"
	"os/exec"
	"testing"
	"time"

	"github.com/benland100/scriptd/config"
	"github.com/benland100/scriptd/net/tcp/codec"
	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/runner"
	"github.com/benland100/scriptd/worker"
)

// fakeChannel is a minimal peer.Channel stand-in: enough to exercise the
// dispatch table and ownership checks without a real socket.
type fakeChannel struct {
	sent    []interface{}
	closed  bool
	context map[string]interface{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{context: make(map[string]interface{})}
}

func (c *fakeChannel) Send(data interface{}) error {
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeChannel) SendFuture(data interface{}, callback func(err error)) {
	c.sent = append(c.sent, data)
	if callback != nil {
		callback(nil)
	}
}

func (c *fakeChannel) Close()                  { c.closed = true }
func (c *fakeChannel) Remote() net.Addr        { return &peer.UnknownAddr{} }
func (c *fakeChannel) IsConnected() bool        { return !c.closed }
func (c *fakeChannel) GetContext(key string) interface{} { return c.context[key] }
func (c *fakeChannel) AddContext(key string, val interface{}) { c.context[key] = val }
func (c *fakeChannel) DelContext(key string)   { delete(c.context, key) }

func newTestDaemon() *Daemon {
	return New(config.DefaultDaemonConfig(), runner.DefaultRegistry())
}

// newTestHandle wires a worker.Handle around a real, short-lived "sleep"
// subprocess instead of a re-exec'd worker, so ownership/dispatch tests can
// exercise Kill without going through worker.Launch's daemon-binary re-exec.
func newTestHandle(t *testing.T) *worker.Handle {
	t.Helper()

	cmd := exec.Command("sleep", "30")
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	// Drain the worker end so the handle's writes never block on the
	// unbuffered pipe (a blocked writer would stall the pipeline's Stop).
	go io.Copy(io.Discard, clientConn)

	if err := cmd.Start(); err != nil {
		t.Skip("cannot start test subprocess:", err)
	}

	h, err := worker.NewHandle(cmd, serverConn, worker.Callbacks{})
	if err != nil {
		cmd.Process.Kill()
		t.Fatal(err)
	}
	return h
}

func TestHandleActivateInstallsOwnedWorkerSet(t *testing.T) {
	d := newTestDaemon()
	channel := newFakeChannel()

	if err := d.handleActivate(channel); err != nil {
		t.Fatal(err)
	}
	if ownedWorkersOf(channel) == nil {
		t.Fatal("expected an owned-worker set to be installed on activate")
	}
}

func TestHandleSpawnRejectsUnknownKind(t *testing.T) {
	d := newTestDaemon()
	channel := newFakeChannel()
	d.handleActivate(channel)

	err := d.handleSpawn(channel, &codec.SpawnFrame{Kind: 200})
	if _, ok := err.(*UnknownRunnerKindError); !ok {
		t.Fatalf("expected UnknownRunnerKindError, got %v", err)
	}
}

func TestHandleReadRejectsUnexpectedFrame(t *testing.T) {
	d := newTestDaemon()
	channel := newFakeChannel()
	d.handleActivate(channel)

	err := d.handleRead(channel, &codec.WorkerFrame{Pid: 1})
	if _, ok := err.(*UnexpectedFrameError); !ok {
		t.Fatalf("expected UnexpectedFrameError, got %v", err)
	}
}

func TestCommandsAgainstUnownedWorkerAreRejected(t *testing.T) {
	d := newTestDaemon()

	owner := newFakeChannel()
	other := newFakeChannel()
	d.handleActivate(owner)
	d.handleActivate(other)

	handle := newTestHandle(t)
	defer handle.Kill(0)

	entry := &workerEntry{id: 99, owner: owner, kind: runner.PS, handle: handle, state: StateIdle}
	d.mu.Lock()
	d.workers[99] = entry
	d.mu.Unlock()
	ownedWorkersOf(owner).Add(int32(99))

	err := d.handleStart(other, &codec.StartFrame{Pid: 99, Program: "x"})
	if _, ok := err.(*UnknownWorkerError); !ok {
		t.Fatalf("expected UnknownWorkerError for a non-owning connection, got %v", err)
	}

	if err := d.handleStart(owner, &codec.StartFrame{Pid: 99, Program: "x"}); err != nil {
		t.Fatalf("owning connection should be able to start its own worker: %v", err)
	}
}

func TestDisconnectCascadeKillsOwnedWorkers(t *testing.T) {
	d := newTestDaemon()
	channel := newFakeChannel()
	d.handleActivate(channel)

	handle := newTestHandle(t)

	entry := &workerEntry{id: 7, owner: channel, kind: runner.PS, handle: handle, state: StateIdle}
	d.mu.Lock()
	d.workers[7] = entry
	d.mu.Unlock()
	ownedWorkersOf(channel).Add(int32(7))

	if err := d.handleDisconnectFrame(channel); err != nil {
		t.Fatal(err)
	}

	if d.WorkerCount() != 0 {
		t.Fatalf("expected cascade-kill to empty the worker index, got %d remaining", d.WorkerCount())
	}
	if !channel.closed {
		t.Fatal("expected the connection to be closed on DISCONNECT")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !handle.Exited() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !handle.Exited() {
		t.Fatal("expected the killed subprocess to have been reaped")
	}
}
