package worker

import (
	"net"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/benland100/scriptd/runner"
)

// fakeCmd returns an exec.Cmd that is never started: Handle only needs a
// *exec.Cmd to reap via Wait, and this test drives the IPC plumbing between
// a Process and a Handle directly rather than a real subprocess.
func fakeCmd() *exec.Cmd {
	return exec.Command("true")
}

// fakeRunner is a deterministic stand-in for a language runner: Start
// records the program it was given and fires onFinished as soon as Stop is
// called, or immediately if autoFinish is set.
type fakeRunner struct {
	sink       runner.DebugSink
	autoFinish bool

	mu         sync.Mutex
	program    string
	onFinished func()
	stopped    bool
	paused     bool
}

func newFakeRunnerFactory(autoFinish bool) runner.Factory {
	return func(sink runner.DebugSink) runner.Runner {
		return &fakeRunner{sink: sink, autoFinish: autoFinish}
	}
}

func (r *fakeRunner) Start(program string, onFinished func()) error {
	r.mu.Lock()
	r.program = program
	r.onFinished = onFinished
	r.mu.Unlock()
	if r.sink != nil {
		r.sink("started " + program)
	}
	if r.autoFinish {
		onFinished()
	}
	return nil
}

func (r *fakeRunner) Stop() {
	r.mu.Lock()
	r.stopped = true
	onFinished := r.onFinished
	r.mu.Unlock()
	if onFinished != nil {
		onFinished()
	}
}

func (r *fakeRunner) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

// TestProcessAndHandleRoundTrip wires a Process (subprocess side) to a
// Handle (daemon side) over a net.Pipe, exercising the full IPC loop:
// readiness on start, START forwarded to the runner, DEBUG and FINISHED
// events flowing back.
func TestProcessAndHandleRoundTrip(t *testing.T) {

	daemonConn, workerConn := net.Pipe()

	ready := make(chan struct{}, 1)
	debugLines := make(chan string, 8)
	finished := make(chan struct{}, 1)
	broken := make(chan struct{}, 1)

	callbacks := Callbacks{
		OnReady:    func() { ready <- struct{}{} },
		OnDebug:    func(line string) { debugLines <- line },
		OnFinished: func() { finished <- struct{}{} },
		OnBroken:   func() { broken <- struct{}{} },
	}

	handle, err := NewHandle(fakeCmd(), daemonConn, callbacks)
	if err != nil {
		t.Fatal(err)
	}

	process, err := NewProcess(4242, workerConn, newFakeRunnerFactory(true))
	if err != nil {
		t.Fatal(err)
	}

	go process.Run()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker readiness")
	}

	handle.Start("writeln('hi')")

	select {
	case line := <-debugLines:
		if line != "started writeln('hi')" {
			t.Fatalf("unexpected debug line: %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debug line")
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FINISHED")
	}

	handle.Kill(0)

	select {
	case <-broken:
		t.Fatal("OnBroken should not fire for a Kill-initiated teardown")
	case <-time.After(200 * time.Millisecond):
	}
}
