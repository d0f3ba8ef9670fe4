package daemon

import (
	"sync"

	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/runner"
	"github.com/benland100/scriptd/worker"
)

// State is a worker's position in the §4.4 state machine: IDLE --start-->
// RUNNING --finished--> FINISHED --kill--> DEAD, with kill valid from any
// state. DEAD is realized as removal from the daemon's indexes rather than
// a stored value (invariant 3: a DEAD worker is gone from every index
// before the next dispatch turn).
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// workerEntry is the daemon-side record for one live worker (§3). owner is
// immutable for the entry's lifetime (invariant 1), as is handle; state is
// touched from whichever connection/event goroutine currently has the
// entry looked up, guarded by mu.
type workerEntry struct {
	id     int32
	owner  peer.Channel
	kind   runner.Kind
	handle *worker.Handle

	mu    sync.Mutex
	state State
}

func (w *workerEntry) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *workerEntry) getState() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
