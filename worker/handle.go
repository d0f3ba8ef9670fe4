package worker

import (
	"net"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/benland100/scriptd/logging"
	"github.com/benland100/scriptd/misc"
	"github.com/benland100/scriptd/net/tcp/codec"
	"github.com/benland100/scriptd/net/tcp/peer"
)

// Callbacks are invoked by a Handle as IPC events arrive from its
// subprocess. OnReady, OnDebug and OnFinished run on the pipeline's inbound
// goroutine for that worker, OnBroken on its connection-read goroutine; a caller that touches shared daemon state from inside one must
// take its own lock (§5's single-daemon-thread assumption does not survive
// a goroutine-per-connection transport, so the indexes guard themselves).
type Callbacks struct {
	OnReady    func()
	OnDebug    func(line string)
	OnFinished func()
	// OnBroken fires once if the pipe closes without a prior Kill, i.e. the
	// subprocess died on its own. The daemon synthesizes FINISHED for this
	// per §7's PipeBroken policy.
	OnBroken func()
}

// Handle is the daemon-side proxy for one worker subprocess: it owns the
// child process and the duplex IPC pipe to it (§4.4), translating
// Start/Stop/Pause/Kill calls into IPC messages and invoking Callbacks as
// events drain off the pipe. It reuses the inherited peer.Pipeline
// unmodified in shape (§11.1) - the worker's control socket is driven
// exactly like a client TCP connection, just with the IPC codec and a
// handler that forwards to Callbacks instead of dispatching wire frames.
//
// Start/Stop/Pause only enqueue onto the pipeline's outbound channel, whose
// goroutine is the pipe's single writer; Kill is guarded by the Handle's own
// mutex. The daemon calls these from several goroutines (dispatch, its
// per-KILL goroutine, and the disconnect cascade).
type Handle struct {
	cmd       *exec.Cmd
	conn      net.Conn
	pipeline  peer.Pipeline
	callbacks Callbacks

	waitOnce sync.Once
	waitDone chan struct{}
	waitErr  error

	mu     sync.Mutex
	killed bool
}

// NewHandle wraps cmd (already started by the caller, typically via
// Launch) and conn (the daemon-side end of the worker's control
// socketpair) into a Handle, starting the IPC pipeline immediately.
func NewHandle(cmd *exec.Cmd, conn net.Conn, callbacks Callbacks) (*Handle, error) {

	h := &Handle{
		cmd:       cmd,
		conn:      conn,
		callbacks: callbacks,
		waitDone:  make(chan struct{}),
	}

	initializer := &peer.FunctionalPipelineInitializer{
		DecoderInit: func() codec.FrameDecoder { return codec.NewIPCFrameDecoder() },
		EncoderInit: func() codec.FrameEncoder { return codec.NewIPCFrameEncoder() },
		HandlerInit: func() peer.ChannelHandler {
			return &peer.FunctionalChannelHandler{
				HandleRead:       h.handleEvent,
				HandleInactivate: h.handleInactivate,
				HandleError: func(channel peer.Channel, err error) {
					logging.Warn("worker handle: ipc error: %s", err.Error())
				},
			}
		},
	}

	pipeline, err := peer.InitPipeline(conn, initializer)
	if err != nil {
		return nil, err
	}
	h.pipeline = pipeline

	if err := pipeline.Start(); err != nil {
		return nil, err
	}

	go h.reap()

	return h, nil
}

// reap waits for the subprocess to exit exactly once, regardless of
// whether that happens because of Kill or because the runner finished and
// the subprocess exited on its own.
func (h *Handle) reap() {
	h.waitOnce.Do(func() {
		h.waitErr = h.cmd.Wait()
		close(h.waitDone)
	})
}

func (h *Handle) handleEvent(channel peer.Channel, in interface{}) error {
	switch msg := in.(type) {
	case *codec.IPCReady:
		if h.callbacks.OnReady != nil {
			h.callbacks.OnReady()
		}
	case *codec.IPCDebug:
		if h.callbacks.OnDebug != nil {
			h.callbacks.OnDebug(msg.Text)
		}
	case *codec.IPCFinished:
		if h.callbacks.OnFinished != nil {
			h.callbacks.OnFinished()
		}
	}
	return nil
}

func (h *Handle) handleInactivate(channel peer.Channel) error {
	h.mu.Lock()
	killed := h.killed
	h.mu.Unlock()
	if !killed && h.callbacks.OnBroken != nil {
		h.callbacks.OnBroken()
	}
	return nil
}

// Start forwards a START command to the subprocess.
func (h *Handle) Start(program string) {
	h.send(&codec.IPCStart{Program: program})
}

// Stop forwards a best-effort STOP request; no reply is expected (§9 open
// question 4).
func (h *Handle) Stop() {
	h.send(&codec.IPCStop{})
}

// Pause forwards a best-effort PAUSE request.
func (h *Handle) Pause() {
	h.send(&codec.IPCPause{})
}

func (h *Handle) send(msg codec.IPCEntity) {
	if h.pipeline != nil {
		h.pipeline.SendFuture(msg, func(err error) {
			if err != nil {
				logging.Warn("worker handle: failed to send ipc message: %s", err.Error())
			}
		})
	}
}

// Exited reports whether the subprocess has already been reaped, without
// blocking. Used by the housekeeping tick (§11.4) to catch a worker whose
// exit was never reported over the IPC pipe.
func (h *Handle) Exited() bool {
	select {
	case <-h.waitDone:
		return true
	default:
		return false
	}
}

// Kill forcibly terminates the subprocess and tears down the pipe. It is
// valid from any worker state (§4.4) and is idempotent: a second Kill is a
// no-op. grace bounds how long SIGTERM is given to work before SIGKILL.
func (h *Handle) Kill(grace time.Duration) {

	h.mu.Lock()
	if h.killed {
		h.mu.Unlock()
		return
	}
	h.killed = true
	h.mu.Unlock()

	if misc.LifecycleCheckRun(h.pipeline) {
		misc.LifecycleStop(h.pipeline)
	} else if h.conn != nil {
		h.conn.Close()
	}

	if h.cmd == nil || h.cmd.Process == nil {
		return
	}

	h.cmd.Process.Signal(syscall.SIGTERM)

	if grace <= 0 {
		<-h.waitDone
		return
	}

	select {
	case <-h.waitDone:
	case <-time.After(grace):
		h.cmd.Process.Kill()
		<-h.waitDone
	}
}
