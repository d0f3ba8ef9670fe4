// Package worker implements the subprocess side of a worker (Process) and
// the daemon side proxy for it (Handle).
package worker

import (
	"net"

	"github.com/benland100/scriptd/logging"
	"github.com/benland100/scriptd/net/tcp/codec"
	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/runner"
)

// Process is the subprocess-side body of a worker: one runner instance
// driven by control messages arriving over the IPC pipeline, with its
// events forwarded back over the same pipeline.
//
// Process owns the IPC pipeline for the lifetime of the subprocess; it is
// constructed once the daemon has handed the worker-mode re-exec its
// inherited socketpair endpoint and chosen runner kind.
type Process struct {
	pid      int32
	conn     net.Conn
	runner   runner.Runner
	pipeline peer.Pipeline
}

// NewProcess builds the subprocess body for pid, wiring factory's runner's
// debug sink and finished callback to frames sent back over conn.
func NewProcess(pid int32, conn net.Conn, factory runner.Factory) (*Process, error) {

	p := &Process{pid: pid, conn: conn}

	p.runner = factory(func(line string) {
		p.send(&codec.IPCDebug{Text: line})
	})

	initializer := &peer.FunctionalPipelineInitializer{
		DecoderInit: func() codec.FrameDecoder { return codec.NewIPCFrameDecoder() },
		EncoderInit: func() codec.FrameEncoder { return codec.NewIPCFrameEncoder() },
		HandlerInit: func() peer.ChannelHandler {
			return &peer.FunctionalChannelHandler{
				HandleRead: p.handleControlMessage,
				HandleError: func(channel peer.Channel, err error) {
					logging.Warn("worker %d: ipc error: %s", p.pid, err.Error())
				},
			}
		},
	}

	pipeline, err := peer.InitPipeline(conn, initializer)
	if err != nil {
		return nil, err
	}
	p.pipeline = pipeline

	return p, nil
}

// Run starts the IPC pipeline, announces readiness and blocks until the
// pipeline (i.e. the inherited socketpair endpoint) is torn down.
func (p *Process) Run() error {
	if err := p.pipeline.Start(); err != nil {
		return err
	}
	p.send(&codec.IPCReady{Pid: p.pid})
	p.pipeline.Sync()
	return nil
}

func (p *Process) handleControlMessage(channel peer.Channel, in interface{}) error {
	switch msg := in.(type) {
	case *codec.IPCStart:
		if err := p.runner.Start(msg.Program, func() {
			p.send(&codec.IPCFinished{})
		}); err != nil {
			p.send(&codec.IPCDebug{Text: "runner cannot start: " + err.Error()})
		}
	case *codec.IPCStop:
		p.runner.Stop()
	case *codec.IPCPause:
		p.runner.Pause()
	}
	return nil
}

func (p *Process) send(msg codec.IPCEntity) {
	if p.pipeline != nil {
		p.pipeline.SendFuture(msg, func(err error) {
			if err != nil {
				logging.Warn("worker %d: failed to send ipc message: %s", p.pid, err.Error())
			}
		})
	}
}
