// Package daemon implements the script-execution daemon's coupling layer:
// the connection manager and event dispatch table described in §4.2/§4.5,
// wired on top of the inherited net/tcp pipeline stack (§11.1).
package daemon

import (
	"sync"
	"time"

	"github.com/benland100/scriptd/config"
	"github.com/benland100/scriptd/logging"
	"github.com/benland100/scriptd/misc"
	"github.com/benland100/scriptd/net/tcp"
	"github.com/benland100/scriptd/net/tcp/codec"
	tcpconfig "github.com/benland100/scriptd/net/tcp/config"
	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/parallel"
	"github.com/benland100/scriptd/runner"
	"github.com/benland100/scriptd/task"
	"github.com/benland100/scriptd/util"
	"github.com/benland100/scriptd/worker"
)

// ownedWorkersKey is the per-connection Channel context entry (§3's
// per-client owned-WorkerId index), backed by the inherited util.Set.
const ownedWorkersKey = "workers"

// Daemon is the script-execution daemon: one TCP listener, one worker
// index, one client index, wired to the script wire protocol (§4.1) and
// the runner registry (§4.3). It wraps the inherited tcp.Server exactly as
// the teacher's own demo programs do, swapping in the script codec and a
// dispatch-table ChannelHandler in place of the demo's echo handler.
type Daemon struct {
	server    tcp.Server
	registry  *runner.Registry
	ack       peer.AckManager
	scheduler task.Scheduler

	readyTimeout time.Duration
	killGrace    time.Duration

	mu      sync.RWMutex
	workers map[int32]*workerEntry
}

// New constructs a Daemon listening per cfg and dispatching SPAWN requests
// through registry.
func New(cfg config.DaemonConfig, registry *runner.Registry) *Daemon {

	d := &Daemon{
		registry:     registry,
		ack:          peer.NewAckManager(),
		readyTimeout: cfg.ReadyTimeout,
		killGrace:    cfg.KillGrace,
		workers:      make(map[int32]*workerEntry),
	}

	serverCfg := tcpconfig.ServerConfig{
		Port:         cfg.Port,
		AcceptorSize: cfg.AcceptorSize,
	}
	serverCfg.NoDelay = true

	initializer := &peer.FunctionalPipelineInitializer{
		DecoderInit: func() codec.FrameDecoder { return codec.NewScriptFrameDecoder() },
		EncoderInit: func() codec.FrameEncoder { return codec.NewScriptFrameEncoder() },
		HandlerInit: func() peer.ChannelHandler {
			return &peer.FunctionalChannelHandler{
				HandleActivate:   d.handleActivate,
				HandleInactivate: d.handleInactivate,
				HandleRead:       d.handleRead,
				HandleError:      d.handleError,
			}
		},
	}

	d.server = tcp.NewPipelineServer(serverCfg, initializer)

	if cfg.HousekeepingInterval > 0 {
		d.scheduler = task.NewFixedRateScheduler(d.houseKeep, cfg.HousekeepingInterval)
	}

	return d
}

// Start brings up the listener (and housekeeping tick, if configured).
func (d *Daemon) Start() error {
	if err := misc.LifecycleStart(d.server); err != nil {
		return err
	}
	if d.scheduler != nil {
		misc.LifecycleStart(d.scheduler)
	}
	return nil
}

// Stop tears down the listener, every client connection (cascading into
// every worker, §5), and the housekeeping tick.
func (d *Daemon) Stop() {
	if d.scheduler != nil {
		misc.LifecycleStop(d.scheduler)
	}
	misc.LifecycleStop(d.server)
}

// IsRunning reports whether the listener is up.
func (d *Daemon) IsRunning() bool {
	return d.server.IsRunning()
}

// Sync blocks until the daemon has fully stopped.
func (d *Daemon) Sync() {
	misc.SynchronizeIt(d.server)
}

// WorkerCount returns the number of currently-indexed workers, for tests
// and housekeeping.
func (d *Daemon) WorkerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.workers)
}

func (d *Daemon) handleActivate(channel peer.Channel) error {
	channel.AddContext(ownedWorkersKey, util.NewSet(true))
	logging.Debug("scriptd: client %s connected.", channel.Remote().String())
	return nil
}

func (d *Daemon) handleInactivate(channel peer.Channel) error {
	logging.Debug("scriptd: client %s disconnected.", channel.Remote().String())
	d.cascadeKill(channel)
	return nil
}

func (d *Daemon) handleError(channel peer.Channel, err error) {
	logging.Warn("scriptd: client %s error: %s", channel.Remote().String(), err.Error())
	channel.SendFuture(&codec.ErrorFrame{Why: err.Error()}, nil)
	channel.Close()
}

// handleRead is the §4.5 dispatch table.
func (d *Daemon) handleRead(channel peer.Channel, in interface{}) error {
	switch frame := in.(type) {
	case *codec.SpawnFrame:
		return d.handleSpawn(channel, frame)
	case *codec.StartFrame:
		return d.handleStart(channel, frame)
	case *codec.StopFrame:
		return d.handleStop(channel, frame)
	case *codec.PauseFrame:
		return d.handlePause(channel, frame)
	case *codec.KillFrame:
		return d.handleKill(channel, frame)
	case *codec.DisconnectFrame:
		return d.handleDisconnectFrame(channel)
	default:
		return &UnexpectedFrameError{Frame: in}
	}
}

func (d *Daemon) handleSpawn(channel peer.Channel, frame *codec.SpawnFrame) error {

	kind := runner.Kind(frame.Kind)
	if _, ok := d.registry.Lookup(kind); !ok {
		return &UnknownRunnerKindError{Kind: frame.Kind}
	}

	var pidBox int32
	callbacks := worker.Callbacks{
		OnDebug:    func(line string) { d.onDebug(pidBox, line) },
		OnFinished: func() { d.onFinished(pidBox) },
		OnBroken:   func() { d.onBroken(pidBox) },
	}

	h, pid, err := worker.Launch(kind, callbacks, d.ack, d.readyTimeout)
	if err != nil {
		return &SpawnFailureError{Cause: err}
	}
	pidBox = pid

	entry := &workerEntry{id: pid, owner: channel, kind: kind, handle: h, state: StateIdle}

	d.mu.Lock()
	d.workers[pid] = entry
	d.mu.Unlock()

	if owned := ownedWorkersOf(channel); owned != nil {
		owned.Add(pid)
	}

	logging.Info("scriptd: spawned worker %d (kind %s) for %s.", pid, kind.String(), channel.Remote().String())

	return channel.Send(&codec.WorkerFrame{Pid: pid})
}

func (d *Daemon) handleStart(channel peer.Channel, frame *codec.StartFrame) error {
	entry, err := d.resolveOwned(channel, frame.Pid)
	if err != nil {
		return err
	}
	entry.setState(StateRunning)
	entry.handle.Start(frame.Program)
	return nil
}

func (d *Daemon) handleStop(channel peer.Channel, frame *codec.StopFrame) error {
	entry, err := d.resolveOwned(channel, frame.Pid)
	if err != nil {
		return err
	}
	entry.handle.Stop()
	return nil
}

func (d *Daemon) handlePause(channel peer.Channel, frame *codec.PauseFrame) error {
	entry, err := d.resolveOwned(channel, frame.Pid)
	if err != nil {
		return err
	}
	entry.handle.Pause()
	return nil
}

func (d *Daemon) handleKill(channel peer.Channel, frame *codec.KillFrame) error {
	entry, err := d.resolveOwned(channel, frame.Pid)
	if err != nil {
		return err
	}
	d.removeWorker(entry.id)
	grace := d.killGrace
	parallel.NewGoroutine(func() { entry.handle.Kill(grace) }).Start()
	return nil
}

func (d *Daemon) handleDisconnectFrame(channel peer.Channel) error {
	d.cascadeKill(channel)
	channel.Close()
	return nil
}

// resolveOwned enforces §4.2's ownership rule (Open Question 1): a command
// referencing an absent or unowned WorkerId is an UnknownWorkerError,
// terminating the connection via ChannelError.
func (d *Daemon) resolveOwned(channel peer.Channel, pid int32) (*workerEntry, error) {
	d.mu.RLock()
	entry, ok := d.workers[pid]
	d.mu.RUnlock()
	if !ok || entry.owner != channel {
		return nil, &UnknownWorkerError{Pid: pid}
	}
	return entry, nil
}

func (d *Daemon) removeWorker(pid int32) *workerEntry {
	d.mu.Lock()
	entry, ok := d.workers[pid]
	if ok {
		delete(d.workers, pid)
	}
	d.mu.Unlock()
	if entry != nil {
		if owned := ownedWorkersOf(entry.owner); owned != nil {
			owned.Remove(pid)
		}
	}
	return entry
}

func (d *Daemon) cascadeKill(channel peer.Channel) {
	owned := ownedWorkersOf(channel)
	if owned == nil {
		return
	}
	var ids []int32
	owned.Range(func(element interface{}) bool {
		if pid, ok := element.(int32); ok {
			ids = append(ids, pid)
		}
		return true
	})
	for _, pid := range ids {
		if entry := d.removeWorker(pid); entry != nil {
			entry.handle.Kill(d.killGrace)
		}
	}
}

func (d *Daemon) onDebug(pid int32, line string) {
	entry := d.lookup(pid)
	if entry == nil {
		return
	}
	entry.owner.SendFuture(&codec.DebugFrame{Pid: pid, Msg: line}, nil)
}

func (d *Daemon) onFinished(pid int32) {
	entry := d.lookup(pid)
	if entry == nil {
		return
	}
	entry.setState(StateFinished)
	entry.owner.SendFuture(&codec.FinishedFrame{Pid: pid}, nil)
}

// onBroken implements the PipeBroken error policy (§7): synthesize
// FINISHED, reap the handle, remove it from every index.
func (d *Daemon) onBroken(pid int32) {
	entry := d.removeWorker(pid)
	if entry == nil {
		return
	}
	logging.Warn("scriptd: worker %d pipe closed unexpectedly.", pid)
	entry.owner.SendFuture(&codec.FinishedFrame{Pid: pid}, nil)
}

func (d *Daemon) lookup(pid int32) *workerEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.workers[pid]
}

// houseKeep is the §11.4 periodic tick: logs active worker counts and reaps
// any handle whose subprocess has already exited without its OnBroken
// callback having run yet. This is a defensive backstop, not the primary
// reap path, which is event-driven (§9).
func (d *Daemon) houseKeep() {

	d.mu.RLock()
	entries := make([]*workerEntry, 0, len(d.workers))
	for _, entry := range d.workers {
		entries = append(entries, entry)
	}
	d.mu.RUnlock()

	logging.Info("scriptd: housekeeping tick, %d active worker(s).", len(entries))

	for _, entry := range entries {
		if entry.handle.Exited() {
			if removed := d.removeWorker(entry.id); removed != nil {
				logging.Warn("scriptd: worker %d exited without a clean notification; reaped by housekeeping.", entry.id)
				removed.owner.SendFuture(&codec.FinishedFrame{Pid: entry.id}, nil)
			}
		}
	}
}

func ownedWorkersOf(channel peer.Channel) util.Set {
	if channel == nil {
		return nil
	}
	if v := channel.GetContext(ownedWorkersKey); v != nil {
		if set, ok := v.(util.Set); ok {
			return set
		}
	}
	return nil
}
