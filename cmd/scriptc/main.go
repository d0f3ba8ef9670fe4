// Command scriptc is a reference client for scriptd (§6/§8): it spawns one
// worker, starts a program on it, prints each DEBUG line as it arrives and
// waits for FINISHED; if FINISHED does not arrive within the -t timeout it
// sends STOP. It then sends DISCONNECT. Grounded on the teacher's own demo
// TCP client shape - flag-parsed CLI, a FunctionalPipelineInitializer, and the
// inherited peer.AckManager for request/response correlation, here keyed on
// the worker pid instead of a random message id.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benland100/scriptd/logging"
	"github.com/benland100/scriptd/net/tcp"
	"github.com/benland100/scriptd/net/tcp/codec"
	"github.com/benland100/scriptd/net/tcp/config"
	"github.com/benland100/scriptd/net/tcp/peer"
	"github.com/benland100/scriptd/runner"
)

var ackManager = peer.NewAckManager()

func main() {

	address := flag.String("h", "localhost:8000", "scriptd address")
	kindFlag := flag.Int("k", int(runner.PS), "runner kind (0=ps 1=py 2=cpas)")
	programFlag := flag.String("f", "", "path to a program file to run (required)")
	timeout := flag.Duration("t", 10*time.Second, "time to wait for FINISHED before stopping")
	debug := flag.Bool("d", false, "debug")
	help := flag.Bool("help", false, "show usage")
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if *debug {
		logging.SetLogLevel(logging.LDebug)
	} else {
		logging.SetLogLevel(logging.LInfo)
	}

	if *programFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: scriptc -f <program-file> [-h host:port] [-k kind]")
		os.Exit(1)
	}

	program, err := os.ReadFile(*programFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptc: cannot read program file:", err.Error())
		os.Exit(1)
	}

	hostParts := strings.Split(*address, ":")
	clientConfig := config.ClientConfig{}
	clientConfig.IP = net.ParseIP(hostParts[0])
	clientConfig.Port, _ = strconv.Atoi(hostParts[1])

	finished := make(chan struct{}, 1)

	client := tcp.NewPipelineClient(clientConfig, initInitializer(finished))
	if err := client.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "scriptc: cannot connect:", err.Error())
		os.Exit(1)
	}
	defer client.Sync()
	defer client.Stop()

	const spawnKey = "spawn"
	ackManager.InitAck(spawnKey)
	if err := client.Send(&codec.SpawnFrame{Kind: uint8(*kindFlag)}); err != nil {
		fmt.Fprintln(os.Stderr, "scriptc: cannot send SPAWN:", err.Error())
		os.Exit(1)
	}

	data, err := ackManager.WaitAck(spawnKey, 5*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptc: no WORKER reply:", err.Error())
		os.Exit(1)
	}
	pid := data.(int32)
	logging.Info("scriptc: worker %d spawned.", pid)

	if err := client.Send(&codec.StartFrame{Pid: pid, Program: string(program)}); err != nil {
		fmt.Fprintln(os.Stderr, "scriptc: cannot send START:", err.Error())
		os.Exit(1)
	}

	select {
	case <-finished:
		logging.Info("scriptc: worker %d finished.", pid)
	case <-time.After(*timeout):
		logging.Warn("scriptc: timed out waiting for worker %d, stopping it.", pid)
		client.Send(&codec.StopFrame{Pid: pid})
	}

	client.Send(&codec.DisconnectFrame{})
}

func initInitializer(finished chan<- struct{}) peer.PipelineInitializer {
	initializer := peer.FunctionalPipelineInitializer{}

	initializer.DecoderInit = func() codec.FrameDecoder { return codec.NewScriptFrameDecoder() }
	initializer.EncoderInit = func() codec.FrameEncoder { return codec.NewScriptFrameEncoder() }
	initializer.HandlerInit = func() peer.ChannelHandler { return initHandler(finished) }

	return &initializer
}

func initHandler(finished chan<- struct{}) peer.ChannelHandler {
	handler := peer.FunctionalChannelHandler{}

	handler.HandleRead = func(channel peer.Channel, in interface{}) error {
		switch frame := in.(type) {
		case *codec.WorkerFrame:
			ackManager.CommitAck("spawn", frame.Pid)
		case *codec.DebugFrame:
			fmt.Printf("[worker %d] %s\n", frame.Pid, frame.Msg)
		case *codec.FinishedFrame:
			select {
			case finished <- struct{}{}:
			default:
			}
		case *codec.ErrorFrame:
			fmt.Fprintln(os.Stderr, "scriptd error:", frame.Why)
		}
		return nil
	}

	handler.HandleError = func(channel peer.Channel, err error) {
		logging.Warn("scriptc: connection error: %s", err.Error())
	}

	return &handler
}
