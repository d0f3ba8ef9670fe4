// Command scriptd is the script-execution daemon (§6). Run bare to listen
// on the default port, `scriptd <port>` to pick a different one; extra
// arguments are a usage error.
//
// scriptd re-execs itself as a worker subprocess via the hidden
// worker.WorkerModeFlag flag (§9) - this is not a user-facing mode and is
// never reached except through worker.Launch's re-exec on SPAWN.
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"os"
	"strconv"

	"github.com/benland100/scriptd/config"
	"github.com/benland100/scriptd/daemon"
	"github.com/benland100/scriptd/logging"
	"github.com/benland100/scriptd/runner"
	"github.com/benland100/scriptd/worker"
)

// consoleLogger is the minimal logging.Logger sink the daemon registers on
// startup. The teacher's own demo programs drive logging.SetLogLevel and
// logging.Info/.../Error without ever registering a Logger (LoggerProxy's
// loggers map stays empty, so their log lines go nowhere); scriptd is meant
// to run unattended, so it wires one sink rather than reproducing that.
type consoleLogger struct{}

func (consoleLogger) Trace(format string, args ...interface{}) { stdlog.Printf("TRACE "+format, args...) }
func (consoleLogger) Debug(format string, args ...interface{}) { stdlog.Printf("DEBUG "+format, args...) }
func (consoleLogger) Info(format string, args ...interface{})  { stdlog.Printf("INFO "+format, args...) }
func (consoleLogger) Warn(format string, args ...interface{})  { stdlog.Printf("WARN "+format, args...) }
func (consoleLogger) Error(format string, args ...interface{}) { stdlog.Printf("ERROR "+format, args...) }

func main() {
	if len(os.Args) >= 2 && os.Args[1] == worker.WorkerModeFlag {
		runWorker(os.Args[2:])
		return
	}
	runDaemon()
}

func runWorker(args []string) {

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "scriptd: malformed worker-mode invocation")
		os.Exit(1)
	}

	kindValue, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptd: malformed worker kind:", args[0])
		os.Exit(1)
	}

	factory, ok := runner.DefaultRegistry().Lookup(runner.Kind(kindValue))
	if !ok {
		fmt.Fprintln(os.Stderr, "scriptd: unknown runner kind:", kindValue)
		os.Exit(1)
	}

	// The daemon inherits one end of a UNIX socketpair as our first extra
	// file, which lands at fd 3 (0/1/2 are stdin/stdout/stderr).
	conn, err := net.FileConn(os.NewFile(3, "scriptd-ipc"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptd: cannot wrap inherited ipc descriptor:", err.Error())
		os.Exit(1)
	}

	process, err := worker.NewProcess(int32(os.Getpid()), conn, factory)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptd: cannot start worker process:", err.Error())
		os.Exit(1)
	}

	if err := process.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "scriptd: worker process stopped with error:", err.Error())
		os.Exit(1)
	}
}

func runDaemon() {

	port := flag.Int("p", 0, "port to listen (0 uses the settings file or default)")
	settingsPath := flag.String("c", "", "optional YAML settings file")
	debug := flag.Bool("d", false, "debug")
	help := flag.Bool("help", false, "show usage")
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	positional := flag.Args()
	if len(positional) > 1 {
		fmt.Fprintln(os.Stderr, "usage: scriptd [port]")
		os.Exit(1)
	}

	logging.AddLogger("console", consoleLogger{})
	if *debug {
		logging.SetLogLevel(logging.LDebug)
	} else {
		logging.SetLogLevel(logging.LInfo)
	}

	cfg, err := config.LoadDaemonConfig(*settingsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scriptd: cannot load settings:", err.Error())
		os.Exit(1)
	}

	switch {
	case len(positional) == 1:
		parsedPort, err := strconv.Atoi(positional[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "usage: scriptd [port]")
			os.Exit(1)
		}
		cfg.Port = parsedPort
	case *port != 0:
		cfg.Port = *port
	}

	d := daemon.New(cfg, runner.DefaultRegistry())
	if err := d.Start(); err != nil {
		logging.Error("scriptd: cannot start cause %s.", err.Error())
		os.Exit(1)
	}
	logging.Info("scriptd: listening on port %d.", cfg.Port)

	d.Sync()
}
