package runner

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/benland100/scriptd/parallel"
)

// CPASInterpreter is the binary invoked to execute a CPAS-kind program. The
// real native Pascal runner loads a shared library and calls into it from a
// dedicated thread; that library and its cgo/dlopen bridge are out of scope
// here, so this stands in for it by running an external interpreter on a
// dedicated goroutine, preserving the threading contract (control messages
// keep being serviced on the pipe's single sender) without the dynamic
// library itself.
var CPASInterpreter = "instantfpc"

// cpasRunner is the CPAS runner. Unlike execRunner's plain goroutine, the
// blocking wait runs on a parallel.Goroutine of its own, mirroring the
// dedicated-thread note in the runner capability's native-lib section.
type cpasRunner struct {
	sink DebugSink

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (r *cpasRunner) Start(program string, onFinished func()) error {

	scriptFile, err := ioutil.TempFile("", "scriptd-cpas-*.pas")
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}
	scriptPath := scriptFile.Name()
	if _, err := scriptFile.WriteString(program); err != nil {
		scriptFile.Close()
		os.Remove(scriptPath)
		return fmt.Errorf("write scratch file: %w", err)
	}
	scriptFile.Close()

	cmd := exec.Command(CPASInterpreter, scriptPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(scriptPath)
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		os.Remove(scriptPath)
		return err
	}

	if err := cmd.Start(); err != nil {
		os.Remove(scriptPath)
		return err
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go r.pump(stdout, &wg)
	go r.pump(stderr, &wg)

	execThread := parallel.NewGoroutine(func() {
		wg.Wait()
		cmd.Wait()
		os.Remove(scriptPath)
		if onFinished != nil {
			onFinished()
		}
	})
	execThread.Start()

	return nil
}

func (r *cpasRunner) pump(rc io.ReadCloser, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		r.sink(scanner.Text())
	}
}

func (r *cpasRunner) Stop() {
	r.mu.Lock()
	cmd := r.cmd
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		r.sink("stop requested before start; ignored")
		return
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		r.sink(fmt.Sprintf("runner cannot honor stop: %s", err.Error()))
	}
}

func (r *cpasRunner) Pause() {
	r.sink("pause is not supported by this runner")
}

// NewCPASRunner constructs the CPAS (native Pascal via dynamic library)
// runner.
func NewCPASRunner(sink DebugSink) Runner {
	return &cpasRunner{sink: sink}
}
