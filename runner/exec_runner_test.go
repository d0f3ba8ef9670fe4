package runner

import "testing"

func TestExecRunnerStopBeforeStartEmitsDebugLine(t *testing.T) {

	var lines []string
	sink := DebugSink(func(line string) { lines = append(lines, line) })

	r := NewPSRunner(sink)
	r.Stop()

	if len(lines) != 1 || lines[0] != "stop requested before start; ignored" {
		t.Fatalf("unexpected debug output for a pre-start Stop: %v", lines)
	}
}

func TestExecRunnerPauseIsUnsupported(t *testing.T) {

	var lines []string
	sink := DebugSink(func(line string) { lines = append(lines, line) })

	r := NewPYRunner(sink)
	r.Pause()

	if len(lines) != 1 || lines[0] != "pause is not supported by this runner" {
		t.Fatalf("unexpected debug output for Pause: %v", lines)
	}
}
