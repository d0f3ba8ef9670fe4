package daemon

import "fmt"

// UnexpectedFrameError is returned when a client sends a frame whose opcode
// decodes successfully but is not a valid C→D command (e.g. a server-only
// opcode like WORKER or FINISHED).
type UnexpectedFrameError struct {
	Frame interface{}
}

func (e *UnexpectedFrameError) Error() string {
	return fmt.Sprintf("unexpected frame type %T", e.Frame)
}

// Error kinds from §7, surfaced as typed sentinels rather than bare
// fmt.Errorf strings so a caller can type-switch on them instead of
// string-matching (§10.3).

// UnknownRunnerKindError is returned when a SPAWN names a kind byte with no
// registered factory.
type UnknownRunnerKindError struct {
	Kind uint8
}

func (e *UnknownRunnerKindError) Error() string {
	return fmt.Sprintf("unknown runner kind %d", e.Kind)
}

// UnknownWorkerError is returned when a command references a WorkerId that
// is absent from the daemon's index or not owned by the sending connection.
type UnknownWorkerError struct {
	Pid int32
}

func (e *UnknownWorkerError) Error() string {
	return fmt.Sprintf("unknown worker %d", e.Pid)
}

// SpawnFailureError is returned when the daemon cannot bring up a worker
// subprocess for a SPAWN request; no WORKER reply is sent for it.
type SpawnFailureError struct {
	Cause error
}

func (e *SpawnFailureError) Error() string {
	return fmt.Sprintf("spawn failure: %s", e.Cause.Error())
}

func (e *SpawnFailureError) Unwrap() error {
	return e.Cause
}
