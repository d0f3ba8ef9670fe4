// The MIT License (MIT)
//
// Copyright (c) 2018 Mervin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/benland100/scriptd/buffer"
)

// Opcode values for the script daemon wire protocol.
//
// Every frame starts with one opcode byte; the remaining payload shape is
// opcode-determined. Integers are little-endian, fixed width (1 or 4 bytes).
// A string argument is a 4-byte signed length followed by exactly that many
// raw bytes, no terminator.
//
// Opcodes 5 and 6 are reserved for a future stdout/stderr split of DEBUG and
// must be rejected as unknown; this decoder does not tolerate them.
const (
	OpSpawn      uint8 = 0
	OpWorker     uint8 = 1
	OpStart      uint8 = 2
	OpStop       uint8 = 3
	OpPause      uint8 = 4
	OpDisconnect uint8 = 7
	OpError      uint8 = 8
	OpKill       uint8 = 9
	OpFinished   uint8 = 10
	OpDebug      uint8 = 11
)

// SpawnFrame is the C→D request to create a worker of the given kind.
type SpawnFrame struct {
	Kind uint8
}

// WorkerFrame is the D→C reply announcing the id of a freshly spawned worker.
type WorkerFrame struct {
	Pid int32
}

// StartFrame is the C→D request to run a program on an existing worker.
type StartFrame struct {
	Pid     int32
	Program string
}

// StopFrame is the C→D request to stop a worker. Best-effort; no reply.
type StopFrame struct {
	Pid int32
}

// PauseFrame is the C→D request to pause a worker. Best-effort; no reply.
type PauseFrame struct {
	Pid int32
}

// DisconnectFrame is the C→D request for an orderly session teardown.
type DisconnectFrame struct {
}

// ErrorFrame is the D→C notice that the daemon is closing the connection.
type ErrorFrame struct {
	Why string
}

// KillFrame is the C→D request to forcibly terminate a worker.
type KillFrame struct {
	Pid int32
}

// FinishedFrame is the D→C notice that a worker's program has completed.
type FinishedFrame struct {
	Pid int32
}

// DebugFrame is a D→C diagnostic line emitted by a worker's runner.
type DebugFrame struct {
	Pid int32
	Msg string
}

// decode stage markers for multi-field frames (START, DEBUG need pid then string).
const (
	scriptStageOpcode = iota
	scriptStageFirstField
	scriptStageSecondField
)

// ScriptFrameDecoder is a streaming decoder for the script daemon wire
// protocol. It persists partial-frame state (which field is mid-parse)
// across Decode calls so a frame split across reads is never dispatched
// before it is complete.
type ScriptFrameDecoder struct {
	stage  int
	opcode uint8

	pid       int32
	hasPid    bool
	strLength int32
	hasStrLen bool
}

func (d *ScriptFrameDecoder) Decode(in buffer.ByteBuf) (interface{}, error) {

	if d.stage == scriptStageOpcode {
		if in.ReadableBytes() == 0 {
			return d.decodeNothing()
		}
		opcode, ok := readUint8(in)
		if !ok {
			return d.decodeNothing()
		}
		d.opcode = opcode
		d.stage = scriptStageFirstField
	}

	switch d.opcode {
	case OpSpawn:
		kind, ok := readUint8(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&SpawnFrame{Kind: kind})

	case OpWorker:
		pid, ok := readInt32(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&WorkerFrame{Pid: pid})

	case OpStart:
		if !d.hasPid {
			pid, ok := readInt32(in)
			if !ok {
				return d.decodeNothing()
			}
			d.pid = pid
			d.hasPid = true
		}
		program, ok, err := d.readLengthPrefixedString(in)
		if err != nil {
			return d.decodeFailure(err.Error())
		}
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&StartFrame{Pid: d.pid, Program: program})

	case OpStop:
		pid, ok := readInt32(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&StopFrame{Pid: pid})

	case OpPause:
		pid, ok := readInt32(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&PauseFrame{Pid: pid})

	case OpDisconnect:
		return d.decodeSuccess(&DisconnectFrame{})

	case OpError:
		why, ok, err := d.readLengthPrefixedString(in)
		if err != nil {
			return d.decodeFailure(err.Error())
		}
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&ErrorFrame{Why: why})

	case OpKill:
		pid, ok := readInt32(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&KillFrame{Pid: pid})

	case OpFinished:
		pid, ok := readInt32(in)
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&FinishedFrame{Pid: pid})

	case OpDebug:
		if !d.hasPid {
			pid, ok := readInt32(in)
			if !ok {
				return d.decodeNothing()
			}
			d.pid = pid
			d.hasPid = true
		}
		msg, ok, err := d.readLengthPrefixedString(in)
		if err != nil {
			return d.decodeFailure(err.Error())
		}
		if !ok {
			return d.decodeNothing()
		}
		return d.decodeSuccess(&DebugFrame{Pid: d.pid, Msg: msg})

	default:
		return d.decodeFailure(fmt.Sprintf("unknown opcode %d", d.opcode))
	}
}

// readLengthPrefixedString parses a 4-byte signed length followed by that
// many raw bytes, persisting the parsed length across calls if the value
// itself has not fully arrived yet.
func (d *ScriptFrameDecoder) readLengthPrefixedString(in buffer.ByteBuf) (result string, ok bool, err error) {

	if !d.hasStrLen {
		length, lenOk := readInt32(in)
		if !lenOk {
			return "", false, nil
		}
		if length < 0 {
			return "", false, fmt.Errorf("negative string length %d", length)
		}
		d.strLength = length
		d.hasStrLen = true
	}

	if in.ReadableBytes() < int(d.strLength) {
		return "", false, nil
	}

	return string(in.ReadBytes(int(d.strLength))), true, nil
}

func (d *ScriptFrameDecoder) resetState() {
	d.stage = scriptStageOpcode
	d.opcode = 0
	d.pid = 0
	d.hasPid = false
	d.strLength = 0
	d.hasStrLen = false
}

func (d *ScriptFrameDecoder) decodeNothing() (interface{}, error) {
	return nil, nil
}

func (d *ScriptFrameDecoder) decodeSuccess(result interface{}) (interface{}, error) {
	d.resetState()
	return result, nil
}

func (d *ScriptFrameDecoder) decodeFailure(cause string) (interface{}, error) {
	d.resetState()
	return nil, NewDecodeError("ScriptFrameDecoder", cause)
}

// NewScriptFrameDecoder creates a new ScriptFrameDecoder instance.
func NewScriptFrameDecoder() FrameDecoder {
	return &ScriptFrameDecoder{}
}

// ScriptFrameEncoder encodes script daemon frame structs (SpawnFrame,
// WorkerFrame, ...) into wire bytes. Every Encode call produces exactly one
// complete frame; writes are all-or-nothing at frame granularity.
type ScriptFrameEncoder struct {
}

func (e *ScriptFrameEncoder) Encode(msg interface{}) ([]byte, error) {

	buf := buffer.NewElasticUnsafeByteBuf(16)

	switch frame := msg.(type) {
	case *SpawnFrame:
		writeUint8(buf, OpSpawn)
		writeUint8(buf, frame.Kind)
	case *WorkerFrame:
		writeUint8(buf, OpWorker)
		writeInt32(buf, frame.Pid)
	case *StartFrame:
		writeUint8(buf, OpStart)
		writeInt32(buf, frame.Pid)
		writeString(buf, frame.Program)
	case *StopFrame:
		writeUint8(buf, OpStop)
		writeInt32(buf, frame.Pid)
	case *PauseFrame:
		writeUint8(buf, OpPause)
		writeInt32(buf, frame.Pid)
	case *DisconnectFrame:
		writeUint8(buf, OpDisconnect)
	case *ErrorFrame:
		writeUint8(buf, OpError)
		writeString(buf, frame.Why)
	case *KillFrame:
		writeUint8(buf, OpKill)
		writeInt32(buf, frame.Pid)
	case *FinishedFrame:
		writeUint8(buf, OpFinished)
		writeInt32(buf, frame.Pid)
	case *DebugFrame:
		writeUint8(buf, OpDebug)
		writeInt32(buf, frame.Pid)
		writeString(buf, frame.Msg)
	default:
		return e.encodeFailure("message is not a recognized script frame")
	}

	return e.encodeSuccess(buf.ReadBytes(buf.ReadableBytes()))
}

func (e *ScriptFrameEncoder) encodeSuccess(result []byte) ([]byte, error) {
	return result, nil
}

func (e *ScriptFrameEncoder) encodeFailure(cause string) ([]byte, error) {
	return nil, NewEncodeError("ScriptFrameEncoder", cause)
}

// NewScriptFrameEncoder creates a new ScriptFrameEncoder instance.
func NewScriptFrameEncoder() FrameEncoder {
	return &ScriptFrameEncoder{}
}

func readUint8(in buffer.ByteBuf) (uint8, bool) {
	if in.ReadableBytes() < 1 {
		return 0, false
	}
	return in.ReadBytes(1)[0], true
}

func readInt32(in buffer.ByteBuf) (int32, bool) {
	if in.ReadableBytes() < 4 {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(in.ReadBytes(4))), true
}

func writeUint8(buf buffer.ByteBuf, v uint8) {
	buf.WriteBytes([]byte{v})
}

func writeInt32(buf buffer.ByteBuf, v int32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	buf.WriteBytes(b)
}

func writeString(buf buffer.ByteBuf, s string) {
	writeInt32(buf, int32(len(s)))
	buf.WriteBytes([]byte(s))
}
