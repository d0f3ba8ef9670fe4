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
	"testing"

	"github.com/benland100/scriptd/buffer"
)

func TestScriptFrameCodecRoundTrip(t *testing.T) {

	encoder := NewScriptFrameEncoder()

	frames := []interface{}{
		&SpawnFrame{Kind: 1},
		&WorkerFrame{Pid: 4242},
		&StartFrame{Pid: 4242, Program: "writeln('hello');"},
		&StopFrame{Pid: 4242},
		&PauseFrame{Pid: 4242},
		&DisconnectFrame{},
		&ErrorFrame{Why: "unknown worker 9"},
		&KillFrame{Pid: 4242},
		&FinishedFrame{Pid: 4242},
		&DebugFrame{Pid: 4242, Msg: "line one"},
	}

	byteBuffer := buffer.NewElasticUnsafeByteBuf(1024)
	for _, frame := range frames {
		encoded, err := encoder.Encode(frame)
		if err != nil {
			t.Fatal(err)
		}
		byteBuffer.WriteBytes(encoded)
	}

	decoder := NewScriptFrameDecoder()
	var decoded []interface{}
	for {
		result, err := decoder.Decode(byteBuffer)
		if err != nil {
			t.Fatal(err)
		}
		if result == nil {
			break
		}
		decoded = append(decoded, result)
	}

	if len(decoded) != len(frames) {
		t.Fatalf("expected %d decoded frames, got %d", len(frames), len(decoded))
	}

	start, ok := decoded[2].(*StartFrame)
	if !ok || start.Program != "writeln('hello');" {
		t.Fatal("StartFrame did not round-trip its program text:", decoded[2])
	}

	debug, ok := decoded[9].(*DebugFrame)
	if !ok || debug.Msg != "line one" || debug.Pid != 4242 {
		t.Fatal("DebugFrame did not round-trip:", decoded[9])
	}
}

func TestScriptFrameDecoderPartialFrame(t *testing.T) {

	encoder := NewScriptFrameEncoder()
	encoded, err := encoder.Encode(&StartFrame{Pid: 7, Program: "print 1"})
	if err != nil {
		t.Fatal(err)
	}

	decoder := NewScriptFrameDecoder()
	byteBuffer := buffer.NewElasticUnsafeByteBuf(len(encoded))

	// Feed the frame one byte at a time; the decoder must keep returning
	// (nil, nil) until every byte of the frame has arrived.
	for i := 0; i < len(encoded)-1; i++ {
		byteBuffer.WriteBytes(encoded[i : i+1])
		result, decodeErr := decoder.Decode(byteBuffer)
		if decodeErr != nil {
			t.Fatal(decodeErr)
		}
		if result != nil {
			t.Fatalf("decoder produced a frame early, after %d/%d bytes", i+1, len(encoded))
		}
	}

	byteBuffer.WriteBytes(encoded[len(encoded)-1:])
	result, decodeErr := decoder.Decode(byteBuffer)
	if decodeErr != nil {
		t.Fatal(decodeErr)
	}
	start, ok := result.(*StartFrame)
	if !ok || start.Pid != 7 || start.Program != "print 1" {
		t.Fatal("unexpected decode result after final byte:", result)
	}
}

func TestScriptFrameDecoderRejectsReservedOpcode(t *testing.T) {

	decoder := NewScriptFrameDecoder()
	byteBuffer := buffer.NewElasticUnsafeByteBuf(1)
	byteBuffer.WriteBytes([]byte{5})

	if _, err := decoder.Decode(byteBuffer); err == nil {
		t.Fatal("expected an error decoding reserved opcode 5")
	}
}
