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

	"github.com/benland100/scriptd/buffer"
	"github.com/vmihailenco/msgpack"
)

// IPC message type codes carried in the 2-byte header of an ipcEntity frame.
const (
	IPCTypeStart    uint16 = 1
	IPCTypeStop     uint16 = 2
	IPCTypePause    uint16 = 3
	IPCTypeReady    uint16 = 4
	IPCTypeDebug    uint16 = 5
	IPCTypeFinished uint16 = 6
)

// IPCEntity is the interface every internal worker/daemon control message
// implements, mirroring ApolloEntity's TypeCode convention.
type IPCEntity interface {
	TypeCode() uint16
}

// IPCStart is sent daemon→worker to begin executing a program.
type IPCStart struct {
	Program string
}

func (m *IPCStart) TypeCode() uint16 { return IPCTypeStart }

// IPCStop is sent daemon→worker to request termination.
type IPCStop struct {
}

func (m *IPCStop) TypeCode() uint16 { return IPCTypeStop }

// IPCPause is sent daemon→worker to request suspension.
type IPCPause struct {
}

func (m *IPCPause) TypeCode() uint16 { return IPCTypePause }

// IPCReady is sent worker→daemon once the subprocess has installed its
// runner and is ready to accept control messages. The daemon's bounded
// SPAWN→ready handshake waits for exactly this message.
type IPCReady struct {
	Pid int32
}

func (m *IPCReady) TypeCode() uint16 { return IPCTypeReady }

// IPCDebug is sent worker→daemon carrying one diagnostic line.
type IPCDebug struct {
	Text string
}

func (m *IPCDebug) TypeCode() uint16 { return IPCTypeDebug }

// IPCFinished is sent worker→daemon exactly once when a started program
// completes.
type IPCFinished struct {
}

func (m *IPCFinished) TypeCode() uint16 { return IPCTypeFinished }

func newIPCEntity(typeCode uint16) IPCEntity {
	switch typeCode {
	case IPCTypeStart:
		return new(IPCStart)
	case IPCTypeStop:
		return new(IPCStop)
	case IPCTypePause:
		return new(IPCPause)
	case IPCTypeReady:
		return new(IPCReady)
	case IPCTypeDebug:
		return new(IPCDebug)
	case IPCTypeFinished:
		return new(IPCFinished)
	default:
		return nil
	}
}

// ipcTLVConfig is the fixed TLV tag shared by every IPC frame. Unlike the
// external wire protocol, this envelope is entirely internal to a daemon
// process tree, so there is no compatibility reason to vary it.
var ipcTLVConfig = TLVConfig{TagValue: 0xA1}

// IPCFrameDecoder is a bytes to IPCEntity decoder based on TLVFrameDecoder,
// using MessagePack for payload deserialization. Modeled directly on
// ApolloFrameDecoder, retargeted at the closed set of IPC message types
// instead of an open, caller-registered entity table.
//  +----------+-----------+---------------------------+
//  |    TAG   |  LENGTH   |           VALUE           |
//  | (1 byte) | (4 bytes) |   2 bytes   | serialized  |
//  |          |           |  type code  |    data     |
//  +----------+-----------+---------------------------+
type IPCFrameDecoder struct {
	tlvDecoder FrameDecoder
}

func (d *IPCFrameDecoder) Decode(in buffer.ByteBuf) (interface{}, error) {

	if in.ReadableBytes() == 0 {
		return nil, nil
	}

	d.initTLVDecoder()
	tlvPayload, tlvErr := d.tlvDecoder.Decode(in)
	if tlvPayload == nil && tlvErr == nil {
		return nil, nil
	}
	if tlvErr != nil {
		return nil, NewDecodeError("IPCFrameDecoder", tlvErr.Error())
	}

	payloadBuf := buffer.NewElasticUnsafeByteBuf(len(tlvPayload.([]byte)))
	payloadBuf.WriteBytes(tlvPayload.([]byte))

	if payloadBuf.ReadableBytes() < 2 {
		return nil, NewDecodeError("IPCFrameDecoder", "illegal payload")
	}
	var typeCode uint16
	binary.Read(payloadBuf, binary.BigEndian, &typeCode)

	serialized := payloadBuf.ReadBytes(payloadBuf.ReadableBytes())
	entity := newIPCEntity(typeCode)
	if entity == nil {
		return nil, NewDecodeError("IPCFrameDecoder", "unknown ipc type code")
	}
	if err := msgpack.Unmarshal(serialized, entity); err != nil {
		return nil, NewDecodeError("IPCFrameDecoder", err.Error())
	}
	return entity, nil
}

func (d *IPCFrameDecoder) initTLVDecoder() {
	if d.tlvDecoder == nil {
		d.tlvDecoder = NewTLVFrameDecoder(ipcTLVConfig)
	}
}

// NewIPCFrameDecoder creates a new IPCFrameDecoder instance.
func NewIPCFrameDecoder() FrameDecoder {
	return &IPCFrameDecoder{}
}

// IPCFrameEncoder is an IPCEntity to bytes encoder based on TLVFrameEncoder,
// the write-side counterpart of IPCFrameDecoder.
type IPCFrameEncoder struct {
	tlvEncoder FrameEncoder
}

func (e *IPCFrameEncoder) Encode(msg interface{}) ([]byte, error) {

	entity, ok := msg.(IPCEntity)
	if !ok {
		return nil, NewEncodeError("IPCFrameEncoder", "message is not an IPCEntity")
	}

	marshaled, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, NewEncodeError("IPCFrameEncoder", err.Error())
	}

	payloadBuf := buffer.NewElasticUnsafeByteBuf(2 + len(marshaled))
	binary.Write(payloadBuf, binary.BigEndian, entity.TypeCode())
	payloadBuf.WriteBytes(marshaled)

	e.initTLVEncoder()
	frameBytes, err := e.tlvEncoder.Encode(payloadBuf.ReadBytes(payloadBuf.ReadableBytes()))
	if err != nil {
		return nil, NewEncodeError("IPCFrameEncoder", err.Error())
	}
	return frameBytes, nil
}

func (e *IPCFrameEncoder) initTLVEncoder() {
	if e.tlvEncoder == nil {
		e.tlvEncoder = NewTLVFrameEncoder(ipcTLVConfig)
	}
}

// NewIPCFrameEncoder creates a new IPCFrameEncoder instance.
func NewIPCFrameEncoder() FrameEncoder {
	return &IPCFrameEncoder{}
}
