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

package tcp_test

import (
	"net"
	"testing"
	"time"

	"github.com/benland100/scriptd/net/tcp"
	"github.com/benland100/scriptd/net/tcp/codec"
	"github.com/benland100/scriptd/net/tcp/config"
	"github.com/benland100/scriptd/net/tcp/peer"
)

// TestClient drives tcp.Client and tcp.Server against the script daemon wire
// protocol (net/tcp/codec/script.go), the real codec scriptd speaks, rather
// than a demo one: a SPAWN frame sent by the client must arrive at the
// server, which replies with a WORKER frame the client's handler observes.
func TestClient(t *testing.T) {

	serverCfg := config.ServerConfig{}
	serverCfg.IP = net.ParseIP("127.0.0.1")
	serverCfg.Port = 19091
	serverCfg.AcceptorSize = 1

	received := make(chan *codec.SpawnFrame, 1)
	server := tcp.NewPipelineServer(serverCfg, scriptInitializer(func(channel peer.Channel, in interface{}) error {
		if frame, ok := in.(*codec.SpawnFrame); ok {
			received <- frame
			return channel.Send(&codec.WorkerFrame{Pid: 42})
		}
		return nil
	}))
	if err := server.Start(); err != nil {
		t.Fatal(err)
	}
	defer server.Stop()

	clientCfg := config.ClientConfig{}
	clientCfg.IP = net.ParseIP("127.0.0.1")
	clientCfg.Port = 19091

	workerReplies := make(chan *codec.WorkerFrame, 1)
	client := tcp.NewPipelineClient(clientCfg, scriptInitializer(func(channel peer.Channel, in interface{}) error {
		if frame, ok := in.(*codec.WorkerFrame); ok {
			workerReplies <- frame
		}
		return nil
	}))
	if err := client.Start(); err != nil {
		t.Fatal(err)
	}
	defer client.Stop()

	if err := client.Send(&codec.SpawnFrame{Kind: 0}); err != nil {
		t.Fatal(err)
	}

	select {
	case frame := <-received:
		if frame.Kind != 0 {
			t.Fatalf("expected kind 0, got %d", frame.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed the SPAWN frame")
	}

	select {
	case frame := <-workerReplies:
		if frame.Pid != 42 {
			t.Fatalf("expected pid 42, got %d", frame.Pid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never observed the WORKER reply")
	}
}

// scriptInitializer wires the script codec into a pipeline whose HandleRead
// delegates to onRead, for use by both ends of the round trip above.
func scriptInitializer(onRead func(peer.Channel, interface{}) error) peer.PipelineInitializer {
	initializer := peer.FunctionalPipelineInitializer{}

	initializer.DecoderInit = func() codec.FrameDecoder {
		return codec.NewScriptFrameDecoder()
	}
	initializer.EncoderInit = func() codec.FrameEncoder {
		return codec.NewScriptFrameEncoder()
	}
	initializer.HandlerInit = func() peer.ChannelHandler {
		handler := peer.FunctionalChannelHandler{}
		handler.HandleRead = onRead
		return &handler
	}

	return &initializer
}
