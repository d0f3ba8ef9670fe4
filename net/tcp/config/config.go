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

package config

import (
	"net"
	"time"
)

// TCPConfig carries socket options applied to every accepted or dialed
// connection via TryApplyTCPConfig.
type TCPConfig struct {
	KeepAlive      bool
	KeepAlivePeriod time.Duration
	NoDelay        bool
}

// ServerConfig carries the address and acceptor tuning for PipelineServer.
type ServerConfig struct {
	TCPConfig
	IP           net.IP
	Port         int
	AcceptorSize uint8
}

// ClientConfig carries the remote address and dial tuning for PipelineClient.
type ClientConfig struct {
	TCPConfig
	IP      net.IP
	Port    int
	Timeout time.Duration
}

// TryApplyTCPConfig applies the socket options described by cfg to conn.
// A nil cfg or conn is a no-op.
func TryApplyTCPConfig(cfg *TCPConfig, conn *net.TCPConn) {
	if cfg == nil || conn == nil {
		return
	}
	conn.SetNoDelay(cfg.NoDelay)
	if cfg.KeepAlive {
		conn.SetKeepAlive(true)
		if cfg.KeepAlivePeriod > 0 {
			conn.SetKeepAlivePeriod(cfg.KeepAlivePeriod)
		}
	} else {
		conn.SetKeepAlive(false)
	}
}
