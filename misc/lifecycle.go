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

package misc

// Lifecycle is the interface wraps methods for components with a start/stop FSM,
// such as Pipeline, Server, Client and Acceptor.
type Lifecycle interface {
	// Start the component. Calling Start more than once while already running
	// is a no-op for well-behaved implementations.
	Start() error
	// Stop the component and release any resource it owns.
	Stop()
	// IsRunning returns true between a successful Start and the matching Stop.
	IsRunning() bool
}

// Sync is the interface wraps the method for blocking the caller goroutine
// until a component has stopped.
type Sync interface {
	Sync()
}

// Close is the interface wraps the basic Close method for components which
// hold a closable resource (a socket, a pipe, a file descriptor).
type Close interface {
	Close()
}
