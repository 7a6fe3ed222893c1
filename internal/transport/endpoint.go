// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析
//
// Package transport exchanges raw media bytes with an engine process over
// one-shot loopback sockets instead of named pipes or temporary files.

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// State of an endpoint. Transitions only go forward:
// listening -> connected -> closed, or listening -> closed.
type State int32

const (
	StateListening State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Endpoint is a single-use loopback listener. It accepts exactly one
// connection and hands it to its negotiator.
type Endpoint struct {
	listener   *net.TCPListener
	negotiator Negotiator
	logger     logger.Logger

	state  atomic.Int32
	served atomic.Bool

	abort struct {
		cause   error
		expired bool
		conn    net.Conn
		lock    sync.Mutex
	}
}

// NewEndpoint binds a listener on 127.0.0.1 with an OS-assigned port. The
// address is available as soon as this returns.
func NewEndpoint(n Negotiator, log logger.Logger) (*Endpoint, error) {
	if n == nil {
		return nil, fmt.Errorf("no negotiator given")
	}
	if log == nil {
		log = logger.Discard()
	}

	l, err := net.ListenTCP("tcp4", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		return nil, &EndpointError{Op: "listen", Err: err}
	}

	e := &Endpoint{
		listener:   l,
		negotiator: n,
	}
	e.logger = log.WithField("endpoint", e.AddressAndPort())
	e.state.Store(int32(StateListening))
	e.logger.Debug("listening")

	return e, nil
}

// AddressAndPort returns "127.0.0.1:<port>".
func (e *Endpoint) AddressAndPort() string {
	return e.listener.Addr().String()
}

// Address returns a URL for the engine's argument list, e.g.
// Address("tcp", "?timeout=5000000").
func (e *Endpoint) Address(scheme, suffix string) string {
	return scheme + "://" + e.AddressAndPort() + suffix
}

// State returns the current lifecycle state.
func (e *Endpoint) State() State {
	return State(e.state.Load())
}

// Serve blocks until one peer connects, runs the negotiator on that
// connection and closes the listener. It can only be called once.
// Cancelling ctx closes the listener and any in-flight connection.
func (e *Endpoint) Serve(ctx context.Context) error {
	if e.served.Swap(true) {
		return &EndpointError{Op: "accept", Addr: e.AddressAndPort(), Err: ErrEndpointReused}
	}
	defer e.Close()

	stop := context.AfterFunc(ctx, func() {
		e.Abort(ctx.Err())
	})
	defer stop()

	conn, err := e.listener.Accept()
	if err != nil {
		return &EndpointError{Op: "accept", Addr: e.AddressAndPort(), Err: e.cause(err)}
	}

	// the state change and the conn hand-off happen under the abort lock so
	// an Abort either sees the conn or makes this CAS fail
	e.abort.lock.Lock()
	connected := e.abort.cause == nil && e.state.CompareAndSwap(int32(StateListening), int32(StateConnected))
	if connected {
		e.abort.conn = conn
	}
	e.abort.lock.Unlock()

	if !connected {
		conn.Close()
		return &EndpointError{Op: "accept", Addr: e.AddressAndPort(), Err: e.cause(ErrEndpointClosed)}
	}
	// only one peer is ever expected; refuse the rest
	e.listener.Close()

	e.logger.Debug("peer connected from %s", conn.RemoteAddr())

	if err := e.negotiator.Negotiate(conn); err != nil {
		return &EndpointError{Op: "negotiate", Addr: e.AddressAndPort(), Err: e.cause(err)}
	}

	e.logger.Debug("negotiation done")
	return nil
}

// Abort closes the listener and any accepted connection. A blocked Serve
// returns with cause as its error.
func (e *Endpoint) Abort(cause error) {
	if cause == nil {
		cause = ErrEndpointClosed
	}

	e.abort.lock.Lock()
	if e.abort.cause == nil {
		e.abort.cause = cause
	}
	conn := e.abort.conn
	e.state.Store(int32(StateClosed))
	e.abort.lock.Unlock()

	e.listener.Close()
	if conn != nil {
		conn.Close()
	}
}

// Expire tells a still-listening endpoint that its peer has gone. A
// connection already queued within grace is still accepted; otherwise Serve
// fails with ErrNeverConnected. It reports whether the endpoint was listening.
func (e *Endpoint) Expire(grace time.Duration) bool {
	e.abort.lock.Lock()
	defer e.abort.lock.Unlock()

	if e.State() != StateListening {
		return false
	}
	e.abort.expired = true
	e.listener.SetDeadline(time.Now().Add(grace))
	return true
}

// Close releases the listener. It is safe to call more than once.
func (e *Endpoint) Close() error {
	e.state.Store(int32(StateClosed))
	err := e.listener.Close()
	if err != nil && !IsPeerClosed(err) {
		return err
	}
	return nil
}

func (e *Endpoint) cause(err error) error {
	e.abort.lock.Lock()
	defer e.abort.lock.Unlock()

	if e.abort.cause != nil {
		return e.abort.cause
	}
	if e.abort.expired && errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrNeverConnected
	}
	return err
}
