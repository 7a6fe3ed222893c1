// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	ErrEndpointReused    = errors.New("endpoint already served")
	ErrEndpointClosed    = errors.New("endpoint closed")
	ErrNeverConnected    = errors.New("peer never connected")
	ErrSupervisorStarted = errors.New("supervisor already started")
)

// EndpointError describes a failed accept or negotiation on an endpoint
type EndpointError struct {
	Op   string // "listen", "accept" or "negotiate"
	Addr string
	Err  error
}

func (e *EndpointError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("endpoint %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("endpoint %s: %v", e.Op, e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// IsPeerClosed reports whether err means the remote side went away while
// bytes were still being exchanged.
func IsPeerClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return false
}
