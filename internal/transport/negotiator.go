// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package transport

import (
	"fmt"
	"io"
	"net"
)

// Negotiator exchanges bytes over an accepted connection. It owns the
// connection for the duration of Negotiate and closes it before returning.
type Negotiator interface {
	Negotiate(conn net.Conn) error
}

// Producer writes bytes for the engine to read. The writer is only valid
// until the producer returns.
type Producer func(w io.Writer) error

// Consumer reads bytes the engine wrote. The reader is only valid until the
// consumer returns.
type Consumer func(r io.Reader) error

type streamOut struct {
	produce Producer
}

// StreamOut returns a negotiator for endpoints the engine reads from.
func StreamOut(produce Producer) Negotiator {
	return &streamOut{produce: produce}
}

// FromReader copies r into the connection.
func FromReader(r io.Reader) Negotiator {
	return StreamOut(func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func (s *streamOut) Negotiate(conn net.Conn) error {
	defer conn.Close()

	if err := s.produce(conn); err != nil {
		return fmt.Errorf("stream out: %w", err)
	}
	// half-close so the engine sees EOF before we tear the socket down
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil && !IsPeerClosed(err) {
			return fmt.Errorf("stream out: %w", err)
		}
	}
	return nil
}

type streamIn struct {
	consume Consumer
}

// StreamIn returns a negotiator for endpoints the engine writes to.
func StreamIn(consume Consumer) Negotiator {
	return &streamIn{consume: consume}
}

// ToWriter copies everything from the connection into w.
func ToWriter(w io.Writer) Negotiator {
	return StreamIn(func(r io.Reader) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func (s *streamIn) Negotiate(conn net.Conn) error {
	defer conn.Close()

	if err := s.consume(conn); err != nil {
		return fmt.Errorf("stream in: %w", err)
	}
	return nil
}
