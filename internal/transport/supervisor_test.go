// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorRoundTrip(t *testing.T) {
	var sink bytes.Buffer
	var sinkLock sync.Mutex

	s := NewSupervisor(nil)
	in, err := s.Add(FromReader(strings.NewReader("raw frames")))
	require.NoError(t, err)
	out, err := s.Add(StreamIn(func(r io.Reader) error {
		sinkLock.Lock()
		defer sinkLock.Unlock()
		_, err := io.Copy(&sink, r)
		return err
	}))
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))

	// stands in for the engine: read the input endpoint, write to the output one
	engine := func() error {
		src, err := net.Dial("tcp", in.AddressAndPort())
		if err != nil {
			return err
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return err
		}

		dst, err := net.Dial("tcp", out.AddressAndPort())
		if err != nil {
			return err
		}
		defer dst.Close()
		_, err = dst.Write(bytes.ToUpper(data))
		return err
	}

	require.NoError(t, s.Join(context.Background(), engine))

	sinkLock.Lock()
	defer sinkLock.Unlock()
	assert.Equal(t, "RAW FRAMES", sink.String())
}

func TestSupervisorProcessFailureIsAuthoritative(t *testing.T) {
	s := NewSupervisor(nil)
	_, err := s.Add(FromReader(strings.NewReader("never read")))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	exitErr := errors.New("exit status 1")
	err = s.Join(context.Background(), func() error { return exitErr })

	assert.Equal(t, exitErr, err)
	assert.NotErrorIs(t, err, ErrNeverConnected)
}

func TestSupervisorEndpointFailureAfterCleanExit(t *testing.T) {
	s := NewSupervisor(nil)
	_, err := s.Add(FromReader(strings.NewReader("never read")))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	err = s.Join(context.Background(), func() error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNeverConnected)
}

func TestSupervisorNegotiationFailureAfterCleanExit(t *testing.T) {
	boom := errors.New("sink full")

	s := NewSupervisor(nil)
	out, err := s.Add(StreamIn(func(r io.Reader) error {
		io.Copy(io.Discard, r)
		return boom
	}))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	err = s.Join(context.Background(), func() error {
		conn, err := net.Dial("tcp", out.AddressAndPort())
		if err != nil {
			return err
		}
		conn.Write([]byte("data"))
		return conn.Close()
	})
	assert.ErrorIs(t, err, boom)
}

func TestSupervisorAddAfterStart(t *testing.T) {
	s := NewSupervisor(nil)
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Add(FromReader(strings.NewReader("")))
	assert.ErrorIs(t, err, ErrSupervisorStarted)
	assert.ErrorIs(t, s.Start(context.Background()), ErrSupervisorStarted)

	assert.NoError(t, s.Join(context.Background(), nil))
}

func TestSupervisorCancelAbortsEndpoints(t *testing.T) {
	s := NewSupervisor(nil)
	e, err := s.Add(FromReader(strings.NewReader("x")))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		done <- s.Join(ctx, func() error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Join did not return after cancel")
	}
	assert.Equal(t, StateClosed, e.State())
}

func TestSupervisorCancelLeavesBlockedProducer(t *testing.T) {
	// the producer waits on a pipe nobody writes to, so closing the socket
	// cannot wake it
	pr, pw := io.Pipe()
	defer pw.Close()

	s := NewSupervisor(nil)
	s.SetAcceptGrace(20 * time.Millisecond)
	e, err := s.Add(FromReader(pr))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	conn, err := net.Dial("tcp", e.AddressAndPort())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return e.State() == StateConnected
	}, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Join(ctx, func() error {
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Join did not return after cancel while negotiating")
	}
	assert.Eventually(t, func() bool {
		return e.State() == StateClosed
	}, time.Second, 5*time.Millisecond)
}

func TestSupervisorCloseBeforeStart(t *testing.T) {
	s := NewSupervisor(nil)
	e, err := s.Add(FromReader(strings.NewReader("x")))
	require.NoError(t, err)

	s.Close()
	assert.Equal(t, StateClosed, e.State())

	_, err = net.DialTimeout("tcp", e.AddressAndPort(), time.Second)
	assert.Error(t, err)
}
