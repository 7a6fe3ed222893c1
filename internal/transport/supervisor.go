// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// DefaultAcceptGrace is how long an endpoint keeps accepting after the engine
// exited, for connections the kernel already queued.
const DefaultAcceptGrace = 250 * time.Millisecond

// Supervisor owns the endpoints of one engine invocation and joins them with
// the engine's exit.
type Supervisor struct {
	endpoints []*Endpoint
	errs      []error
	grace     time.Duration
	logger    logger.Logger

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
	lock    sync.Mutex
}

// NewSupervisor creates an empty supervisor
func NewSupervisor(log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Discard()
	}
	return &Supervisor{logger: log, grace: DefaultAcceptGrace}
}

// SetAcceptGrace overrides DefaultAcceptGrace
func (s *Supervisor) SetAcceptGrace(d time.Duration) {
	s.lock.Lock()
	s.grace = d
	s.lock.Unlock()
}

// Add allocates a listening endpoint for n. All endpoints must be added
// before Start so their addresses can go into the engine's arguments.
func (s *Supervisor) Add(n Negotiator) (*Endpoint, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return nil, ErrSupervisorStarted
	}

	e, err := NewEndpoint(n, s.logger)
	if err != nil {
		return nil, err
	}
	s.endpoints = append(s.endpoints, e)
	s.errs = append(s.errs, nil)
	return e, nil
}

// Endpoints returns the endpoints in the order they were added
func (s *Supervisor) Endpoints() []*Endpoint {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*Endpoint(nil), s.endpoints...)
}

// Start serves every endpoint on its own goroutine.
func (s *Supervisor) Start(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return ErrSupervisorStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	for i, e := range s.endpoints {
		s.wg.Add(1)
		go func(i int, e *Endpoint) {
			defer s.wg.Done()
			err := e.Serve(ctx)
			if err != nil {
				s.logger.Debug("endpoint %s failed: %v", e.AddressAndPort(), err)
			}
			s.lock.Lock()
			s.errs[i] = err
			s.lock.Unlock()
		}(i, e)
	}

	return nil
}

// Join waits for the engine via wait and for every endpoint. Endpoints the
// engine never connected to expire once it has exited. A failed engine
// is the reported cause; otherwise all endpoint failures are reported.
// Cancelling ctx aborts every endpoint and returns without waiting for a
// negotiation that does not notice its socket closing.
func (s *Supervisor) Join(ctx context.Context, wait func() error) error {
	s.lock.Lock()
	started := s.started
	s.lock.Unlock()

	if !started {
		s.Close()
		if wait != nil {
			return wait()
		}
		return nil
	}

	stop := context.AfterFunc(ctx, s.abortAll)
	defer stop()

	var procErr error
	if wait != nil {
		procErr = wait()
	}

	s.lock.Lock()
	grace := s.grace
	s.lock.Unlock()

	for _, e := range s.Endpoints() {
		if e.Expire(grace) {
			s.logger.Debug("endpoint %s expiring, engine exited while it was listening", e.AddressAndPort())
		}
	}

	s.settle(ctx, grace)
	s.cancel()

	if procErr != nil {
		if epErr := s.endpointErr(); epErr != nil {
			s.logger.Debug("ignoring endpoint failure after engine failure: %v", epErr)
		}
		return procErr
	}

	if ctx.Err() != nil {
		return fmt.Errorf("rendezvous aborted: %w", ctx.Err())
	}

	return s.endpointErr()
}

// Close aborts all endpoints. Use it when the engine could not be started.
func (s *Supervisor) Close() {
	s.abortAll()

	s.lock.Lock()
	started := s.started
	s.lock.Unlock()

	if started {
		s.wg.Wait()
		s.cancel()
	}
}

// settle waits for the endpoint goroutines. Once ctx is cancelled it gives
// them grace to record their errors and then leaves behind any negotiation
// still blocked on the caller's own reader or writer.
func (s *Supervisor) settle(ctx context.Context, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
	case <-t.C:
		s.logger.Warn("rendezvous aborted with a negotiation still blocked, not waiting for it")
	}
}

func (s *Supervisor) abortAll() {
	for _, e := range s.Endpoints() {
		e.Abort(ErrEndpointClosed)
	}
}

func (s *Supervisor) endpointErr() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var errs []error
	for _, err := range s.errs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
