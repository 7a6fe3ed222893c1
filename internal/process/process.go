// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析
//
// Package process wraps exec.Cmd for a single run of an FFmpeg process.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// Process represents a process
type Process interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(wait bool) error
	Status() Status
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	Parser        Parser    // receives stderr line by line
	Stdout        io.Writer // receives stdout, discarded if nil
	Sampler       Sampler
	KillTimeout   time.Duration
	OnStart       func()
	OnExit        func()
	OnStateChange func(from, to string)
	Logger        logger.Logger
}

// Status of a process
type Status struct {
	State    string
	PID      int
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

type stateType string

const (
	stateFinished  stateType = "finished"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	stateFinishing stateType = "finishing"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == stateFinishing
}

type process struct {
	binary   string
	args     []string
	cmd      *exec.Cmd
	ctx      context.Context
	pid      int
	stderr   io.ReadCloser
	stdout   io.Writer
	lastLine string

	state struct {
		state stateType
		time  time.Time
		lock  sync.Mutex
	}
	parser      Parser
	sampler     Sampler
	logger      logger.Logger
	killTimeout time.Duration

	started   bool
	stopped   bool
	done      chan struct{}
	err       error
	runLock   sync.Mutex
	callbacks struct {
		onStart       func()
		onExit        func()
		onStateChange func(from, to string)
	}
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:      config.Binary,
		args:        config.Args,
		parser:      config.Parser,
		stdout:      config.Stdout,
		sampler:     config.Sampler,
		logger:      config.Logger,
		killTimeout: config.KillTimeout,
		done:        make(chan struct{}),
	}

	if len(p.binary) == 0 {
		return nil, ErrNoBinary
	}
	if p.parser == nil {
		p.parser = &nullParser{}
	}
	if p.sampler == nil {
		p.sampler = NewNullSampler()
	}
	if p.logger == nil {
		p.logger = logger.Discard()
	}
	if p.stdout == nil {
		p.stdout = io.Discard
	}
	if p.killTimeout <= 0 {
		p.killTimeout = 5 * time.Second
	}

	p.state.state = stateFinished
	p.state.time = time.Now()
	p.callbacks.onStart = config.OnStart
	p.callbacks.onExit = config.OnExit
	p.callbacks.onStateChange = config.OnStateChange

	return p, nil
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	prev := p.state.state
	ok := false

	switch prev {
	case stateFinished:
		ok = state == stateStarting
	case stateStarting:
		ok = state == stateRunning || state == stateFailed
	case stateRunning:
		ok = state == stateFinishing || state == stateFinished || state == stateFailed || state == stateKilled
	case stateFinishing:
		ok = state == stateFinished || state == stateFailed || state == stateKilled
	}

	if !ok {
		return fmt.Errorf("can't change from %s to %s", prev, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	if p.callbacks.onStateChange != nil {
		go p.callbacks.onStateChange(prev.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.sampler.Current()

	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	return Status{
		State:    p.state.state.String(),
		PID:      p.pid,
		Duration: time.Since(p.state.time),
		Time:     p.state.time,
		CPU:      cpu,
		Memory:   memory,
	}
}

// Start launches the process. Cancelling ctx interrupts it.
func (p *process) Start(ctx context.Context) error {
	p.runLock.Lock()
	defer p.runLock.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true
	p.ctx = ctx

	p.setState(stateStarting)

	p.cmd = exec.CommandContext(ctx, p.binary, p.args...)
	p.cmd.Env = []string{}
	p.cmd.Stdout = p.stdout
	p.cmd.Cancel = func() error {
		return p.interrupt()
	}
	p.cmd.WaitDelay = p.killTimeout

	var err error
	p.stderr, err = p.cmd.StderrPipe()
	if err == nil {
		err = p.cmd.Start()
	}
	if err != nil {
		p.setState(stateFailed)
		p.parser.Parse(err.Error())
		p.err = fmt.Errorf("start %s: %w", p.binary, err)
		close(p.done)
		return p.err
	}

	p.state.lock.Lock()
	p.pid = p.cmd.Process.Pid
	p.state.lock.Unlock()

	if err := p.sampler.Start(p.pid); err != nil {
		p.logger.Debug("usage sampling unavailable for pid %d: %v", p.pid, err)
	}

	p.setState(stateRunning)
	p.logger.Info("started %s (pid %d)", p.binary, p.pid)

	if p.callbacks.onStart != nil {
		go p.callbacks.onStart()
	}

	go p.reader()

	return nil
}

// Wait blocks until the process has exited and its stderr is drained
func (p *process) Wait() error {
	p.runLock.Lock()
	started := p.started
	p.runLock.Unlock()

	if !started {
		return ErrNotStarted
	}

	<-p.done
	return p.err
}

// Stop asks the process to quit and kills it after the kill timeout
func (p *process) Stop(wait bool) error {
	if !p.IsRunning() {
		return nil
	}
	if err := p.setState(stateFinishing); err != nil {
		return nil
	}

	p.runLock.Lock()
	p.stopped = true
	p.runLock.Unlock()

	err := p.interrupt()
	if err == nil {
		time.AfterFunc(p.killTimeout, func() {
			select {
			case <-p.done:
			default:
				p.cmd.Process.Kill()
			}
		})
	}

	if wait {
		<-p.done
	}

	if err != nil {
		p.parser.Parse(err.Error())
	}
	return err
}

func (p *process) interrupt() error {
	if runtime.GOOS == "windows" {
		return p.cmd.Process.Kill()
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

func (p *process) reader() {
	scanner := bufio.NewScanner(p.stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	p.parser.ResetStats()
	p.parser.ResetLog()

	for scanner.Scan() {
		line := scanner.Text()
		p.lastLine = line
		p.parser.Parse(line)
	}
	p.parser.Flush()

	p.waiter()
}

func (p *process) waiter() {
	err := p.cmd.Wait()

	p.runLock.Lock()
	stopped := p.stopped
	p.runLock.Unlock()

	var exitErr *exec.ExitError
	switch {
	case p.ctx.Err() != nil:
		p.setState(stateKilled)
		p.err = fmt.Errorf("%s interrupted: %w", p.binary, p.ctx.Err())
	case err == nil:
		p.setState(stateFinished)
	case errors.As(err, &exitErr):
		status, _ := exitErr.Sys().(syscall.WaitStatus)
		switch {
		case !status.Exited():
			p.setState(stateKilled)
			if !stopped {
				p.err = &ExitError{Code: -1, LastLine: p.lastLine, Err: err}
			}
		case status.ExitStatus() == 255 && stopped:
			// FFmpeg 收到 SIGINT 后以 255 退出
			p.setState(stateFinished)
		default:
			p.setState(stateFailed)
			p.err = &ExitError{Code: status.ExitStatus(), LastLine: p.lastLine, Err: err}
		}
	default:
		p.setState(stateKilled)
		p.err = err
	}

	p.sampler.Stop()

	if p.err != nil {
		p.logger.Error("%s exited: %v", p.binary, p.err)
	} else {
		p.logger.Info("%s finished", p.binary)
	}

	close(p.done)

	if p.callbacks.onExit != nil {
		go p.callbacks.onExit()
	}
}

// scanLine splits on \n and \r. FFmpeg ends its stats lines with \r only.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
