// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package task

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/parse"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"

	"github.com/lithammer/shortuuid/v4"
)

// Runner executes transcodes, ffmpeg.FFmpeg is one
type Runner interface {
	Transcode(ctx context.Context, job ffmpeg.Job) (*ffmpeg.Result, error)
	NewParser(log logger.Logger) parse.Parser
	ValidateInput(address string) bool
	ValidateOutput(address string) bool
}

// Task is a transcoding task. Every start is a fresh FFmpeg run.
type Task struct {
	ID        string
	Reference string
	Config    *Config
	CreatedAt int64
	UpdatedAt int64

	order   string
	state   string
	runs    int
	running bool
	parser  parse.Parser
	result  *ffmpeg.Result
	err     error
	cancel  context.CancelFunc
	done    chan struct{}
	lock    sync.RWMutex
}

// Order is the last requested action, "start" or "stop"
func (t *Task) Order() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.order
}

// State returns the process state of the current or last run
func (t *Task) State() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.state
}

// Runs counts how often the task has been started
func (t *Task) Runs() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.runs
}

// IsRunning returns whether a run is in progress
func (t *Task) IsRunning() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.running
}

// Progress returns parsed FFmpeg progress
func (t *Task) Progress() parse.Progress {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.parser == nil {
		return parse.Progress{}
	}
	return t.parser.Progress()
}

// Log returns raw stderr lines
func (t *Task) Log() []process.Line {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.parser == nil {
		return nil
	}
	return t.parser.Log()
}

// Messages returns the assembled log messages
func (t *Task) Messages() []parse.LogMessage {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.parser == nil {
		return nil
	}
	return t.parser.Messages()
}

// Result returns the outcome of the last finished run
func (t *Task) Result() (*ffmpeg.Result, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.result, t.err
}

// Wait blocks until the current run has finished
func (t *Task) Wait() {
	t.lock.RLock()
	done := t.done
	t.lock.RUnlock()
	if done != nil {
		<-done
	}
}

func (t *Task) setState(from, to string) {
	t.lock.Lock()
	t.state = to
	t.lock.Unlock()
}

func (t *Task) start(r Runner, log logger.Logger) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.running {
		return ErrTaskRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	t.running = true
	t.runs++
	t.order = "start"
	t.state = "starting"
	t.result, t.err = nil, nil
	t.parser = r.NewParser(log)
	t.cancel = cancel
	t.done = done

	job := t.Config.Job()
	job.Parser = t.parser
	job.Logger = log
	job.OnStateChange = func(from, to string) {
		log.Debug("state %s -> %s", from, to)
		t.setState(from, to)
	}

	go func() {
		defer close(done)

		result, err := r.Transcode(ctx, job)
		cancel()

		t.lock.Lock()
		t.running = false
		t.result, t.err = result, err
		if result != nil {
			t.state = result.Status.State
		} else if err != nil {
			t.state = "failed"
		}
		t.lock.Unlock()

		if err != nil {
			log.Warn("run %d failed: %v", t.Runs(), err)
		}
	}()

	return nil
}

func (t *Task) stop() {
	t.lock.Lock()
	t.order = "stop"
	cancel := t.cancel
	done := t.done
	t.lock.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Store manages tasks in memory
type Store interface {
	Add(config *Config) (*Task, error)
	Get(id string) (*Task, error)
	List(ids []string, reference string) []*Task
	Delete(id string) error
	Start(id string) error
	Stop(id string) error
	Restart(id string) error
	Close()
}

type store struct {
	runner Runner
	logger logger.Logger
	tasks  map[string]*Task
	mu     sync.RWMutex
}

// NewStore creates a task store
func NewStore(r Runner, log logger.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &store{
		runner: r,
		logger: log,
		tasks:  make(map[string]*Task),
	}
}

func (s *store) Add(config *Config) (*Task, error) {
	if len(config.Input) == 0 || len(config.Output) == 0 {
		return nil, ErrInvalidConfig
	}

	for _, in := range config.Input {
		if !s.runner.ValidateInput(in.Address) {
			return nil, ErrInvalidInputAddress
		}
	}
	for _, out := range config.Output {
		if !s.runner.ValidateOutput(out.Address) {
			return nil, ErrInvalidOutputAddress
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(config.ID) == 0 {
		config.ID = shortuuid.New()
	}
	if _, exists := s.tasks[config.ID]; exists {
		return nil, ErrTaskExists
	}

	now := time.Now().Unix()
	t := &Task{
		ID:        config.ID,
		Reference: config.Reference,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
		order:     "stop",
		state:     "finished",
	}
	s.tasks[config.ID] = t

	if config.Autostart {
		if err := t.start(s.runner, s.taskLogger(t)); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (s *store) taskLogger(t *Task) logger.Logger {
	return s.logger.WithField("task", t.ID)
}

func (s *store) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns matching tasks, oldest first
func (s *store) List(ids []string, reference string) []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Task
	for _, t := range s.tasks {
		if len(reference) > 0 && t.Reference != reference {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, t.ID) {
			continue
		}
		out = append(out, t)
	}

	slices.SortFunc(out, func(a, b *Task) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *store) Delete(id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	t.stop()
	return nil
}

func (s *store) Start(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	return t.start(s.runner, s.taskLogger(t))
}

func (s *store) Stop(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	t.stop()
	return nil
}

func (s *store) Restart(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	t.stop()
	return t.start(s.runner, s.taskLogger(t))
}

// Close stops every running task
func (s *store) Close() {
	s.mu.RLock()
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.RUnlock()

	for _, t := range tasks {
		t.stop()
	}
}
