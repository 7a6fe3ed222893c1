// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/parse"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
)

// fakeRunner blocks every transcode until its context is cancelled or
// release is closed
type fakeRunner struct {
	release chan struct{}
	fail    error

	lock sync.Mutex
	jobs []ffmpeg.Job
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{release: make(chan struct{})}
}

func (f *fakeRunner) Transcode(ctx context.Context, job ffmpeg.Job) (*ffmpeg.Result, error) {
	f.lock.Lock()
	f.jobs = append(f.jobs, job)
	f.lock.Unlock()

	job.OnStateChange("starting", "running")
	job.Parser.Parse("[info] working")
	job.Parser.Flush()

	select {
	case <-ctx.Done():
		return &ffmpeg.Result{Status: process.Status{State: "killed"}}, ctx.Err()
	case <-f.release:
	}

	if f.fail != nil {
		return nil, f.fail
	}
	return &ffmpeg.Result{Status: process.Status{State: "finished"}}, nil
}

func (f *fakeRunner) NewParser(log logger.Logger) parse.Parser {
	return parse.New(parse.Config{Logger: log})
}

func (f *fakeRunner) ValidateInput(address string) bool {
	return !strings.HasPrefix(address, "blocked:")
}

func (f *fakeRunner) ValidateOutput(address string) bool {
	return !strings.HasPrefix(address, "blocked:")
}

func (f *fakeRunner) Jobs() []ffmpeg.Job {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]ffmpeg.Job(nil), f.jobs...)
}

func testConfig() *Config {
	return &Config{
		Input:  []ConfigIO{{Address: "in.mp4"}},
		Output: []ConfigIO{{Address: "out.mkv", Format: "matroska", Options: []string{"-c", "copy"}}},
	}
}

func TestAddValidates(t *testing.T) {
	s := NewStore(newFakeRunner(), nil)

	_, err := s.Add(&Config{Input: []ConfigIO{{Address: "in.mp4"}}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testConfig()
	cfg.Input[0].Address = "blocked:in"
	_, err = s.Add(cfg)
	assert.ErrorIs(t, err, ErrInvalidInputAddress)

	cfg = testConfig()
	cfg.Output[0].Address = "blocked:out"
	_, err = s.Add(cfg)
	assert.ErrorIs(t, err, ErrInvalidOutputAddress)
}

func TestAddAssignsID(t *testing.T) {
	s := NewStore(newFakeRunner(), nil)

	tk, err := s.Add(testConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, "stop", tk.Order())
	assert.False(t, tk.IsRunning())

	cfg := testConfig()
	cfg.ID = tk.ID
	_, err = s.Add(cfg)
	assert.ErrorIs(t, err, ErrTaskExists)

	got, err := s.Get(tk.ID)
	require.NoError(t, err)
	assert.Same(t, tk, got)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartRunsToCompletion(t *testing.T) {
	r := newFakeRunner()
	s := NewStore(r, nil)

	tk, err := s.Add(testConfig())
	require.NoError(t, err)
	require.NoError(t, s.Start(tk.ID))
	assert.ErrorIs(t, s.Start(tk.ID), ErrTaskRunning)

	close(r.release)
	tk.Wait()

	assert.False(t, tk.IsRunning())
	assert.Equal(t, "finished", tk.State())
	result, err := tk.Result()
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, r.Jobs(), 1)
	job := r.Jobs()[0]
	require.Len(t, job.Outputs, 1)
	assert.Equal(t, "matroska", job.Outputs[0].Format)
	assert.Equal(t, []string{"-c", "copy"}, job.Outputs[0].Options)

	msgs := tk.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "working", msgs[0].Text)
	assert.Len(t, tk.Log(), 1)
}

func TestStopCancelsRun(t *testing.T) {
	r := newFakeRunner()
	s := NewStore(r, nil)

	cfg := testConfig()
	cfg.Autostart = true
	tk, err := s.Add(cfg)
	require.NoError(t, err)
	assert.Equal(t, "start", tk.Order())

	require.NoError(t, s.Stop(tk.ID))
	assert.False(t, tk.IsRunning())
	assert.Equal(t, "stop", tk.Order())
	assert.Equal(t, "killed", tk.State())

	_, err = tk.Result()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRestartStartsFreshRun(t *testing.T) {
	r := newFakeRunner()
	s := NewStore(r, nil)

	cfg := testConfig()
	cfg.Autostart = true
	tk, err := s.Add(cfg)
	require.NoError(t, err)

	require.NoError(t, s.Restart(tk.ID))
	assert.True(t, tk.IsRunning())
	assert.Equal(t, 2, tk.Runs())

	s.Close()
	assert.False(t, tk.IsRunning())
	assert.Len(t, r.Jobs(), 2)
}

func TestFailedRun(t *testing.T) {
	r := newFakeRunner()
	r.fail = errors.New("boom")
	close(r.release)
	s := NewStore(r, nil)

	tk, err := s.Add(testConfig())
	require.NoError(t, err)
	require.NoError(t, s.Start(tk.ID))
	tk.Wait()

	assert.Equal(t, "failed", tk.State())
	_, err = tk.Result()
	assert.EqualError(t, err, "boom")
}

func TestListAndDelete(t *testing.T) {
	s := NewStore(newFakeRunner(), nil)

	a := testConfig()
	a.ID, a.Reference = "a", "group"
	b := testConfig()
	b.ID = "b"
	c := testConfig()
	c.ID, c.Reference = "c", "group"

	for _, cfg := range []*Config{a, b, c} {
		_, err := s.Add(cfg)
		require.NoError(t, err)
	}

	ids := func(tasks []*Task) []string {
		var out []string
		for _, tk := range tasks {
			out = append(out, tk.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.List(nil, "")))
	assert.Equal(t, []string{"a", "c"}, ids(s.List(nil, "group")))
	assert.Equal(t, []string{"c"}, ids(s.List([]string{"c", "b"}, "group")))

	require.NoError(t, s.Delete("b"))
	assert.ErrorIs(t, s.Delete("b"), ErrNotFound)
	assert.Len(t, s.List(nil, ""), 2)
}

func TestConfigJob(t *testing.T) {
	cfg := &Config{
		Input:    []ConfigIO{{Address: "in.ts", Format: "mpegts", Options: []string{"-re"}}},
		Output:   []ConfigIO{{Address: "out.mp4"}},
		Options:  []string{"-threads", "2"},
		Progress: true,
	}

	job := cfg.Job()
	assert.Equal(t, []string{"-threads", "2"}, job.Options)
	assert.True(t, job.Progress)
	require.Len(t, job.Inputs, 1)
	assert.Equal(t, ffmpeg.Input{Address: "in.ts", Format: "mpegts", Options: []string{"-re"}}, job.Inputs[0])
	require.Len(t, job.Outputs, 1)
	assert.Equal(t, "out.mp4", job.Outputs[0].Address)
}
