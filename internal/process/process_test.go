// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package process

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingParser struct {
	lines   []string
	flushed bool
	lock    sync.Mutex
}

func (r *recordingParser) Parse(line string) uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lines = append(r.lines, line)
	return 0
}

func (r *recordingParser) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.flushed = true
}

func (r *recordingParser) ResetStats() {}
func (r *recordingParser) ResetLog()   {}
func (r *recordingParser) Log() []Line { return nil }

func shell(t *testing.T, script string, parser Parser, stdout *bytes.Buffer) Process {
	t.Helper()
	cfg := Config{
		Binary:      "/bin/sh",
		Args:        []string{"-c", script},
		Parser:      parser,
		KillTimeout: time.Second,
	}
	if stdout != nil {
		cfg.Stdout = stdout
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestProcessCapturesOutput(t *testing.T) {
	var stdout bytes.Buffer
	parser := &recordingParser{}

	p := shell(t, `echo report; printf 'frame=1\rframe=2\r[info] done\n' 1>&2`, parser, &stdout)
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Wait())

	assert.Equal(t, "report\n", stdout.String())
	assert.Equal(t, []string{"frame=1", "frame=2", "[info] done"}, parser.lines)
	assert.True(t, parser.flushed)
	assert.Equal(t, "finished", p.Status().State)
	assert.False(t, p.IsRunning())
}

func TestProcessExitError(t *testing.T) {
	p := shell(t, `echo "[error] no such file" 1>&2; exit 3`, nil, nil)
	require.NoError(t, p.Start(context.Background()))

	err := p.Wait()
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "[error] no such file", exitErr.LastLine)
	assert.Equal(t, "failed", p.Status().State)
}

func TestProcessStop(t *testing.T) {
	p := shell(t, `exec sleep 30`, nil, nil)
	require.NoError(t, p.Start(context.Background()))
	require.True(t, p.IsRunning())

	require.NoError(t, p.Stop(true))
	assert.NoError(t, p.Wait())
	assert.False(t, p.IsRunning())
}

func TestProcessContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := shell(t, `exec sleep 30`, nil, nil)
	require.NoError(t, p.Start(ctx))

	cancel()

	done := make(chan error, 1)
	go func() { done <- p.Wait() }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("process was not interrupted")
	}
	assert.Equal(t, "killed", p.Status().State)
}

func TestProcessOneShot(t *testing.T) {
	p := shell(t, `true`, nil, nil)
	assert.ErrorIs(t, p.Wait(), ErrNotStarted)

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)
	assert.NoError(t, p.Wait())
}

func TestProcessStartFailure(t *testing.T) {
	p, err := New(Config{Binary: "/nonexistent/ffmpeg"})
	require.NoError(t, err)

	assert.Error(t, p.Start(context.Background()))
	assert.Error(t, p.Wait())
	assert.Equal(t, "failed", p.Status().State)
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoBinary)
}

func TestScanLine(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\r\nb\rc\n\n\nd"))
	scanner.Split(scanLine)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "b", "c", "d"}, tokens)
}
