// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Bind)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 100, cfg.FFmpeg.MaxLogLines)
	assert.Equal(t, "info", cfg.FFmpeg.LogLevel)
	assert.Equal(t, "default", cfg.Probe.Dialect)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	cfg, err := Load(write(t, `
server:
  bind: 127.0.0.1:9000
ffmpeg:
  path: /opt/ffmpeg/bin/ffmpeg
  max_log_lines: 500
probe:
  dialect: flat
access:
  input:
    allow: ['^https?://']
  output:
    block: ['^rtmp://', '']
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Bind)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.ProbePath)
	assert.Equal(t, 500, cfg.FFmpeg.MaxLogLines)
	assert.Equal(t, "flat", cfg.Probe.Dialect)
	assert.Equal(t, []string{"^https?://"}, cfg.Access.Input.Allow)
	assert.Equal(t, []string{"^rtmp://", ""}, cfg.Access.Output.Block)
	assert.Equal(t, "debug", cfg.Log.Level)

	d, err := probe.ParseDialect(cfg.Probe.Dialect)
	require.NoError(t, err)
	assert.Equal(t, probe.DialectFlat, d)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(write(t, "server: [\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "probe:\n  dialect: xml\n"))
	assert.ErrorIs(t, err, probe.ErrUnknownDialect)
}
