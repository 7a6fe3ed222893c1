// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserStats(t *testing.T) {
	p := New(Config{})

	frame := p.Parse("frame=  100 fps= 25 q=28.0 size=     256kB time=00:00:04.00 bitrate= 524.3kbits/s dup=3 drop=1 speed=1.02x")
	assert.Equal(t, uint64(100), frame)

	progress := p.Progress()
	assert.Equal(t, uint64(100), progress.Frame)
	assert.Equal(t, 25.0, progress.FPS)
	assert.Equal(t, 28.0, progress.Quantizer)
	assert.Equal(t, uint64(256000), progress.Size)
	assert.Equal(t, 4.0, progress.Time)
	assert.Equal(t, 524.3, progress.Bitrate)
	assert.Equal(t, 1.02, progress.Speed)
	assert.Equal(t, uint64(3), progress.Dup)
	assert.Equal(t, uint64(1), progress.Drop)
}

func TestParserSummaryAndMessages(t *testing.T) {
	p := New(Config{})

	p.Parse("[info] Input #0, mov,mp4")
	p.Parse("  Duration: 00:00:10.00")
	p.Parse("[out#0/mp4 @ 0x1] [info] video:1kB audio:0kB subtitle:0kB other streams:0kB global headers:0kB muxing overhead: 2%")

	s := p.Summary()
	require.NotNil(t, s)
	require.NotNil(t, s.Video)
	assert.Equal(t, int64(8000), s.Video.Bits())
	require.NotNil(t, s.MuxingOverhead)
	assert.InDelta(t, 0.02, *s.MuxingOverhead, 1e-12)

	require.Len(t, p.Messages(), 1)
	p.Flush()

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Input #0, mov,mp4\n  Duration: 00:00:10.00", msgs[0].Text)
	assert.Equal(t, LevelInfo, msgs[1].Level)

	assert.Len(t, p.Log(), 3)
}

func TestParserRingLimit(t *testing.T) {
	p := New(Config{LogLines: 2})

	p.Parse("[info] a")
	p.Parse("[info] b")
	p.Parse("[info] c")
	p.Flush()

	log := p.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "[info] b", log[0].Data)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].Text)
	assert.Equal(t, "c", msgs[1].Text)
}

func TestParserResets(t *testing.T) {
	p := New(Config{})

	p.Parse("frame=10 fps=1 size=1kB time=00:00:01.00 bitrate=1kbits/s speed=1x")
	p.Parse("video:1kB audio:0kB subtitle:0kB other streams:0kB global headers:0kB muxing overhead: unknown")
	p.UpdateProgress(Progress{Frame: 42})
	assert.Equal(t, uint64(42), p.Progress().Frame)

	p.ResetStats()
	assert.Equal(t, Progress{}, p.Progress())
	assert.Nil(t, p.Summary())

	p.ResetLog()
	assert.Empty(t, p.Log())
	assert.Empty(t, p.Messages())
}
