// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(lines ...string) []LogMessage {
	return slices.Collect(Messages(slices.Values(lines)))
}

func TestMessagesGroupContinuations(t *testing.T) {
	msgs := collect("[info] start", "continuation", "[error] boom")

	require.Len(t, msgs, 2)
	assert.Equal(t, LogMessage{Level: LevelInfo, Text: "start\ncontinuation"}, msgs[0])
	assert.Equal(t, LogMessage{Level: LevelError, Text: "boom"}, msgs[1])
}

func TestMessagesEmptyMarkerIsTrace(t *testing.T) {
	msgs := collect("[mov,mp4,m4a,3gp,3g2,mj2 @ 0x55d0c0a3] [] stream 3, sample 45, dts 5201270")

	require.Len(t, msgs, 1)
	assert.Equal(t, LevelTrace, msgs[0].Level)
	assert.Equal(t, "stream 3, sample 45, dts 5201270", msgs[0].Text)
}

func TestMessagesPrefixBeforeLevel(t *testing.T) {
	msgs := collect("[h264 @ 0x1] [warning] co located POCs unavailable")

	require.Len(t, msgs, 1)
	assert.Equal(t, LevelWarning, msgs[0].Level)
	assert.Equal(t, "co located POCs unavailable", msgs[0].Text)
}

func TestMessagesLeadingUnmarkedLines(t *testing.T) {
	msgs := collect("Input #0, mov,mp4", "  Duration: 00:00:10.00", "[INFO] next")

	require.Len(t, msgs, 2)
	assert.Equal(t, LevelUnknown, msgs[0].Level)
	assert.Equal(t, "Input #0, mov,mp4\n  Duration: 00:00:10.00", msgs[0].Text)
	assert.Equal(t, LevelInfo, msgs[1].Level)
}

func TestMessagesEmptyInput(t *testing.T) {
	assert.Empty(t, collect())
}

func TestMessagesStopEarly(t *testing.T) {
	n := 0
	for range Messages(slices.Values([]string{"[info] a", "[info] b", "[info] c"})) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestAssemblerFlush(t *testing.T) {
	var a Assembler

	_, ok := a.Push("[debug] one")
	assert.False(t, ok)

	msg, ok := a.Push("[verbose] two")
	require.True(t, ok)
	assert.Equal(t, LogMessage{Level: LevelDebug, Text: "one"}, msg)

	msg, ok = a.Flush()
	require.True(t, ok)
	assert.Equal(t, LevelVerbose, msg.Level)

	_, ok = a.Flush()
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	for token, want := range map[string]Level{
		"":        LevelTrace,
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"Verbose": LevelVerbose,
		"info":    LevelInfo,
		"warning": LevelWarning,
		"error":   LevelError,
		"fatal":   LevelFatal,
		"panic":   LevelPanic,
	} {
		got, ok := ParseLevel(token)
		assert.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}

	_, ok := ParseLevel("unknown")
	assert.False(t, ok)
	_, ok = ParseLevel("mov @ 0x1")
	assert.False(t, ok)

	assert.True(t, LevelWarning > LevelInfo)
	assert.Equal(t, "warning", LevelWarning.String())
}

func TestLogMessageJSON(t *testing.T) {
	data, err := json.Marshal(LogMessage{Level: LevelWarning, Text: "w"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"warning","text":"w"}`, string(data))

	var msg LogMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, LevelWarning, msg.Level)

	assert.Error(t, json.Unmarshal([]byte(`{"level":"loud"}`), &msg))
}
