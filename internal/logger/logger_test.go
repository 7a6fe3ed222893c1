// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	SetLevel("debug")
	defer SetLevel("info")

	New("transport").WithField("addr", "127.0.0.1:1").Warn("accept: %d", 3)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "accept: 3", entry.Message)
	assert.Equal(t, "transport", entry.Data["component"])
	assert.Equal(t, "127.0.0.1:1", entry.Data["addr"])
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("warn")
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	SetLevel("nonsense")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestDiscard(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	Discard().Error("dropped")
	assert.Empty(t, hook.AllEntries())
}
