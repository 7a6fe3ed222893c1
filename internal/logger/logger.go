// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides a simple logging interface
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

type entryLogger struct {
	entry *logrus.Entry
}

// New returns a logger tagged with the given component name
func New(component string) Logger {
	return &entryLogger{entry: logrus.WithField("component", component)}
}

// Discard returns a logger that drops everything, for tests
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &entryLogger{entry: logrus.NewEntry(l)}
}

// SetLevel sets the global log level. Unknown names fall back to info.
func SetLevel(name string) {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func (l *entryLogger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *entryLogger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *entryLogger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *entryLogger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}
