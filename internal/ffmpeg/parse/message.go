// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"iter"
	"strings"
)

// LogMessage is one engine log message, possibly spanning several lines
type LogMessage struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Assembler groups log lines into messages. A line with a level marker
// starts a new message; any other line continues the buffered one.
type Assembler struct {
	level   Level
	lines   []string
	pending bool
}

// Push feeds one line. It returns the previous message when line starts a
// new one.
func (a *Assembler) Push(line string) (LogMessage, bool) {
	level, text, marked := classify(line)

	if !marked {
		if !a.pending {
			a.level = LevelUnknown
			a.pending = true
		}
		a.lines = append(a.lines, line)
		return LogMessage{}, false
	}

	msg, ok := a.Flush()
	a.level = level
	a.lines = append(a.lines, text)
	a.pending = true
	return msg, ok
}

// Flush returns the buffered message, if any, and resets the assembler
func (a *Assembler) Flush() (LogMessage, bool) {
	if !a.pending {
		return LogMessage{}, false
	}
	msg := LogMessage{
		Level: a.level,
		Text:  strings.Join(a.lines, "\n"),
	}
	a.lines = nil
	a.level = LevelUnknown
	a.pending = false
	return msg, true
}

// Messages assembles lines into messages. The sequence is single pass: it
// consumes lines as it goes.
func Messages(lines iter.Seq[string]) iter.Seq[LogMessage] {
	return func(yield func(LogMessage) bool) {
		var a Assembler
		for line := range lines {
			if msg, ok := a.Push(line); ok {
				if !yield(msg) {
					return
				}
			}
		}
		if msg, ok := a.Flush(); ok {
			yield(msg)
		}
	}
}
