// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"fmt"
	"strings"
)

// Level is the severity of an engine log message, ordered from most verbose
// to most severe. LevelUnknown is used for lines without a level marker.
type Level int

const (
	LevelUnknown Level = iota
	LevelTrace
	LevelDebug
	LevelVerbose
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
	LevelPanic
)

var levelNames = map[Level]string{
	LevelUnknown: "unknown",
	LevelTrace:   "trace",
	LevelDebug:   "debug",
	LevelVerbose: "verbose",
	LevelInfo:    "info",
	LevelWarning: "warning",
	LevelError:   "error",
	LevelFatal:   "fatal",
	LevelPanic:   "panic",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalText makes levels show up by name in JSON
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	if string(text) == levelNames[LevelUnknown] {
		*l = LevelUnknown
		return nil
	}
	level, ok := ParseLevel(string(text))
	if !ok {
		return fmt.Errorf("unknown log level %q", text)
	}
	*l = level
	return nil
}

// ParseLevel matches a level marker's content case-insensitively. The empty
// marker "[]" is what the engine prints for trace output.
func ParseLevel(token string) (Level, bool) {
	if token == "" {
		return LevelTrace, true
	}
	token = strings.ToLower(token)
	for l, name := range levelNames {
		if l != LevelUnknown && name == token {
			return l, true
		}
	}
	return LevelUnknown, false
}

// classify looks for a level marker at the start of line, skipping bracketed
// prefixes such as "[mov,mp4 @ 0x55d0c0]". It returns the text after the
// marker.
func classify(line string) (Level, string, bool) {
	rest := line
	for {
		rest = strings.TrimLeft(rest, " \t")
		if !strings.HasPrefix(rest, "[") {
			return LevelUnknown, line, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return LevelUnknown, line, false
		}
		if level, ok := ParseLevel(rest[1:end]); ok {
			return level, strings.TrimPrefix(rest[end+1:], " "), true
		}
		rest = rest[end+1:]
	}
}
