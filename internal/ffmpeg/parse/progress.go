// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Progress holds FFmpeg progress info
type Progress struct {
	Frame     uint64  `json:"frame"`
	FPS       float64 `json:"fps"`
	Size      uint64  `json:"size_bytes"`
	Time      float64 `json:"time_seconds"`
	Bitrate   float64 `json:"bitrate_kbit"`
	Speed     float64 `json:"speed"`
	Drop      uint64  `json:"drop"`
	Dup       uint64  `json:"dup"`
	Quantizer float64 `json:"q"`
	Done      bool    `json:"done"`
}

// ProgressBlocks decodes the key=value blocks the engine writes to its
// -progress target. Each block ends with progress=continue or progress=end.
type ProgressBlocks struct {
	current  Progress
	callback func(Progress)
}

// NewProgressBlocks calls cb once per complete block
func NewProgressBlocks(cb func(Progress)) *ProgressBlocks {
	return &ProgressBlocks{callback: cb}
}

// Feed consumes one line
func (b *ProgressBlocks) Feed(line string) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		b.current.Frame, _ = strconv.ParseUint(value, 10, 64)
	case "fps":
		b.current.FPS, _ = strconv.ParseFloat(value, 64)
	case "bitrate":
		if x, err := strconv.ParseFloat(strings.TrimSuffix(value, "kbits/s"), 64); err == nil {
			b.current.Bitrate = x
		}
	case "total_size":
		// N/A for live outputs
		if x, err := strconv.ParseUint(value, 10, 64); err == nil {
			b.current.Size = x
		}
	case "out_time_us", "out_time_ms":
		// out_time_ms is in microseconds as well
		if x, err := strconv.ParseInt(value, 10, 64); err == nil {
			b.current.Time = (time.Duration(x) * time.Microsecond).Seconds()
		}
	case "dup_frames":
		b.current.Dup, _ = strconv.ParseUint(value, 10, 64)
	case "drop_frames":
		b.current.Drop, _ = strconv.ParseUint(value, 10, 64)
	case "speed":
		if x, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			b.current.Speed = x
		}
	case "progress":
		b.current.Done = value == "end"
		if b.callback != nil {
			b.callback(b.current)
		}
		b.current = Progress{}
	default:
		if strings.HasPrefix(key, "stream_") && strings.HasSuffix(key, "_q") {
			b.current.Quantizer, _ = strconv.ParseFloat(value, 64)
		}
	}
}

// ReadFrom feeds every line of r
func (b *ProgressBlocks) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		n += int64(len(scanner.Bytes()) + 1)
		b.Feed(scanner.Text())
	}
	return n, scanner.Err()
}
