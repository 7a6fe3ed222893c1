// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package ffmpeg

import "errors"

var (
	ErrNoOutput        = errors.New("at least one output is required")
	ErrNoAddress       = errors.New("address or stream is required")
	ErrAddressRejected = errors.New("address not allowed")
	ErrFormatRequired  = errors.New("streamed output needs an explicit format")
	ErrNoTCP           = errors.New("ffmpeg build lacks the tcp protocol")
	ErrNoProbe         = errors.New("no ffprobe binary configured")
	ErrPlainNested     = errors.New("plain dialect cannot delimit chapters or programs")
)
