// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package task

import "errors"

var (
	ErrNotFound             = errors.New("task not found")
	ErrTaskExists           = errors.New("task already exists")
	ErrTaskRunning          = errors.New("task is running")
	ErrInvalidConfig        = errors.New("invalid config: need at least one input and one output")
	ErrInvalidInputAddress  = errors.New("invalid input address")
	ErrInvalidOutputAddress = errors.New("invalid output address")
)
