// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package process

import (
	"errors"
	"fmt"
)

var (
	ErrNoBinary       = errors.New("no valid binary given")
	ErrAlreadyStarted = errors.New("process already started")
	ErrNotStarted     = errors.New("process not started")
)

// ExitError is returned by Wait when the engine exits with a failure status
type ExitError struct {
	Code     int
	LastLine string
	Err      error
}

func (e *ExitError) Error() string {
	if e.LastLine != "" {
		return fmt.Sprintf("exit status %d: %s", e.Code, e.LastLine)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
