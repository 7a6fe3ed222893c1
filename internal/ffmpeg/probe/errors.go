// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchTag       = errors.New("no such tag")
	ErrUnknownDialect  = errors.New("unknown report dialect")
	ErrUnclosedSection = errors.New("unclosed section")
	ErrUnopenedSection = errors.New("closing a section that is not open")
	ErrSectionMismatch = errors.New("section close does not match open section")
)

// StructuralError means the report's framing is broken. The whole document
// is unusable.
type StructuralError struct {
	Line     int // 1-based, 0 for end of input
	Expected string
	Found    string
	Err      error
}

func (e *StructuralError) Error() string {
	where := "end of input"
	if e.Line > 0 {
		where = fmt.Sprintf("line %d", e.Line)
	}
	switch {
	case e.Expected != "" && e.Found != "":
		return fmt.Sprintf("%s: %v: expected [/%s], found [/%s]", where, e.Err, e.Expected, e.Found)
	case e.Expected != "":
		return fmt.Sprintf("%s: %v: [%s]", where, e.Err, e.Expected)
	case e.Found != "":
		return fmt.Sprintf("%s: %v: [/%s]", where, e.Err, e.Found)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}
