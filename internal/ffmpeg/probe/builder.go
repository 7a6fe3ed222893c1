// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import "github.com/ZSC714725/ffbridge/internal/logger"

// builder turns open/tag/close events from any dialect into a Document.
type builder struct {
	roots  []*Section
	stack  []*Section
	logger logger.Logger
}

func newBuilder(log logger.Logger) *builder {
	return &builder{logger: log}
}

func (b *builder) open(name string) {
	s := NewSection(name)
	if top := b.top(); top != nil {
		top.addChild(s)
	} else {
		b.roots = append(b.roots, s)
	}
	b.stack = append(b.stack, s)
}

func (b *builder) top() *Section {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) depth() int {
	return len(b.stack)
}

// tag adds a tag to the innermost open section. Tags outside of any section
// and repeated keys are logged and dropped or overwritten respectively.
func (b *builder) tag(line int, key, value string) {
	top := b.top()
	if top == nil {
		b.logger.Warn("line %d: tag %q outside of any section, skipped", line, key)
		return
	}
	if !top.set(key, value) {
		b.logger.Warn("line %d: duplicate tag %q in [%s], keeping last value", line, key, top.name)
	}
}

// close closes the innermost section, which must be called name.
func (b *builder) close(line int, name string) error {
	top := b.top()
	if top == nil {
		return &StructuralError{Line: line, Found: name, Err: ErrUnopenedSection}
	}
	if top.name != name {
		return &StructuralError{Line: line, Expected: top.name, Found: name, Err: ErrSectionMismatch}
	}
	b.pop()
	return nil
}

func (b *builder) pop() {
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *builder) finish() (*Document, error) {
	if top := b.top(); top != nil {
		return nil, &StructuralError{Expected: top.name, Err: ErrUnclosedSection}
	}
	return newDocument(b.roots), nil
}
