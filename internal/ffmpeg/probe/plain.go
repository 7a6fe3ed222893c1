// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

// plainTokenizer reads the default writer with wrappers turned off
// (noprint_wrappers=1): bare key=value lines. A leader key from the schema
// starts a section of that name; a key repeating inside the current section
// starts a sibling of the same name.
type plainTokenizer struct {
	schema *Schema
}

func (t *plainTokenizer) feed(b *builder, n int, line string) error {
	key, raw, ok := splitTag(line)
	if !ok {
		b.logger.Warn("line %d: unrecognized line %q, skipped", n, line)
		return nil
	}

	value, err := unquote(raw)
	if err != nil {
		b.logger.Warn("line %d: %v, tag %q skipped", n, err, key)
		return nil
	}

	current := b.top()
	switch name, leader := t.schema.leader(key); {
	case leader:
		t.restart(b, name)
	case current == nil:
		t.restart(b, t.schema.DefaultSection)
	case current.has(key):
		t.restart(b, current.name)
	}

	b.tag(n, key, value)
	return nil
}

func (t *plainTokenizer) restart(b *builder, name string) {
	if b.depth() > 0 {
		b.pop()
	}
	b.open(name)
}

func (t *plainTokenizer) done(b *builder) error {
	if b.depth() > 0 {
		b.pop()
	}
	return nil
}
