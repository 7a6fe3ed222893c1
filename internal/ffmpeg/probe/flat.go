// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import (
	"strconv"
	"strings"
)

// sectionRef identifies one section instance in a flat path. index is empty
// for singletons such as "format".
type sectionRef struct {
	name  string
	index string
}

// flatTokenizer reads the flat writer:
//
//	streams.stream.0.codec_name="h264"
//	streams.stream.0.tags.language="eng"
//	format.duration="10.000000"
//
// Consecutive lines with the same section path share a section; a new index
// opens a sibling.
type flatTokenizer struct {
	schema *Schema
	open   []sectionRef
}

func (t *flatTokenizer) feed(b *builder, n int, line string) error {
	path, raw, ok := splitTag(line)
	if !ok {
		b.logger.Warn("line %d: unrecognized line %q, skipped", n, line)
		return nil
	}

	chain, key, ok := t.resolve(strings.Split(path, "."))
	if !ok {
		b.logger.Warn("line %d: key %q names no section, skipped", n, path)
		return nil
	}

	value, err := unquote(raw)
	if err != nil {
		b.logger.Warn("line %d: %v, tag %q skipped", n, err, path)
		return nil
	}

	t.sync(b, chain)
	b.tag(n, key, value)
	return nil
}

func (t *flatTokenizer) done(b *builder) error {
	for range t.open {
		b.pop()
	}
	t.open = nil
	return nil
}

// sync closes the open sections that chain doesn't share and opens the rest.
func (t *flatTokenizer) sync(b *builder, chain []sectionRef) {
	common := 0
	for common < len(chain) && common < len(t.open) && chain[common] == t.open[common] {
		common++
	}
	for len(t.open) > common {
		b.pop()
		t.open = t.open[:len(t.open)-1]
	}
	for _, ref := range chain[common:] {
		b.open(ref.name)
		t.open = append(t.open, ref)
	}
}

// resolve splits a dotted path into the section chain and the tag key.
func (t *flatTokenizer) resolve(parts []string) ([]sectionRef, string, bool) {
	var chain []sectionRef

	for len(parts) > 1 {
		name, used := t.sectionAt(parts)
		if used == 0 {
			break
		}
		parts = parts[used:]
		ref := sectionRef{name: name}
		if len(parts) > 1 && isIndex(parts[0]) {
			ref.index = parts[0]
			parts = parts[1:]
		}
		chain = append(chain, ref)
	}

	if len(chain) == 0 {
		// section_name[.index].key for sections the schema doesn't know
		if len(parts) < 2 {
			return nil, "", false
		}
		ref := sectionRef{name: parts[0]}
		parts = parts[1:]
		if len(parts) > 1 && isIndex(parts[0]) {
			ref.index = parts[0]
			parts = parts[1:]
		}
		chain = append(chain, ref)
	}

	if len(parts) > 1 {
		if prefix, ok := t.schema.keyPrefix(parts[0]); ok {
			return chain, prefix + strings.Join(parts[1:], "."), true
		}
	}
	return chain, strings.Join(parts, "."), true
}

// sectionAt returns the longest known section path at the start of parts,
// always leaving at least one part for the key.
func (t *flatTokenizer) sectionAt(parts []string) (string, int) {
	for n := len(parts) - 1; n > 0; n-- {
		if name, ok := t.schema.flatSection(strings.Join(parts[:n], ".")); ok {
			return name, n
		}
	}
	return "", 0
}

func isIndex(s string) bool {
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}
