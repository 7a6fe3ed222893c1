// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import "strings"

// blockedTokenizer reads the default writer:
//
//	[STREAM]
//	index=0
//	TAG:language=eng
//	[/STREAM]
type blockedTokenizer struct{}

func (t *blockedTokenizer) feed(b *builder, n int, line string) error {
	if name, closing, ok := sectionMarker(line); ok {
		if closing {
			return b.close(n, name)
		}
		b.open(name)
		return nil
	}

	key, value, ok := splitTag(line)
	if !ok {
		b.logger.Warn("line %d: unrecognized line %q, skipped", n, line)
		return nil
	}
	b.tag(n, key, value)
	return nil
}

func (t *blockedTokenizer) done(b *builder) error {
	return nil
}

// sectionMarker recognizes "[NAME]" and "[/NAME]".
func sectionMarker(line string) (name string, closing bool, ok bool) {
	if len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false, false
	}
	name = line[1 : len(line)-1]
	if rest, found := strings.CutPrefix(name, "/"); found {
		name, closing = rest, true
	}
	if name == "" || strings.ContainsAny(name, "=[] \t") {
		return "", false, false
	}
	return name, closing, true
}
