// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import (
	"fmt"
	"strings"
)

// splitTag splits "key=value" at the first '='.
func splitTag(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok || key == "" {
		return "", "", false
	}
	return key, value, true
}

// unquote returns value unchanged unless it is wrapped in double quotes, in
// which case the flat writer's escapes are undone.
func unquote(value string) (string, error) {
	if !strings.HasPrefix(value, `"`) {
		return value, nil
	}
	if len(value) < 2 || !strings.HasSuffix(value, `"`) {
		return "", fmt.Errorf("unterminated quoted value %q", value)
	}

	inner := value[1 : len(value)-1]
	// an odd run of backslashes escapes the closing quote
	if n := len(inner) - len(strings.TrimRight(inner, `\`)); n%2 == 1 {
		return "", fmt.Errorf("unterminated quoted value %q", value)
	}
	if !strings.Contains(inner, `\`) {
		return inner, nil
	}

	var sb strings.Builder
	sb.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '"', '`', '$':
			sb.WriteByte(inner[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(inner[i])
		}
	}
	return sb.String(), nil
}
