// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		token string
		bits  int64
	}{
		{"0kB", 0},
		{"1B", 8},
		{"1b", 1},
		{"1kbit", 1000},
		{"1kb", 1000},
		{"1kB", 8000},
		{"1KB", 8000},
		{"1KiB", 8192},
		{"1kib", 1024},
		{"2mB", 16_000_000},
		{"1MiB", 8 << 20},
		{"1GB", 8_000_000_000},
		{"1GiB", 8 << 30},
		{"1TB", 8_000_000_000_000},
		{"1.5kB", 12000},
		{" 256kB ", 2_048_000},
	}

	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			s, err := ParseSize(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.bits, s.Bits())
		})
	}
}

func TestParseSizeErrors(t *testing.T) {
	_, err := ParseSize("10kQ")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = ParseSize("10xB")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = ParseSize("kB")
	assert.Error(t, err)

	_, err = ParseSize("")
	assert.Error(t, err)
}

func TestDataSizeString(t *testing.T) {
	assert.Equal(t, "1000B", (1000 * Byte).String())
	assert.Equal(t, "12b", DataSize(12).String())
	assert.Equal(t, int64(125), DataSize(1000).Bytes())
}
