// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrUnknownUnit = errors.New("unknown size unit")

// DataSize is an amount of data counted in bits
type DataSize int64

const (
	Bit  DataSize = 1
	Byte DataSize = 8
)

// Bits returns the size in bits
func (s DataSize) Bits() int64 {
	return int64(s)
}

// Bytes returns the size in bytes
func (s DataSize) Bytes() int64 {
	return int64(s / Byte)
}

func (s DataSize) String() string {
	if s%Byte == 0 {
		return fmt.Sprintf("%dB", s.Bytes())
	}
	return fmt.Sprintf("%db", s.Bits())
}

var sizeToken = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([A-Za-z]+)$`)

// unit prefixes, matched case-insensitively: plain letters are decimal,
// "i" forms are binary
var sizePrefixes = map[string]float64{
	"":   1,
	"k":  1e3,
	"ki": 1 << 10,
	"m":  1e6,
	"mi": 1 << 20,
	"g":  1e9,
	"gi": 1 << 30,
	"t":  1e12,
	"ti": 1 << 40,
}

// ParseSize reads tokens like "1024KiB", "3kB", "2mB" or "8kbit". A trailing
// "B" means bytes, "b" or "bit" means bits.
func ParseSize(token string) (DataSize, error) {
	m := sizeToken.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", token)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", token, err)
	}

	unit := m[2]
	var perUnit float64
	switch {
	case strings.HasSuffix(unit, "bit"):
		unit, perUnit = strings.TrimSuffix(unit, "bit"), 1
	case strings.HasSuffix(unit, "B"):
		unit, perUnit = strings.TrimSuffix(unit, "B"), 8
	case strings.HasSuffix(unit, "b"):
		unit, perUnit = strings.TrimSuffix(unit, "b"), 1
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, m[2])
	}

	prefix, ok := sizePrefixes[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, m[2])
	}

	return DataSize(math.Round(value * prefix * perUnit)), nil
}
