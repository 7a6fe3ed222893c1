// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// Section is a named group of tags with nested child sections. Tag values are
// kept as the raw strings the engine printed and converted on demand.
type Section struct {
	name     string
	keys     []string
	values   map[string]string
	children []*Section
}

// NewSection creates an empty section
func NewSection(name string) *Section {
	return &Section{
		name:   name,
		values: make(map[string]string),
	}
}

// Name returns the section name, e.g. "STREAM"
func (s *Section) Name() string {
	return s.name
}

// Keys returns the tag keys in the order they were first seen
func (s *Section) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len returns the number of tags
func (s *Section) Len() int {
	return len(s.keys)
}

// Value returns the raw value of a tag
func (s *Section) Value(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the raw value of a tag or "" if it is missing
func (s *Section) String(key string) string {
	return s.values[key]
}

// Children returns all nested sections in order
func (s *Section) Children() []*Section {
	return append([]*Section(nil), s.children...)
}

// ChildrenNamed returns the nested sections with the given name
func (s *Section) ChildrenNamed(name string) []*Section {
	var out []*Section
	for _, c := range s.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// Int64 converts a tag to an integer.
func (s *Section) Int64(key string) (int64, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", s.name, ErrNoSuchTag, key)
	}
	x, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", s.name, key, err)
	}
	return x, nil
}

// Float64 converts a tag to a float. "N/A" is reported as an error.
func (s *Section) Float64(key string) (float64, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w: %s", s.name, ErrNoSuchTag, key)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", s.name, key, err)
	}
	return x, nil
}

// Bool converts a tag printed as 0/1 or true/false
func (s *Section) Bool(key string) (bool, error) {
	v, ok := s.values[key]
	if !ok {
		return false, fmt.Errorf("%s: %w: %s", s.name, ErrNoSuchTag, key)
	}
	x, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s.%s: %w", s.name, key, err)
	}
	return x, nil
}

// Rational converts tags like r_frame_rate ("30000/1001") or
// display_aspect_ratio ("16:9") into numerator and denominator.
func (s *Section) Rational(key string) (num, den int64, err error) {
	v, ok := s.values[key]
	if !ok {
		return 0, 0, fmt.Errorf("%s: %w: %s", s.name, ErrNoSuchTag, key)
	}
	sep := strings.IndexAny(v, "/:")
	if sep < 0 {
		return 0, 0, fmt.Errorf("%s.%s: not a ratio: %q", s.name, key, v)
	}
	if num, err = strconv.ParseInt(v[:sep], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("%s.%s: %w", s.name, key, err)
	}
	if den, err = strconv.ParseInt(v[sep+1:], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("%s.%s: %w", s.name, key, err)
	}
	return num, den, nil
}

// Tags returns all tags whose key starts with prefix, with the prefix
// stripped. Tags("TAG:") yields the stream's metadata dictionary.
func (s *Section) Tags(prefix string) map[string]string {
	out := make(map[string]string)
	for _, k := range s.keys {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			out[rest] = s.values[k]
		}
	}
	return out
}

// set stores a tag. A repeated key keeps its original position and reports
// false.
func (s *Section) set(key, value string) bool {
	if _, ok := s.values[key]; ok {
		s.values[key] = value
		return false
	}
	s.keys = append(s.keys, key)
	s.values[key] = value
	return true
}

func (s *Section) has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *Section) addChild(c *Section) {
	s.children = append(s.children, c)
}
