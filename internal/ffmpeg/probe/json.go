// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes {"name":..., "tags":{...}, "children":[...]} with tags in
// report order.
func (s *Section) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	name, err := json.Marshal(s.name)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"name":`)
	buf.Write(name)

	buf.WriteString(`,"tags":{`)
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	if len(s.children) > 0 {
		children, err := json.Marshal(s.children)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"children":`)
		buf.Write(children)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes {"sections":[...]}
func (d *Document) MarshalJSON() ([]byte, error) {
	sections := d.sections
	if sections == nil {
		sections = []*Section{}
	}
	return json.Marshal(struct {
		Sections []*Section `json:"sections"`
	}{sections})
}
