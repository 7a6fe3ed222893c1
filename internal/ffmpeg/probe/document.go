// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

// Document is the result of one parse call. It is not modified after the
// parser returns it and may be read from several goroutines.
type Document struct {
	sections []*Section
	index    map[string][]*Section
}

func newDocument(sections []*Section) *Document {
	d := &Document{
		sections: sections,
		index:    make(map[string][]*Section),
	}
	for _, s := range sections {
		d.index[s.name] = append(d.index[s.name], s)
	}
	return d
}

// Sections returns the top-level sections in the order they were parsed
func (d *Document) Sections() []*Section {
	return append([]*Section(nil), d.sections...)
}

// All returns every top-level section with the given name
func (d *Document) All(name string) []*Section {
	return append([]*Section(nil), d.index[name]...)
}

// One returns the first top-level section with the given name, or nil
func (d *Document) One(name string) *Section {
	if s := d.index[name]; len(s) > 0 {
		return s[0]
	}
	return nil
}

// Streams is a shortcut for All("STREAM")
func (d *Document) Streams() []*Section {
	return d.All(SectionStream)
}

// Format is a shortcut for One("FORMAT")
func (d *Document) Format() *Section {
	return d.One(SectionFormat)
}
