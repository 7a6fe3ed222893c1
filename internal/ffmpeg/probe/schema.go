// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package probe

// Section names as printed by the blocked writer
const (
	SectionStream         = "STREAM"
	SectionFormat         = "FORMAT"
	SectionProgram        = "PROGRAM"
	SectionChapter        = "CHAPTER"
	SectionPacket         = "PACKET"
	SectionFrame          = "FRAME"
	SectionSideData       = "SIDE_DATA"
	SectionError          = "ERROR"
	SectionProgramVersion = "PROGRAM_VERSION"
	SectionLibraryVersion = "LIBRARY_VERSION"
	SectionPixelFormat    = "PIXEL_FORMAT"
)

// Schema tells the parsers how the three dialects name the same things. It is
// passed in explicitly so parsers stay independent of each other.
type Schema struct {
	// FlatSections maps dotted section paths of the flat dialect to section
	// names, e.g. "streams.stream" -> "STREAM".
	FlatSections map[string]string

	// KeyPrefixes maps nested dictionaries of the flat dialect to the key
	// prefix the other dialects use, e.g. "tags" -> "TAG:".
	KeyPrefixes map[string]string

	// Leaders maps keys that start a new section in the plain dialect,
	// e.g. "index" -> "STREAM".
	Leaders map[string]string

	// DefaultSection names the implicit section of plain lines seen before
	// any leader key.
	DefaultSection string
}

// DefaultSchema returns the naming used by the engine's stock writers.
func DefaultSchema() *Schema {
	return &Schema{
		FlatSections: map[string]string{
			"streams.stream":                   SectionStream,
			"format":                           SectionFormat,
			"programs.program":                 SectionProgram,
			"chapters.chapter":                 SectionChapter,
			"packets.packet":                   SectionPacket,
			"frames.frame":                     SectionFrame,
			"side_data_list.side_data":         SectionSideData,
			"error":                            SectionError,
			"program_version":                  SectionProgramVersion,
			"library_versions.library_version": SectionLibraryVersion,
			"pixel_formats.pixel_format":       SectionPixelFormat,
		},
		KeyPrefixes: map[string]string{
			"tags":        "TAG:",
			"disposition": "DISPOSITION:",
		},
		Leaders: map[string]string{
			"index":      SectionStream,
			"filename":   SectionFormat,
			"program_id": SectionProgram,
			"media_type": SectionFrame,
		},
		DefaultSection: SectionFormat,
	}
}

func (s *Schema) flatSection(path string) (string, bool) {
	name, ok := s.FlatSections[path]
	return name, ok
}

func (s *Schema) keyPrefix(dict string) (string, bool) {
	p, ok := s.KeyPrefixes[dict]
	return p, ok
}

func (s *Schema) leader(key string) (string, bool) {
	name, ok := s.Leaders[key]
	return name, ok
}
