// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	info := parseVersion([]byte(`ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers
built with gcc 13 (Ubuntu 13.2.0-23ubuntu3)
configuration: --prefix=/usr --enable-gpl
libavutil      58. 29.100 / 58. 29.100
`))
	assert.Equal(t, "6.1.1-3ubuntu5", info.Version)
	assert.Equal(t, "--prefix=/usr --enable-gpl", info.Configuration)
}

func TestParseProtocols(t *testing.T) {
	p := parseProtocols([]byte(`Supported file protocols:
Input:
  file
  pipe
  tcp
Output:
  file
  tcp
`))
	assert.Equal(t, []string{"file", "pipe", "tcp"}, p.Input)
	assert.Equal(t, []string{"file", "tcp"}, p.Output)

	s := Skills{}
	s.Protocols = p
	assert.True(t, s.HasProtocol("tcp", true))
	assert.True(t, s.HasProtocol("tcp", false))
	assert.False(t, s.HasProtocol("pipe", false))
}

func TestParseFormats(t *testing.T) {
	f := parseFormats([]byte(`File formats:
 D. = Demuxing supported
 .E = Muxing supported
 --
 D  aac             raw ADTS AAC (Advanced Audio Coding)
  E adts            ADTS AAC (Advanced Audio Coding)
 DE matroska,webm   Matroska / WebM
`))
	require.Len(t, f.Demuxers, 3)
	assert.Equal(t, "aac", f.Demuxers[0].ID)
	assert.Equal(t, "webm", f.Demuxers[2].ID)

	s := Skills{}
	s.Formats = f
	assert.True(t, s.HasMuxer("adts"))
	assert.True(t, s.HasMuxer("matroska"))
	assert.False(t, s.HasMuxer("aac"))
}

func TestParseCodecs(t *testing.T) {
	c := parseCodecs([]byte(`Codecs:
 ------
 DEV.LS h264                 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (decoders: h264 h264_v4l2m2m ) (encoders: libx264 )
 DEA.L. aac                  AAC (Advanced Audio Coding)
 D.S... ass                  ASS (Advanced SSA) subtitle
`))
	require.Len(t, c.Video, 1)
	assert.Equal(t, []string{"h264", "h264_v4l2m2m"}, c.Video[0].Decoders)
	assert.Equal(t, []string{"libx264"}, c.Video[0].Encoders)
	require.Len(t, c.Audio, 1)
	assert.Equal(t, []string{"aac"}, c.Audio[0].Encoders)
	require.Len(t, c.Subtitle, 1)
	assert.Nil(t, c.Subtitle[0].Encoders)
}
