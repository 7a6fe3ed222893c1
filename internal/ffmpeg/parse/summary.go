// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"regexp"
	"strconv"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// Summary is the engine's final size report. A nil field was not reported or
// could not be read; it is not zero.
type Summary struct {
	Video          *DataSize `json:"video_bits,omitempty"`
	Audio          *DataSize `json:"audio_bits,omitempty"`
	Subtitle       *DataSize `json:"subtitle_bits,omitempty"`
	OtherStreams   *DataSize `json:"other_streams_bits,omitempty"`
	GlobalHeaders  *DataSize `json:"global_headers_bits,omitempty"`
	MuxingOverhead *float64  `json:"muxing_overhead,omitempty"` // ratio, 0.01 == 1%
}

// Total adds up every reported size
func (s *Summary) Total() DataSize {
	var total DataSize
	for _, size := range []*DataSize{s.Video, s.Audio, s.Subtitle, s.OtherStreams, s.GlobalHeaders} {
		if size != nil {
			total += *size
		}
	}
	return total
}

// video:1024KiB audio:256KiB subtitle:0KiB other streams:0KiB global headers:0KiB muxing overhead: 0.123%
// Newer engines prefix it with the muxer, e.g. "[out#0/mp4 @ 0x55d] ".
var summaryLine = regexp.MustCompile(`^(?:\[[^\]]*\]\s*)*video:\s*(\S+)\s+audio:\s*(\S+)\s+subtitle:\s*(\S+)\s+other streams:\s*(\S+)\s+global headers:\s*(\S+)\s+muxing overhead:\s*(\S+?)%?\s*$`)

// SummaryDecoder reads the engine's final summary line
type SummaryDecoder struct {
	logger logger.Logger
}

// NewSummaryDecoder creates a decoder. Unreadable fields are logged to log.
func NewSummaryDecoder(log logger.Logger) *SummaryDecoder {
	if log == nil {
		log = logger.Discard()
	}
	return &SummaryDecoder{logger: log}
}

// Decode returns false if line is not a summary line at all. Fields that
// can't be read are left nil.
func (d *SummaryDecoder) Decode(line string) (*Summary, bool) {
	m := summaryLine.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}

	s := &Summary{
		Video:         d.size("video", m[1]),
		Audio:         d.size("audio", m[2]),
		Subtitle:      d.size("subtitle", m[3]),
		OtherStreams:  d.size("other streams", m[4]),
		GlobalHeaders: d.size("global headers", m[5]),
	}

	if m[6] != "unknown" {
		if x, err := strconv.ParseFloat(m[6], 64); err == nil {
			ratio := x / 100
			s.MuxingOverhead = &ratio
		} else {
			d.logger.Warn("summary: unreadable muxing overhead %q", m[6])
		}
	}

	return s, true
}

func (d *SummaryDecoder) size(field, token string) *DataSize {
	size, err := ParseSize(token)
	if err != nil {
		d.logger.Warn("summary: %s: %v", field, err)
		return nil
	}
	return &size
}
