// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package api

import (
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/skills"
)

// SkillsResponse for API
type SkillsResponse struct {
	FFmpeg struct {
		Version       string `json:"version"`
		Configuration string `json:"configuration"`
	} `json:"ffmpeg"`

	Codecs struct {
		Audio    []SkillsCodec `json:"audio"`
		Video    []SkillsCodec `json:"video"`
		Subtitle []SkillsCodec `json:"subtitle"`
	} `json:"codecs"`

	Formats struct {
		Demuxers []SkillsFormat `json:"demuxers"`
		Muxers   []SkillsFormat `json:"muxers"`
	} `json:"formats"`

	Protocols struct {
		Input  []string `json:"input"`
		Output []string `json:"output"`
	} `json:"protocols"`

	// Streaming is true when in-process inputs and outputs are possible
	Streaming bool `json:"streaming"`
}

type SkillsCodec struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Encoders []string `json:"encoders"`
	Decoders []string `json:"decoders"`
}

type SkillsFormat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func codecsToAPI(codecs []skills.Codec) []SkillsCodec {
	out := make([]SkillsCodec, len(codecs))
	for i, c := range codecs {
		out[i] = SkillsCodec{ID: c.ID, Name: c.Name, Encoders: c.Encoders, Decoders: c.Decoders}
	}
	return out
}

func formatsToAPI(formats []skills.Format) []SkillsFormat {
	out := make([]SkillsFormat, len(formats))
	for i, f := range formats {
		out[i] = SkillsFormat{ID: f.ID, Name: f.Name}
	}
	return out
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration

	resp.Codecs.Audio = codecsToAPI(s.Codecs.Audio)
	resp.Codecs.Video = codecsToAPI(s.Codecs.Video)
	resp.Codecs.Subtitle = codecsToAPI(s.Codecs.Subtitle)

	resp.Formats.Demuxers = formatsToAPI(s.Formats.Demuxers)
	resp.Formats.Muxers = formatsToAPI(s.Formats.Muxers)

	resp.Protocols.Input = append([]string{}, s.Protocols.Input...)
	resp.Protocols.Output = append([]string{}, s.Protocols.Output...)

	resp.Streaming = s.HasProtocol("tcp", true) && s.HasProtocol("tcp", false)

	return resp
}
