// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with encoders and decoders
type Codec struct {
	ID       string
	Name     string
	Encoders []string
	Decoders []string
}

// Format represents a supported container format
type Format struct {
	ID   string
	Name string
}

// Info describes the engine build
type Info struct {
	Version       string
	Configuration string
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg Info
	Codecs struct {
		Audio    []Codec
		Video    []Codec
		Subtitle []Codec
	}
	Formats struct {
		Demuxers []Format
		Muxers   []Format
	}
	Protocols struct {
		Input  []string
		Output []string
	}
}

// HasProtocol reports whether the engine can read (input) or write a protocol
func (s Skills) HasProtocol(id string, input bool) bool {
	list := s.Protocols.Output
	if input {
		list = s.Protocols.Input
	}
	for _, p := range list {
		if p == id {
			return true
		}
	}
	return false
}

// HasMuxer reports whether the engine can write the given container format
func (s Skills) HasMuxer(id string) bool {
	for _, f := range s.Formats.Muxers {
		if f.ID == id {
			return true
		}
	}
	return false
}

// New returns all skills that FFmpeg provides
func New(binary string) (Skills, error) {
	s := Skills{}

	out, err := run(binary, "-version")
	if err != nil {
		return Skills{}, fmt.Errorf("can't run ffmpeg: %w", err)
	}
	s.FFmpeg = parseVersion(out)
	if s.FFmpeg.Version == "" {
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}

	out, _ = run(binary, "-codecs")
	s.Codecs = parseCodecs(out)

	out, _ = run(binary, "-formats")
	s.Formats = parseFormats(out)

	out, _ = run(binary, "-protocols")
	s.Protocols = parseProtocols(out)

	return s, nil
}

func run(binary string, arg string) ([]byte, error) {
	cmd := exec.Command(binary, "-hide_banner", arg)
	cmd.Env = []string{}
	return cmd.Output()
}

var (
	reVersion       = regexp.MustCompile(`(?m)^ffmpeg version (\S+)`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reCodec         = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
	reFormat        = regexp.MustCompile(`^\s([D ])([E ])d?\s+([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) Info {
	info := Info{}
	if m := reVersion.FindSubmatch(data); m != nil {
		info.Version = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		info.Configuration = string(m[1])
	}
	return info
}

func parseCodecs(data []byte) (codecs struct {
	Audio    []Codec
	Video    []Codec
	Subtitle []Codec
}) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reCodec.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		c := Codec{ID: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			c.Decoders = coders(m[4], m[6])
		}
		if m[2] == "E" {
			c.Encoders = coders(m[4], m[7])
		}
		switch m[3] {
		case "V":
			codecs.Video = append(codecs.Video, c)
		case "A":
			codecs.Audio = append(codecs.Audio, c)
		case "S":
			codecs.Subtitle = append(codecs.Subtitle, c)
		}
	}
	return codecs
}

func coders(id, list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{id}
	}
	return strings.Fields(list)
}

func parseFormats(data []byte) (formats struct {
	Demuxers []Format
	Muxers   []Format
}) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reFormat.FindStringSubmatch(scanner.Text())
		if m == nil || m[3] == "=" {
			continue
		}
		f := Format{Name: m[4]}
		for _, id := range strings.Split(m[3], ",") {
			f.ID = id
			if m[1] == "D" {
				formats.Demuxers = append(formats.Demuxers, f)
			}
			if m[2] == "E" {
				formats.Muxers = append(formats.Muxers, f)
			}
		}
	}
	return formats
}

func parseProtocols(data []byte) (protocols struct {
	Input  []string
	Output []string
}) {
	mode := ""
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "Input:":
			mode = "input"
			continue
		case "Output:":
			mode = "output"
			continue
		case "":
			continue
		}
		switch mode {
		case "input":
			protocols.Input = append(protocols.Input, line)
		case "output":
			protocols.Output = append(protocols.Output, line)
		}
	}
	return protocols
}
