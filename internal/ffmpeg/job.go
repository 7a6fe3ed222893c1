// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package ffmpeg

import (
	"io"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg/parse"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
)

// Input is either an address FFmpeg opens itself or a Reader streamed to it
type Input struct {
	Address string
	Reader  io.Reader
	Format  string   // -f before -i, optional
	Options []string // placed before -f/-i
	// Partial allows FFmpeg to stop reading Reader early, e.g. with -t
	Partial bool
}

// Output is either an address FFmpeg writes itself or a Writer fed from it
type Output struct {
	Address string
	Writer  io.Writer
	Format  string // mandatory with Writer
	Options []string
}

// Job describes one FFmpeg run
type Job struct {
	Inputs  []Input
	Outputs []Output
	Options []string // global options before the first input

	// Progress requests machine readable -progress blocks
	Progress bool

	Parser        parse.Parser // created when nil
	Logger        logger.Logger
	OnStateChange func(from, to string)
}

// Result of a transcode
type Result struct {
	Progress parse.Progress
	Summary  *parse.Summary
	Messages []parse.LogMessage
	Status   process.Status
}

// ProbeRequest describes one ffprobe run
type ProbeRequest struct {
	Address       string
	Reader        io.Reader
	Format        string
	Dialect       probe.Dialect
	ShowChapters  bool
	ShowPrograms  bool
	SelectStreams string
	Options       []string
	Logger        logger.Logger
}

// ProbeResult holds the parsed report and the diagnostics of the run
type ProbeResult struct {
	Document *probe.Document
	Messages []parse.LogMessage
}
