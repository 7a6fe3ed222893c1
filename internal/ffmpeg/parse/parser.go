// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package parse

import (
	"container/ring"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
)

// Parser implements process.Parser and parses FFmpeg stderr
type Parser interface {
	process.Parser
	Progress() Progress
	Summary() *Summary
	Messages() []LogMessage
	// UpdateProgress stores a snapshot from a -progress block
	UpdateProgress(p Progress)
}

type parser struct {
	re struct {
		frame     *regexp.Regexp
		fps       *regexp.Regexp
		quantizer *regexp.Regexp
		size      *regexp.Regexp
		time      *regexp.Regexp
		bitrate   *regexp.Regexp
		speed     *regexp.Regexp
		drop      *regexp.Regexp
		dup       *regexp.Regexp
	}

	log      *ring.Ring
	messages *ring.Ring
	logLines int
	logStart time.Time

	assembler Assembler
	summaries *SummaryDecoder
	logger    logger.Logger

	progress Progress
	summary  *Summary
	lock     sync.RWMutex
}

// Config for the parser
type Config struct {
	LogLines int
	Logger   logger.Logger
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines: config.LogLines,
		logger:   config.Logger,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	if p.logger == nil {
		p.logger = logger.Discard()
	}
	p.summaries = NewSummaryDecoder(p.logger)

	p.re.frame = regexp.MustCompile(`frame=\s*([0-9]+)`)
	p.re.fps = regexp.MustCompile(`fps=\s*([0-9\.]+)`)
	p.re.quantizer = regexp.MustCompile(`q=\s*(-?[0-9\.]+)`)
	p.re.size = regexp.MustCompile(`size=\s*([0-9\.]+[A-Za-z]+)`)
	p.re.time = regexp.MustCompile(`time=\s*(-?)([0-9]+):([0-9]{2}):([0-9]{2})\.([0-9]+)`)
	p.re.bitrate = regexp.MustCompile(`bitrate=\s*([0-9\.]+)kbits/s`)
	p.re.speed = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)
	p.re.drop = regexp.MustCompile(`drop=\s*([0-9]+)`)
	p.re.dup = regexp.MustCompile(`dup=\s*([0-9]+)`)

	p.log = ring.New(p.logLines)
	p.messages = ring.New(p.logLines)
	p.logStart = time.Now()
	return p
}

func (p *parser) Parse(line string) uint64 {
	now := time.Now()

	p.lock.Lock()
	defer p.lock.Unlock()

	p.log.Value = process.Line{Timestamp: now, Data: line}
	p.log = p.log.Next()

	if msg, ok := p.assembler.Push(line); ok {
		p.keep(msg)
	}

	_, text, _ := classify(line)

	if s, ok := p.summaries.Decode(text); ok {
		p.summary = s
		return 0
	}

	m := p.re.frame.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	// 仅在含 time= 的统计行上更新进度
	if !p.re.time.MatchString(text) && !p.re.size.MatchString(text) {
		return 0
	}

	if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
		p.progress.Frame = x
	}
	if m := p.re.fps.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.FPS = x
		}
	}
	if m := p.re.quantizer.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Quantizer = x
		}
	}
	if m := p.re.size.FindStringSubmatch(text); m != nil {
		if x, err := ParseSize(m[1]); err == nil {
			p.progress.Size = uint64(x.Bytes())
		} else {
			p.logger.Debug("progress: %v", err)
		}
	}
	if m := p.re.time.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[2])
		mm, _ := strconv.Atoi(m[3])
		s, _ := strconv.Atoi(m[4])
		frac, _ := strconv.ParseFloat("0."+m[5], 64)
		t := float64(h*3600+mm*60+s) + frac
		if m[1] == "-" {
			t = -t
		}
		p.progress.Time = t
	}
	if m := p.re.bitrate.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Bitrate = x
		}
	}
	if m := p.re.speed.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}
	if m := p.re.drop.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Drop = x
		}
	}
	if m := p.re.dup.FindStringSubmatch(text); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Dup = x
		}
	}

	return p.progress.Frame
}

func (p *parser) keep(msg LogMessage) {
	p.messages.Value = msg
	p.messages = p.messages.Next()
}

func (p *parser) Flush() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if msg, ok := p.assembler.Flush(); ok {
		p.keep(msg)
	}
}

func (p *parser) UpdateProgress(progress Progress) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = progress
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{}
	p.summary = nil
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
	p.messages = ring.New(p.logLines)
	p.assembler = Assembler{}
	p.logStart = time.Now()
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Messages() []LogMessage {
	var out []LogMessage
	p.lock.RLock()
	p.messages.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(LogMessage))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}

func (p *parser) Summary() *Summary {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.summary
}
