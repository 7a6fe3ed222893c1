// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg/parse"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/skills"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
	"github.com/ZSC714725/ffbridge/internal/transport"
)

// FFmpeg runs transcodes and probes against the configured binaries
type FFmpeg interface {
	Transcode(ctx context.Context, job Job) (*Result, error)
	Probe(ctx context.Context, req ProbeRequest) (*ProbeResult, error)
	NewParser(log logger.Logger) parse.Parser
	ValidateInput(address string) bool
	ValidateOutput(address string) bool
	Skills() skills.Skills
	ReloadSkills() error
}

// Config for FFmpeg
type Config struct {
	Binary          string
	ProbeBinary     string
	MaxLogLines     int
	LogLevel        string // value for -loglevel level+<LogLevel>
	Schema          *probe.Schema
	ValidatorInput  Validator
	ValidatorOutput Validator
	Logger          logger.Logger
}

type ffmpeg struct {
	binary       string
	probeBinary  string
	logLevel     string
	schema       *probe.Schema
	validatorIn  Validator
	validatorOut Validator
	logLines     int
	logger       logger.Logger

	skills     skills.Skills
	skillsLock sync.RWMutex
}

// New creates FFmpeg
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	f := &ffmpeg{
		binary:       binary,
		logLevel:     config.LogLevel,
		schema:       config.Schema,
		validatorIn:  config.ValidatorInput,
		validatorOut: config.ValidatorOutput,
		logLines:     config.MaxLogLines,
		logger:       config.Logger,
	}

	if config.ProbeBinary != "" {
		f.probeBinary, err = exec.LookPath(config.ProbeBinary)
		if err != nil {
			return nil, fmt.Errorf("invalid ffprobe binary: %w", err)
		}
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}
	if f.logLevel == "" {
		f.logLevel = "info"
	}
	if f.logger == nil {
		f.logger = logger.Discard()
	}
	if f.validatorIn == nil {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if f.validatorOut == nil {
		f.validatorOut, _ = NewValidator(nil, nil)
	}

	s, err := skills.New(f.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	f.skills = s

	f.logger.Info("ffmpeg %s at %s", s.FFmpeg.Version, f.binary)

	return f, nil
}

func (f *ffmpeg) NewParser(log logger.Logger) parse.Parser {
	if log == nil {
		log = f.logger
	}
	return parse.New(parse.Config{LogLines: f.logLines, Logger: log})
}

func (f *ffmpeg) ValidateInput(address string) bool {
	return f.validatorIn.IsValid(address)
}

func (f *ffmpeg) ValidateOutput(address string) bool {
	return f.validatorOut.IsValid(address)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}

// Transcode runs the engine once for job. Streamed inputs and outputs are
// exchanged over loopback endpoints which must all have finished before
// Transcode returns.
func (f *ffmpeg) Transcode(ctx context.Context, job Job) (*Result, error) {
	log := job.Logger
	if log == nil {
		log = f.logger
	}

	if err := f.checkJob(job); err != nil {
		return nil, err
	}

	parser := job.Parser
	if parser == nil {
		parser = f.NewParser(log)
	}

	sup := transport.NewSupervisor(log)
	args, err := f.transcodeArgs(job, sup, parser)
	if err != nil {
		sup.Close()
		return nil, err
	}

	log.Debug("ffmpeg %v", args)

	proc, err := process.New(process.Config{
		Binary:        f.binary,
		Args:          args,
		Parser:        parser,
		Sampler:       process.NewSysSampler(),
		OnStateChange: job.OnStateChange,
		Logger:        log,
	})
	if err != nil {
		sup.Close()
		return nil, err
	}

	if err := f.run(ctx, sup, proc); err != nil {
		return f.result(parser, proc), err
	}

	return f.result(parser, proc), nil
}

func (f *ffmpeg) checkJob(job Job) error {
	if len(job.Outputs) == 0 {
		return ErrNoOutput
	}

	streams := 0
	for i, in := range job.Inputs {
		if in.Reader != nil {
			streams++
			continue
		}
		if in.Address == "" {
			return fmt.Errorf("input %d: %w", i, ErrNoAddress)
		}
		if err := f.validatorIn.Check(in.Address); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	for i, out := range job.Outputs {
		if out.Writer != nil {
			if out.Format == "" {
				return fmt.Errorf("output %d: %w", i, ErrFormatRequired)
			}
			streams++
			continue
		}
		if out.Address == "" {
			return fmt.Errorf("output %d: %w", i, ErrNoAddress)
		}
		if err := f.validatorOut.Check(out.Address); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	if job.Progress {
		streams++
	}

	if streams > 0 {
		s := f.Skills()
		if !s.HasProtocol("tcp", true) || !s.HasProtocol("tcp", false) {
			return ErrNoTCP
		}
	}
	return nil
}

func (f *ffmpeg) transcodeArgs(job Job, sup *transport.Supervisor, parser parse.Parser) ([]string, error) {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "level+" + f.logLevel}

	if job.Progress {
		blocks := parse.NewProgressBlocks(parser.UpdateProgress)
		e, err := sup.Add(transport.StreamIn(func(r io.Reader) error {
			_, err := blocks.ReadFrom(r)
			return err
		}))
		if err != nil {
			return nil, err
		}
		args = append(args, "-progress", e.Address("tcp", ""), "-stats_period", "1")
	}

	args = append(args, job.Options...)

	for _, in := range job.Inputs {
		address := in.Address
		if in.Reader != nil {
			n := transport.FromReader(in.Reader)
			if in.Partial {
				n = tolerant(n)
			}
			e, err := sup.Add(n)
			if err != nil {
				return nil, err
			}
			address = e.Address("tcp", "")
		}
		args = append(args, in.Options...)
		if in.Format != "" {
			args = append(args, "-f", in.Format)
		}
		args = append(args, "-i", address)
	}

	for _, out := range job.Outputs {
		address := out.Address
		if out.Writer != nil {
			e, err := sup.Add(transport.ToWriter(out.Writer))
			if err != nil {
				return nil, err
			}
			address = e.Address("tcp", "")
		}
		args = append(args, out.Options...)
		if out.Format != "" {
			args = append(args, "-f", out.Format)
		}
		args = append(args, "-y", address)
	}

	return args, nil
}

func (f *ffmpeg) run(ctx context.Context, sup *transport.Supervisor, proc process.Process) error {
	if err := sup.Start(ctx); err != nil {
		sup.Close()
		return err
	}

	if err := proc.Start(ctx); err != nil {
		sup.Close()
		return err
	}

	return sup.Join(ctx, proc.Wait)
}

func (f *ffmpeg) result(parser parse.Parser, proc process.Process) *Result {
	return &Result{
		Progress: parser.Progress(),
		Summary:  parser.Summary(),
		Messages: parser.Messages(),
		Status:   proc.Status(),
	}
}

// Probe runs the probe binary and parses its report in the requested dialect
func (f *ffmpeg) Probe(ctx context.Context, req ProbeRequest) (*ProbeResult, error) {
	if f.probeBinary == "" {
		return nil, ErrNoProbe
	}
	// chapters and programs share keys with streams and lose their bounds
	// once the wrappers are gone
	if req.Dialect == probe.DialectPlain && (req.ShowChapters || req.ShowPrograms) {
		return nil, ErrPlainNested
	}

	log := req.Logger
	if log == nil {
		log = f.logger
	}

	reportParser, err := probe.New(req.Dialect, probe.Config{Schema: f.schema, Logger: log})
	if err != nil {
		return nil, err
	}

	sup := transport.NewSupervisor(log)
	address := req.Address
	if req.Reader != nil {
		if s := f.Skills(); !s.HasProtocol("tcp", true) {
			return nil, ErrNoTCP
		}
		e, err := sup.Add(tolerant(transport.FromReader(req.Reader)))
		if err != nil {
			sup.Close()
			return nil, err
		}
		address = e.Address("tcp", "")
	} else if address == "" {
		return nil, ErrNoAddress
	} else if err := f.validatorIn.Check(address); err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-loglevel", "level+" + f.logLevel, "-show_format", "-show_streams"}
	if req.ShowChapters {
		args = append(args, "-show_chapters")
	}
	if req.ShowPrograms {
		args = append(args, "-show_programs")
	}
	if req.SelectStreams != "" {
		args = append(args, "-select_streams", req.SelectStreams)
	}
	args = append(args, "-of", req.Dialect.WriterArgs())
	args = append(args, req.Options...)
	if req.Format != "" {
		args = append(args, "-f", req.Format)
	}
	args = append(args, address)

	log.Debug("ffprobe %v", args)

	stdout := &bytes.Buffer{}
	parser := f.NewParser(log)
	proc, err := process.New(process.Config{
		Binary: f.probeBinary,
		Args:   args,
		Parser: parser,
		Stdout: stdout,
		Logger: log,
	})
	if err != nil {
		sup.Close()
		return nil, err
	}

	if err := f.run(ctx, sup, proc); err != nil {
		return &ProbeResult{Messages: parser.Messages()}, err
	}

	doc, err := probe.ParseReader(reportParser, stdout)
	if err != nil {
		return &ProbeResult{Messages: parser.Messages()}, fmt.Errorf("parse probe report: %w", err)
	}

	return &ProbeResult{Document: doc, Messages: parser.Messages()}, nil
}

// tolerant makes a stream-out negotiator succeed when the engine stops
// reading before the source is exhausted.
func tolerant(n transport.Negotiator) transport.Negotiator {
	return negotiatorFunc(func(conn net.Conn) error {
		err := n.Negotiate(conn)
		if err != nil && transport.IsPeerClosed(err) {
			return nil
		}
		return err
	})
}

type negotiatorFunc func(conn net.Conn) error

func (f negotiatorFunc) Negotiate(conn net.Conn) error { return f(conn) }
