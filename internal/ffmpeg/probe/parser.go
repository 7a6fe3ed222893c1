// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析
//
// Package probe turns the engine's structured reports into a tree of
// sections. Three report dialects are understood; all of them produce the
// same Document for the same report.

package probe

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/ZSC714725/ffbridge/internal/logger"
)

// Dialect is one of the textual encodings the engine can print a report in
type Dialect int

const (
	// DialectDefault is the blocked "[SECTION]...[/SECTION]" writer
	DialectDefault Dialect = iota
	// DialectFlat is the "section.index.key=value" writer
	DialectFlat
	// DialectPlain is the default writer without section wrappers
	DialectPlain
)

func (d Dialect) String() string {
	switch d {
	case DialectDefault:
		return "default"
	case DialectFlat:
		return "flat"
	case DialectPlain:
		return "plain"
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// WriterArgs returns the value for the engine's -of option
func (d Dialect) WriterArgs() string {
	switch d {
	case DialectFlat:
		return "flat"
	case DialectPlain:
		return "default=noprint_wrappers=1"
	}
	return "default"
}

// ParseDialect maps "default", "flat" or "plain" to a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DialectDefault, nil
	case "flat":
		return DialectFlat, nil
	case "plain":
		return DialectPlain, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// Parser builds a Document from report lines
type Parser interface {
	// Parse consumes lines once, front to back.
	Parse(lines iter.Seq[string]) (*Document, error)
}

// Config for a parser
type Config struct {
	Schema *Schema
	Logger logger.Logger
}

type tokenizer interface {
	feed(b *builder, n int, line string) error
	done(b *builder) error
}

type parser struct {
	dialect Dialect
	schema  *Schema
	logger  logger.Logger
}

// New creates a parser for one dialect. A nil schema means DefaultSchema.
func New(d Dialect, config Config) (Parser, error) {
	p := &parser{
		dialect: d,
		schema:  config.Schema,
		logger:  config.Logger,
	}

	if p.schema == nil {
		p.schema = DefaultSchema()
	}
	if p.logger == nil {
		p.logger = logger.Discard()
	}

	if _, err := p.tokenizer(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) tokenizer() (tokenizer, error) {
	switch p.dialect {
	case DialectDefault:
		return &blockedTokenizer{}, nil
	case DialectFlat:
		return &flatTokenizer{schema: p.schema}, nil
	case DialectPlain:
		return &plainTokenizer{schema: p.schema}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, p.dialect)
}

func (p *parser) Parse(lines iter.Seq[string]) (*Document, error) {
	t, err := p.tokenizer()
	if err != nil {
		return nil, err
	}
	b := newBuilder(p.logger.WithField("dialect", p.dialect.String()))

	n := 0
	for line := range lines {
		n++
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := t.feed(b, n, line); err != nil {
			return nil, err
		}
	}

	if err := t.done(b); err != nil {
		return nil, err
	}
	return b.finish()
}

// Lines yields the lines of r. Read errors end the sequence; use ParseReader
// when they matter.
func Lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}
}

// ParseReader parses everything r yields and reports read errors.
func ParseReader(p Parser, r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	doc, err := p.Parse(func(yield func(string) bool) {
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return doc, nil
}
