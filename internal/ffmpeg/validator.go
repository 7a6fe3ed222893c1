// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package ffmpeg

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator decides whether FFmpeg may open an address. Block rules win over
// allow rules; without allow rules everything not blocked is allowed.
type Validator interface {
	IsValid(address string) bool
	// Check returns an error wrapping ErrAddressRejected that names the
	// rule responsible
	Check(address string) error
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a new Validator. Empty expressions are ignored.
func NewValidator(allow, block []string) (Validator, error) {
	var err error
	v := &validator{}

	if v.allow, err = compileRules("allow", allow); err != nil {
		return nil, err
	}
	if v.block, err = compileRules("block", block); err != nil {
		return nil, err
	}

	return v, nil
}

func compileRules(kind string, exps []string) ([]*regexp.Regexp, error) {
	var rules []*regexp.Regexp
	for _, exp := range exps {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid %s expression %q: %w", kind, exp, err)
		}
		rules = append(rules, re)
	}
	return rules, nil
}

func (v *validator) Check(address string) error {
	for _, re := range v.block {
		if re.MatchString(address) {
			return fmt.Errorf("%w: %q matches block rule %s", ErrAddressRejected, address, re)
		}
	}
	if len(v.allow) == 0 {
		return nil
	}
	for _, re := range v.allow {
		if re.MatchString(address) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q matches no allow rule", ErrAddressRejected, address)
}

func (v *validator) IsValid(address string) bool {
	return v.Check(address) == nil
}
