// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package process

import (
	"sync"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Sampler reports CPU and memory usage of a running process
type Sampler interface {
	Start(pid int) error
	Stop()
	Current() (cpu float64, memory uint64)
}

// sysSampler 使用 gopsutil 采集进程 CPU 和内存
type sysSampler struct {
	mu   sync.RWMutex
	proc *gopsutilprocess.Process
	last struct {
		cpu    float64
		memory uint64
	}
}

// NewSysSampler creates a gopsutil backed sampler
func NewSysSampler() Sampler {
	return &sysSampler{}
}

func (s *sysSampler) Start(pid int) error {
	proc, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.proc = proc
	s.mu.Unlock()
	return nil
}

// Stop keeps the last sample so a finished process still reports usage
func (s *sysSampler) Stop() {
	cpu, memory := s.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proc = nil
	s.last.cpu = cpu
	s.last.memory = memory
}

func (s *sysSampler) Current() (cpu float64, memory uint64) {
	s.mu.RLock()
	proc := s.proc
	cpu, memory = s.last.cpu, s.last.memory
	s.mu.RUnlock()
	if proc == nil {
		return cpu, memory
	}
	if pct, err := proc.CPUPercent(); err == nil {
		cpu = pct
	}
	if info, err := proc.MemoryInfo(); err == nil && info != nil {
		memory = info.RSS
	}
	return cpu, memory
}

type nullSampler struct{}

// NewNullSampler returns a sampler that reports nothing
func NewNullSampler() Sampler {
	return &nullSampler{}
}

func (s *nullSampler) Start(pid int) error        { return nil }
func (s *nullSampler) Stop()                      {}
func (s *nullSampler) Current() (float64, uint64) { return 0, 0 }
