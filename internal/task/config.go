// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package task

import "github.com/ZSC714725/ffbridge/internal/ffmpeg"

// ConfigIO is input/output config
type ConfigIO struct {
	Address string   `json:"address"`
	Format  string   `json:"format,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Config for a transcoding task
type Config struct {
	ID        string     `json:"id"`
	Reference string     `json:"reference"`
	Input     []ConfigIO `json:"input"`
	Output    []ConfigIO `json:"output"`
	Options   []string   `json:"options"`
	Progress  bool       `json:"progress"`
	Autostart bool       `json:"autostart"`
}

// Job turns the config into a job for FFmpeg
func (c *Config) Job() ffmpeg.Job {
	job := ffmpeg.Job{
		Options:  append([]string(nil), c.Options...),
		Progress: c.Progress,
	}
	for _, in := range c.Input {
		job.Inputs = append(job.Inputs, ffmpeg.Input{
			Address: in.Address,
			Format:  in.Format,
			Options: in.Options,
		})
	}
	for _, out := range c.Output {
		job.Outputs = append(job.Outputs, ffmpeg.Output{
			Address: out.Address,
			Format:  out.Format,
			Options: out.Options,
		})
	}
	return job
}
