// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package api

import (
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/parse"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
)

// JobIO is API input/output
type JobIO struct {
	Address string   `json:"address" binding:"required"`
	Format  string   `json:"format,omitempty"`
	Options []string `json:"options,omitempty"`
}

// JobRequest for Add
type JobRequest struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Input     []JobIO  `json:"input" binding:"required,dive"`
	Output    []JobIO  `json:"output" binding:"required,dive"`
	Options   []string `json:"options"`
	Progress  bool     `json:"progress"`
	// Autostart defaults to true
	Autostart *bool `json:"autostart"`
}

// Job represents a task in API responses
type Job struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
	Config    JobConfig `json:"config"`
	State     JobState  `json:"state"`
}

// JobConfig in API format
type JobConfig struct {
	Input    []JobIO  `json:"input"`
	Output   []JobIO  `json:"output"`
	Options  []string `json:"options"`
	Progress bool     `json:"progress"`
}

// JobState for API
type JobState struct {
	Order    string         `json:"order"`
	State    string         `json:"exec"`
	Runs     int            `json:"runs"`
	Progress parse.Progress `json:"progress"`
	Summary  *parse.Summary `json:"summary,omitempty"`
	Runtime  float64        `json:"runtime_seconds"`
	Memory   uint64         `json:"memory_bytes"`
	CPU      float64        `json:"cpu_usage"`
	Error    string         `json:"error,omitempty"`
}

// JobLog holds raw lines and assembled messages
type JobLog struct {
	Log      [][2]string        `json:"log"`
	Messages []parse.LogMessage `json:"messages"`
}

// CommandRequest for start/stop/restart
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ProbeResponse carries the parsed report
type ProbeResponse struct {
	Dialect  string             `json:"dialect"`
	Document *probe.Document    `json:"document"`
	Messages []parse.LogMessage `json:"messages"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code     int                `json:"code"`
	Message  string             `json:"message"`
	Detail   string             `json:"detail,omitempty"`
	Messages []parse.LogMessage `json:"messages,omitempty"`
}
