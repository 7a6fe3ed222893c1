// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Probe  ProbeConfig  `yaml:"probe"`
	Access AccessConfig `yaml:"access"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path        string `yaml:"path"`
	ProbePath   string `yaml:"probe_path"`
	MaxLogLines int    `yaml:"max_log_lines"`
	LogLevel    string `yaml:"log_level"`
}

// ProbeConfig ffprobe 报告格式
type ProbeConfig struct {
	Dialect string `yaml:"dialect"`
}

// AccessRules 允许/阻止的地址正则
type AccessRules struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// AccessConfig 输入输出地址访问控制
type AccessConfig struct {
	Input  AccessRules `yaml:"input"`
	Output AccessRules `yaml:"output"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.fill()
	return cfg
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.fill()

	if _, err := probe.ParseDialect(cfg.Probe.Dialect); err != nil {
		return nil, fmt.Errorf("probe.dialect: %w", err)
	}

	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	if c.Server.Bind == "" {
		c.Server.Bind = ":8080"
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = "ffmpeg"
	}
	if c.FFmpeg.ProbePath == "" {
		c.FFmpeg.ProbePath = "ffprobe"
	}
	if c.FFmpeg.MaxLogLines <= 0 {
		c.FFmpeg.MaxLogLines = 100
	}
	if c.FFmpeg.LogLevel == "" {
		c.FFmpeg.LogLevel = "info"
	}
	if c.Probe.Dialect == "" {
		c.Probe.Dialect = "default"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
