// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/ffbridge/internal/api"
	"github.com/ZSC714725/ffbridge/internal/config"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/task"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	ffprobeBin := flag.String("ffprobe", "", "FFprobe binary path (overrides config)")
	flag.Parse()

	log := logger.New("ffbridge")

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Error("load config: %v", err)
			os.Exit(1)
		}
	}

	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	if *ffprobeBin != "" {
		cfg.FFmpeg.ProbePath = *ffprobeBin
	}

	logger.SetLevel(cfg.Log.Level)

	dialect, err := probe.ParseDialect(cfg.Probe.Dialect)
	if err != nil {
		log.Error("probe dialect: %v", err)
		os.Exit(1)
	}

	validatorIn, err := ffmpeg.NewValidator(cfg.Access.Input.Allow, cfg.Access.Input.Block)
	if err != nil {
		log.Error("access.input: %v", err)
		os.Exit(1)
	}
	validatorOut, err := ffmpeg.NewValidator(cfg.Access.Output.Allow, cfg.Access.Output.Block)
	if err != nil {
		log.Error("access.output: %v", err)
		os.Exit(1)
	}

	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:          cfg.FFmpeg.Path,
		ProbeBinary:     cfg.FFmpeg.ProbePath,
		MaxLogLines:     cfg.FFmpeg.MaxLogLines,
		LogLevel:        cfg.FFmpeg.LogLevel,
		ValidatorInput:  validatorIn,
		ValidatorOutput: validatorOut,
		Logger:          logger.New("ffmpeg"),
	})
	if err != nil {
		log.Error("ffmpeg init: %v", err)
		os.Exit(1)
	}

	store := task.NewStore(ff, logger.New("task"))
	handler := api.NewHandler(store, ff, dialect, logger.New("api"))

	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())
	handler.Register(r)

	srv := &http.Server{Addr: cfg.Server.Bind, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("ffbridge listening on %s", cfg.Server.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Warn("shutdown: %v", err)
	}
	store.Close()
}
