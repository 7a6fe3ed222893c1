// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ffbridge - FFmpeg 进程桥接与输出解析

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/ffbridge/internal/ffmpeg"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/probe"
	"github.com/ZSC714725/ffbridge/internal/ffmpeg/skills"
	"github.com/ZSC714725/ffbridge/internal/logger"
	"github.com/ZSC714725/ffbridge/internal/process"
	"github.com/ZSC714725/ffbridge/internal/task"
)

// Engine is the part of ffmpeg.FFmpeg the API needs besides the task store
type Engine interface {
	Probe(ctx context.Context, req ffmpeg.ProbeRequest) (*ffmpeg.ProbeResult, error)
	Skills() skills.Skills
	ReloadSkills() error
}

// Handler holds dependencies
type Handler struct {
	store   task.Store
	engine  Engine
	dialect probe.Dialect
	logger  logger.Logger
}

// NewHandler creates API handler. dialect is used for probes that don't ask
// for one.
func NewHandler(store task.Store, engine Engine, dialect probe.Dialect, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{store: store, engine: engine, dialect: dialect, logger: log}
}

// Register mounts all routes below /api/v1
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	v1.GET("/skills", h.Skills)
	v1.POST("/skills/reload", h.ReloadSkills)

	v1.POST("/probe", h.Probe)

	v1.GET("/jobs", h.ListJobs)
	v1.POST("/jobs", h.AddJob)
	v1.GET("/jobs/:id", h.GetJob)
	v1.DELETE("/jobs/:id", h.DeleteJob)
	v1.GET("/jobs/:id/log", h.GetLog)
	v1.PUT("/jobs/:id/command", h.Command)
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// Probe POST /api/v1/probe?dialect=flat&format=mp4
//
// The request body is streamed to ffprobe. With ?address= the body is
// ignored and ffprobe opens the address itself.
func (h *Handler) Probe(c *gin.Context) {
	dialect := h.dialect
	if name, ok := c.GetQuery("dialect"); ok {
		d, err := probe.ParseDialect(name)
		if err != nil {
			errResp(c, http.StatusBadRequest, "Unknown dialect", err.Error())
			return
		}
		dialect = d
	}

	req := ffmpeg.ProbeRequest{
		Format:        c.Query("format"),
		Dialect:       dialect,
		ShowChapters:  c.Query("chapters") == "true",
		ShowPrograms:  c.Query("programs") == "true",
		SelectStreams: c.Query("select_streams"),
		Logger:        h.logger.WithField("probe", c.ClientIP()),
	}
	if address := c.Query("address"); address != "" {
		req.Address = address
	} else {
		req.Reader = c.Request.Body
	}

	result, err := h.engine.Probe(c.Request.Context(), req)
	if err != nil {
		resp := ErrorResponse{Message: "Probe failed", Detail: err.Error()}
		if result != nil {
			resp.Messages = result.Messages
		}

		var exitErr *process.ExitError
		switch {
		case errors.Is(err, ffmpeg.ErrAddressRejected), errors.Is(err, ffmpeg.ErrNoAddress), errors.Is(err, ffmpeg.ErrPlainNested):
			resp.Code = http.StatusBadRequest
		case errors.Is(err, ffmpeg.ErrNoProbe), errors.Is(err, ffmpeg.ErrNoTCP):
			resp.Code = http.StatusServiceUnavailable
		case errors.As(err, &exitErr):
			resp.Code = http.StatusUnprocessableEntity
		default:
			resp.Code = http.StatusInternalServerError
		}
		c.JSON(resp.Code, resp)
		return
	}

	c.JSON(http.StatusOK, ProbeResponse{
		Dialect:  dialect.String(),
		Document: result.Document,
		Messages: result.Messages,
	})
}

// AddJob POST /api/v1/jobs
func (h *Handler) AddJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	t, err := h.store.Add(requestToConfig(&req))
	if err != nil {
		switch {
		case errors.Is(err, task.ErrTaskExists):
			errResp(c, http.StatusConflict, "Job exists", err.Error())
		case errors.Is(err, task.ErrInvalidInputAddress), errors.Is(err, task.ErrInvalidOutputAddress):
			errResp(c, http.StatusBadRequest, "Invalid address", err.Error())
		default:
			errResp(c, http.StatusBadRequest, "Invalid config", err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, taskToJob(t))
}

// ListJobs GET /api/v1/jobs?id=a,b&reference=x
func (h *Handler) ListJobs(c *gin.Context) {
	reference := c.DefaultQuery("reference", "")
	idStr := c.DefaultQuery("id", "")

	var ids []string
	if idStr != "" {
		ids = strings.FieldsFunc(idStr, func(r rune) bool { return r == ',' })
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
	}

	tasks := h.store.List(ids, reference)
	jobs := make([]Job, 0, len(tasks))
	for _, t := range tasks {
		jobs = append(jobs, taskToJob(t))
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, taskToJob(t))
}

// DeleteJob DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// GetLog GET /api/v1/jobs/:id/log
func (h *Handler) GetLog(c *gin.Context) {
	t, err := h.store.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return
	}

	lines := t.Log()
	report := JobLog{
		Log:      make([][2]string, len(lines)),
		Messages: t.Messages(),
	}
	for i, line := range lines {
		report.Log[i] = [2]string{
			line.Timestamp.Format("2006-01-02 15:04:05.000"),
			line.Data,
		}
	}

	c.JSON(http.StatusOK, report)
}

// Command PUT /api/v1/jobs/:id/command
func (h *Handler) Command(c *gin.Context) {
	id := c.Param("id")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var err error
	switch req.Command {
	case "start":
		err = h.store.Start(id)
	case "stop":
		err = h.store.Stop(id)
	case "restart":
		err = h.store.Restart(id)
	default:
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: start, stop, restart")
		return
	}

	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, task.ErrNotFound) {
			code = http.StatusNotFound
		}
		errResp(c, code, "Command failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.engine.Skills()))
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.engine.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.engine.Skills()))
}

func requestToConfig(req *JobRequest) *task.Config {
	cfg := &task.Config{
		ID:        req.ID,
		Reference: req.Reference,
		Options:   req.Options,
		Progress:  req.Progress,
		Autostart: req.Autostart == nil || *req.Autostart,
	}

	for _, io := range req.Input {
		cfg.Input = append(cfg.Input, task.ConfigIO{Address: io.Address, Format: io.Format, Options: io.Options})
	}
	for _, io := range req.Output {
		cfg.Output = append(cfg.Output, task.ConfigIO{Address: io.Address, Format: io.Format, Options: io.Options})
	}

	return cfg
}

func taskToJob(t *task.Task) Job {
	j := Job{
		ID:        t.ID,
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Config: JobConfig{
			Options:  t.Config.Options,
			Progress: t.Config.Progress,
		},
		State: JobState{
			Order:    t.Order(),
			State:    t.State(),
			Runs:     t.Runs(),
			Progress: t.Progress(),
		},
	}

	for _, io := range t.Config.Input {
		j.Config.Input = append(j.Config.Input, JobIO{Address: io.Address, Format: io.Format, Options: io.Options})
	}
	for _, io := range t.Config.Output {
		j.Config.Output = append(j.Config.Output, JobIO{Address: io.Address, Format: io.Format, Options: io.Options})
	}

	result, err := t.Result()
	if result != nil {
		j.State.Summary = result.Summary
		j.State.Runtime = result.Status.Duration.Seconds()
		j.State.CPU = result.Status.CPU
		j.State.Memory = result.Status.Memory
	}
	if err != nil {
		j.State.Error = err.Error()
	}

	return j
}
