// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package handler provides HTTP request handlers for the Registry Pull API.
package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lazycatapps/registry-pull/internal/models"
	apperrors "github.com/lazycatapps/registry-pull/internal/pkg/errors"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/pkg/validator"
	"github.com/lazycatapps/registry-pull/internal/repository"
	"github.com/lazycatapps/registry-pull/internal/service"

	"github.com/gin-gonic/gin"
)

// PullHandler handles HTTP requests related to authenticated pull tasks.
type PullHandler struct {
	pullService   service.PullService
	credService   service.CredentialService
	engineService service.EngineConfigService
	logger        logger.Logger
}

// NewPullHandler creates a new PullHandler instance. credService may be nil
// when server-side credential resolution is disabled; clients must then
// supply explicit credentials.
func NewPullHandler(pullService service.PullService, credService service.CredentialService, engineService service.EngineConfigService, log logger.Logger) *PullHandler {
	return &PullHandler{
		pullService:   pullService,
		credService:   credService,
		engineService: engineService,
		logger:        log,
	}
}

// handleError processes errors and sends appropriate HTTP responses.
// It checks if the error is an AppError with status code, otherwise returns 500.
func (h *PullHandler) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message})
	} else {
		h.logger.Error("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// CreatePull creates a new authenticated pull task.
// It validates the selection, resolves credentials, creates a task record,
// and starts the login-then-pull protocol asynchronously.
//
// Request body (JSON):
//   - registry (required): Registry host name
//   - repository: Repository name (required when pullAll is set)
//   - tag: Image tag, possibly repository-qualified ("webapp:v2")
//   - pullAll: Pull every tag in the repository
//   - username, password (optional): Explicit registry credentials;
//     omitted, the server resolves credentials via the identity provider
//
// Response (200 OK):
//
//	{"message": "Pull started", "id": "task-uuid"}
//
// Error responses: 400 (invalid input), 401 (credential resolution failed),
// 500 (server error)
func (h *PullHandler) CreatePull(c *gin.Context) {
	var req models.PullRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON request: %v", err)
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid request body"))
		return
	}

	// Validate input fields for security
	if err := validator.ValidateRegistryHost(req.Registry); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid registry"))
		return
	}

	if req.PullAll || req.Repository != "" {
		if err := validator.ValidateRepositoryName(req.Repository); err != nil {
			h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid repository"))
			return
		}
	}

	if !req.PullAll {
		if req.Tag == "" {
			h.handleError(c, apperrors.WrapInvalidInput(fmt.Errorf("tag or pullAll is required"), "Invalid selection"))
			return
		}
		if err := validator.ValidateTag(req.Tag); err != nil {
			h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid tag"))
			return
		}
	}

	if err := validator.ValidateCredentials(req.Username, req.Password); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid credentials"))
		return
	}

	creds, err := h.resolveCredentials(c, &req)
	if err != nil {
		h.logger.Error("Credential resolution failed for %s: %v", req.Registry, err)
		h.handleError(c, apperrors.WrapUnauthorized(err, err.Error()))
		return
	}

	taskID, err := h.pullService.CreatePullTask(&req)
	if err != nil {
		h.logger.Error("Failed to create pull task: %v", err)
		h.handleError(c, apperrors.WrapInternal(err, "Failed to create pull task"))
		return
	}

	// Execute the login-then-pull protocol asynchronously
	go func() {
		if err := h.pullService.ExecutePull(taskID, creds); err != nil {
			h.logger.Error("[%s] Pull execution failed: %v", taskID, err)
		}
	}()

	h.logger.Info("Pull task created: %s (registry: %s)", taskID, req.Registry)

	c.JSON(http.StatusOK, gin.H{
		"message": "Pull started",
		"id":      taskID,
	})
}

// resolveCredentials returns explicit request credentials when present,
// otherwise delegates to the credential service.
func (h *PullHandler) resolveCredentials(c *gin.Context, req *models.PullRequest) (*models.Credentials, error) {
	if req.Username != "" && req.Password != "" {
		return &models.Credentials{Username: req.Username, Password: req.Password}, nil
	}
	if h.credService == nil {
		return nil, fmt.Errorf("no credentials supplied and credential resolution is disabled")
	}
	return h.credService.ResolveLoginCredentials(c.Request.Context(), req.Registry)
}

// GetPullStatus retrieves the status and details of a pull task by ID.
//
// Path parameter:
//   - id: Task UUID
//
// Response (200 OK): Task object with all details (status, logs, timestamps, etc.)
// Error responses: 404 (task not found), 500 (server error)
func (h *PullHandler) GetPullStatus(c *gin.Context) {
	id := c.Param("id")

	task, err := h.pullService.GetTask(id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.handleError(c, apperrors.WrapTaskNotFound(err))
			return
		}
		h.logger.Error("Failed to get task %s: %v", id, err)
		h.handleError(c, apperrors.WrapInternal(err, "Failed to get task"))
		return
	}

	c.JSON(http.StatusOK, task)
}

// StreamLogs streams task logs to the client using Server-Sent Events (SSE).
// It sends historical logs first, then streams new logs in real-time until
// the operation concludes.
//
// Path parameter:
//   - id: Task UUID
//
// Response headers:
//   - Content-Type: text/event-stream
//   - Cache-Control: no-cache
//   - Connection: keep-alive
//
// Response format: SSE (data: <log line>\n\n)
// Error responses: 404 (task not found), 500 (server error)
func (h *PullHandler) StreamLogs(c *gin.Context) {
	id := c.Param("id")

	task, err := h.pullService.GetTask(id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			h.handleError(c, apperrors.WrapTaskNotFound(err))
			return
		}
		h.logger.Error("Failed to get task %s for log streaming: %v", id, err)
		h.handleError(c, apperrors.WrapInternal(err, "Failed to get task"))
		return
	}

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// Send existing logs first
	existingLogs := task.GetLogLines()
	taskStatus := task.Status

	for _, line := range existingLogs {
		fmt.Fprintf(c.Writer, "data: %s\n\n", line)
		c.Writer.Flush()
	}

	// A failed task streams nothing further; a completed task may still be
	// pulling, so only the end timestamp marks the log as final.
	if taskStatus == models.StatusFailed || task.EndTime != nil {
		return
	}

	// Subscribe to new logs
	logChan := task.AddLogListener()
	defer task.RemoveLogListener(logChan)

	// Stream new logs until the operation concludes or the client disconnects
	clientGone := c.Request.Context().Done()
	for {
		select {
		case line, ok := <-logChan:
			if !ok {
				// Channel closed, operation concluded
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", line)
			c.Writer.Flush()
		case <-clientGone:
			// Client disconnected
			return
		}
	}
}

// CheckLogin reports whether the engine configuration file mentions the
// given login server. The probe is best-effort: an unreadable file yields
// loggedIn=false, never an error.
//
// Query parameter:
//   - server (required): Registry host name
//
// Response (200 OK):
//
//	{"configPath": "/home/user/.docker/config.json", "loggedIn": true}
//
// Error responses: 400 (missing or invalid server parameter)
func (h *PullHandler) CheckLogin(c *gin.Context) {
	server := c.Query("server")
	if err := validator.ValidateRegistryHost(server); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid server"))
		return
	}

	c.JSON(http.StatusOK, h.engineService.CheckLogin(server))
}

// ListTasks lists pull tasks with pagination, filtering, and sorting.
//
// Query parameters:
//   - page (optional): Page number, default 1
//   - pageSize (optional): Items per page, default 20, max 100
//   - status (optional): Filter by status (pending/running/completed/failed)
//   - sortBy (optional): Sort field (startTime/endTime), default startTime
//   - sortOrder (optional): Sort direction (asc/desc), default desc
//
// Response (200 OK):
//
//	{"total": 100, "page": 1, "pageSize": 20, "tasks": [...]}
//
// Error responses: 400 (invalid parameters), 500 (server error)
func (h *PullHandler) ListTasks(c *gin.Context) {
	var req models.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid query parameters"))
		return
	}

	resp, err := h.pullService.ListTasks(&req)
	if err != nil {
		h.logger.Error("Failed to list tasks: %v", err)
		h.handleError(c, apperrors.WrapInternal(err, "Failed to list tasks"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health performs a health check and returns service status.
//
// Response (200 OK):
//
//	{"status": "ok"}
func (h *PullHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
