// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package handler

import (
	"errors"
	"net/http"

	"github.com/lazycatapps/registry-pull/internal/models"
	apperrors "github.com/lazycatapps/registry-pull/internal/pkg/errors"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/pkg/validator"
	"github.com/lazycatapps/registry-pull/internal/service"

	"github.com/gin-gonic/gin"
)

// RegistryHandler handles HTTP requests for registry catalog and tag queries.
type RegistryHandler struct {
	registryService service.RegistryService
	logger          logger.Logger
}

// NewRegistryHandler creates a new RegistryHandler instance.
func NewRegistryHandler(registryService service.RegistryService, log logger.Logger) *RegistryHandler {
	return &RegistryHandler{
		registryService: registryService,
		logger:          log,
	}
}

// handleError processes errors and sends appropriate HTTP responses.
func (h *RegistryHandler) handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message})
	} else {
		h.logger.Error("Unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindQuery binds and validates the common registry query request body.
func (h *RegistryHandler) bindQuery(c *gin.Context, requireRepository bool) (*models.RegistryQueryRequest, bool) {
	var req models.RegistryQueryRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid request body"))
		return nil, false
	}

	if err := validator.ValidateRegistryHost(req.Registry); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid registry"))
		return nil, false
	}

	if requireRepository {
		if err := validator.ValidateRepositoryName(req.Repository); err != nil {
			h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid repository"))
			return nil, false
		}
	}

	if err := validator.ValidateCredentials(req.Username, req.Password); err != nil {
		h.handleError(c, apperrors.WrapInvalidInput(err, "Invalid credentials"))
		return nil, false
	}

	return &req, true
}

// ListRepositories lists the repository catalog of a registry.
//
// Request body (JSON):
//   - registry (required): Registry host name
//   - username, password (optional): Registry credentials
//
// Response (200 OK):
//
//	{"repositories": ["webapp", "team/api"]}
//
// Error responses: 400 (invalid input), 500 (query failed)
func (h *RegistryHandler) ListRepositories(c *gin.Context) {
	req, ok := h.bindQuery(c, false)
	if !ok {
		return
	}

	resp, err := h.registryService.ListRepositories(req)
	if err != nil {
		h.handleError(c, apperrors.WrapInternal(err, "Failed to list repositories"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListTags lists all tags of one repository.
//
// Request body (JSON):
//   - registry (required): Registry host name
//   - repository (required): Repository name
//   - username, password (optional): Registry credentials
//
// Response (200 OK):
//
//	{"tags": ["v1", "v2", "latest"]}
//
// Error responses: 400 (invalid input), 500 (query failed)
func (h *RegistryHandler) ListTags(c *gin.Context) {
	req, ok := h.bindQuery(c, true)
	if !ok {
		return
	}

	resp, err := h.registryService.ListTags(req)
	if err != nil {
		h.handleError(c, apperrors.WrapInternal(err, "Failed to list tags"))
		return
	}

	c.JSON(http.StatusOK, resp)
}
