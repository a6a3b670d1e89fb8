// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lazycatapps/registry-pull/internal/models"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
)

const registryQueryTimeout = 30 * time.Second

// RegistryService lists repositories and tags on a remote registry. It
// serves the data a selection client needs before requesting a pull.
type RegistryService interface {
	ListRepositories(req *models.RegistryQueryRequest) (*models.RepositoryListResponse, error)
	ListTags(req *models.RegistryQueryRequest) (*models.TagListResponse, error)
}

// registryService implements the RegistryService interface.
type registryService struct {
	logger logger.Logger
}

// NewRegistryService creates a new RegistryService instance.
func NewRegistryService(log logger.Logger) RegistryService {
	return &registryService{
		logger: log,
	}
}

// ListRepositories returns the registry's repository catalog.
func (s *registryService) ListRepositories(req *models.RegistryQueryRequest) (*models.RepositoryListResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), registryQueryTimeout)
	defer cancel()

	s.logger.Info("Listing repositories on %s", req.Registry)

	repos, err := crane.Catalog(req.Registry, s.craneOptions(ctx, req)...)
	if err != nil {
		s.logger.Error("Failed to list repositories on %s: %v", req.Registry, err)
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	return &models.RepositoryListResponse{Repositories: repos}, nil
}

// ListTags returns all tags of one repository.
func (s *registryService) ListTags(req *models.RegistryQueryRequest) (*models.TagListResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), registryQueryTimeout)
	defer cancel()

	ref := fmt.Sprintf("%s/%s", req.Registry, req.Repository)
	s.logger.Info("Listing tags for %s", ref)

	tags, err := crane.ListTags(ref, s.craneOptions(ctx, req)...)
	if err != nil {
		s.logger.Error("Failed to list tags for %s: %v", ref, err)
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	return &models.TagListResponse{Tags: tags}, nil
}

// craneOptions builds the common crane options for one registry query.
func (s *registryService) craneOptions(ctx context.Context, req *models.RegistryQueryRequest) []crane.Option {
	options := []crane.Option{crane.WithContext(ctx)}
	if req.Username != "" && req.Password != "" {
		options = append(options, crane.WithAuth(&authn.Basic{
			Username: req.Username,
			Password: req.Password,
		}))
	}
	return options
}
