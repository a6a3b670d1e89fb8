// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package router provides HTTP routing configuration for the Registry Pull server.
package router

import (
	"github.com/lazycatapps/registry-pull/internal/handler"
	"github.com/lazycatapps/registry-pull/internal/middleware"
	"github.com/lazycatapps/registry-pull/internal/types"

	"github.com/gin-gonic/gin"
)

// Router manages HTTP request routing and handler registration.
// It holds references to all HTTP handlers (pull, registry, auth).
type Router struct {
	pullHandler      *handler.PullHandler
	registryHandler  *handler.RegistryHandler
	authHandler      *handler.AuthHandler
	sessionValidator middleware.SessionValidator
}

// New creates a new Router instance with the provided handlers.
func New(pullHandler *handler.PullHandler, registryHandler *handler.RegistryHandler, authHandler *handler.AuthHandler, sessionValidator middleware.SessionValidator) *Router {
	return &Router{
		pullHandler:      pullHandler,
		registryHandler:  registryHandler,
		authHandler:      authHandler,
		sessionValidator: sessionValidator,
	}
}

// Setup initializes the Gin engine with middleware and routes.
// It configures the following middleware in order:
//  1. gin.Logger() - HTTP request logging
//  2. gin.Recovery() - Panic recovery
//  3. CORS - Cross-Origin Resource Sharing
//  4. Auth - OIDC authentication (if enabled)
//
// Returns a configured *gin.Engine ready to serve HTTP requests.
func (r *Router) Setup(cfg *types.Config) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	engine.Use(middleware.Auth(cfg.OIDC.Enabled, r.sessionValidator))

	// Disable trusted proxy feature for security
	engine.SetTrustedProxies(nil)

	r.registerRoutes(engine)

	return engine
}

// registerRoutes registers all API routes under /api/v1 prefix.
// Available endpoints:
//   - GET    /health                 - Health check
//   - GET    /auth/login             - Redirect to OIDC provider for login
//   - GET    /auth/callback          - OIDC callback handler
//   - POST   /auth/logout            - Logout current user
//   - GET    /auth/userinfo          - Get current user information
//   - GET    /pull                   - List pull tasks with pagination and filtering
//   - POST   /pull                   - Create a new authenticated pull task
//   - GET    /pull/:id               - Get pull task status and details
//   - GET    /pull/:id/logs          - Stream pull task logs via SSE
//   - GET    /registry/login-check   - Probe engine config for an existing login
//   - POST   /registry/repositories  - List the repository catalog of a registry
//   - POST   /registry/tags          - List all tags of a repository
func (r *Router) registerRoutes(engine *gin.Engine) {
	api := engine.Group("/api/v1")
	{
		// Public endpoints (no auth required)
		api.GET("/health", r.pullHandler.Health)

		// Auth endpoints
		auth := api.Group("/auth")
		{
			auth.GET("/login", r.authHandler.Login)
			auth.GET("/callback", r.authHandler.Callback)
			auth.POST("/logout", r.authHandler.Logout)
			auth.GET("/userinfo", r.authHandler.UserInfo)
		}

		// Protected endpoints (require auth if OIDC enabled)
		api.GET("/pull", r.pullHandler.ListTasks)
		api.POST("/pull", r.pullHandler.CreatePull)
		api.GET("/pull/:id", r.pullHandler.GetPullStatus)
		api.GET("/pull/:id/logs", r.pullHandler.StreamLogs)
		api.GET("/registry/login-check", r.pullHandler.CheckLogin)
		api.POST("/registry/repositories", r.registryHandler.ListRepositories)
		api.POST("/registry/tags", r.registryHandler.ListTags)
	}
}
