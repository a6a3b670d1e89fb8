// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lazycatapps/registry-pull/internal/middleware"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/service"
	"github.com/lazycatapps/registry-pull/internal/types"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const stateCookieName = "oauth_state"

// AuthHandler handles OIDC authentication for the HTTP API.
type AuthHandler struct {
	cfg      *types.OIDCConfig
	sessions *service.SessionService
	logger   logger.Logger
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
}

// NewAuthHandler creates a new AuthHandler instance. When OIDC is disabled
// the handler still serves its routes, reporting authentication as disabled.
func NewAuthHandler(cfg *types.OIDCConfig, sessions *service.SessionService, log logger.Logger) (*AuthHandler, error) {
	h := &AuthHandler{
		cfg:      cfg,
		sessions: sessions,
		logger:   log,
	}

	if !cfg.Enabled {
		return h, nil
	}

	provider, err := oidc.NewProvider(context.Background(), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	h.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	h.oauth = oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return h, nil
}

// Login redirects the client to the OIDC provider's authorization endpoint.
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.cfg.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Authentication is disabled"})
		return
	}

	state := uuid.New().String()
	c.SetCookie(stateCookieName, state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

// Callback completes the OIDC authorization-code flow: it checks the state,
// exchanges the code, verifies the ID token, and creates a session.
func (h *AuthHandler) Callback(c *gin.Context) {
	if !h.cfg.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Authentication is disabled"})
		return
	}

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie == "" || c.Query("state") != stateCookie {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	token, err := h.oauth.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Error("Code exchange failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code exchange failed"})
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No id_token in token response"})
		return
	}

	idToken, err := h.verifier.Verify(c.Request.Context(), rawIDToken)
	if err != nil {
		h.logger.Error("ID token verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid ID token"})
		return
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to parse claims"})
		return
	}

	session := h.sessions.Create(idToken.Subject, claims.Email)
	c.SetCookie(middleware.SessionCookieName, session.ID, 0, "/", "", false, true)

	h.logger.Info("User %s logged in", claims.Email)
	c.Redirect(http.StatusFound, "/")
}

// Logout deletes the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err == nil && cookie != "" {
		h.sessions.Delete(cookie)
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// UserInfo returns the identity bound to the current session.
func (h *AuthHandler) UserInfo(c *gin.Context) {
	if !h.cfg.Enabled {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "enabled": false})
		return
	}

	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "enabled": true})
		return
	}

	session, ok := h.sessions.Validate(cookie)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false, "enabled": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"enabled":       true,
		"email":         session.Email,
		"subject":       session.Subject,
	})
}
