// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the API session identifier.
const SessionCookieName = "session_id"

// SessionValidator checks whether a session identifier is valid.
type SessionValidator interface {
	ValidateSession(id string) bool
}

// Auth returns a middleware that rejects unauthenticated requests when
// authentication is enabled. Health and auth endpoints stay public so a
// client can always probe the service and start the login flow.
func Auth(enabled bool, validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if strings.HasSuffix(path, "/health") || strings.Contains(path, "/auth/") {
			c.Next()
			return
		}

		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || !validator.ValidateSession(cookie) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}
