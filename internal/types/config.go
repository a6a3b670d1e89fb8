// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package types defines configuration types for the Registry Pull application.
package types

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Engine   EngineConfig   // Container engine configuration
	Identity IdentityConfig // Identity provider used by the credential resolver
	CORS     CORSConfig     // CORS policy configuration
	OIDC     OIDCConfig     // OIDC authentication for the API itself
	Log      LogConfig      // Logging configuration
}

// ServerConfig defines HTTP server listening configuration.
type ServerConfig struct {
	Host string // Server listening address (e.g., "0.0.0.0", "127.0.0.1")
	Port int    // Server listening port (e.g., 8080)
}

// EngineConfig defines how the local container engine is invoked.
type EngineConfig struct {
	Binary       string // Engine CLI binary name (default: "docker")
	LoginTimeout int    // Login command timeout in seconds (default: 60)
}

// IdentityConfig defines the identity provider the credential resolver
// delegates to when the client does not supply explicit credentials.
type IdentityConfig struct {
	Issuer       string // Token issuer URL (OIDC discovery endpoint base)
	ClientID     string // Client ID for the client-credentials grant
	ClientSecret string // Client secret for the client-credentials grant
	Scope        string // Token scope requested from the issuer (optional)
	Enabled      bool   // Whether server-side credential resolution is enabled
}

// CORSConfig defines Cross-Origin Resource Sharing policy.
type CORSConfig struct {
	AllowedOrigins []string // Allowed origins (e.g., ["*"], ["https://app.example.com"])
}

// OIDCConfig defines OIDC authentication configuration for the HTTP API.
type OIDCConfig struct {
	ClientID     string // OIDC client ID
	ClientSecret string // OIDC client secret
	Issuer       string // OIDC issuer URL
	RedirectURL  string // OIDC redirect URL after authentication
	Enabled      bool   // Whether OIDC authentication is enabled
}

// LogConfig defines logging behavior.
type LogConfig struct {
	Level string // Log level: debug/info/warn/error (default: info)
}
