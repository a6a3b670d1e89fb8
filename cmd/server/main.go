// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for the Registry Pull server application.
// It initializes all dependencies, configures the server, and starts the HTTP service.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lazycatapps/registry-pull/internal/handler"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/pkg/telemetry"
	"github.com/lazycatapps/registry-pull/internal/repository"
	"github.com/lazycatapps/registry-pull/internal/router"
	"github.com/lazycatapps/registry-pull/internal/service"
	"github.com/lazycatapps/registry-pull/internal/types"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd is the root command for the CLI application.
// It defines the application name, description, and the main execution function.
var rootCmd = &cobra.Command{
	Use:   "registry-pull",
	Short: "Registry Pull - Authenticated container image pull service",
	Long:  `A web service that resolves registry credentials, logs the local container engine in non-interactively, and pulls one or all tags of a repository.`,
	Run:   runServer,
}

// init initializes command-line flags and environment variable bindings.
// It sets up the following configuration options:
//   - --host: Server listening address (default: 0.0.0.0)
//   - --port: Server listening port (default: 8080)
//   - --engine: Container engine CLI binary (default: docker)
//   - --login-timeout: Engine login timeout in seconds (default: 60)
//   - --cors-allowed-origins: CORS allowed origins (default: *)
//   - --log-level: Log level (default: info)
//   - --identity-*: Identity provider for server-side credential resolution
//   - --oidc-*: OIDC authentication for the API itself
//
// Environment variables are supported with PULL_ prefix and underscores replacing hyphens.
// For example: PULL_IDENTITY_ISSUER for --identity-issuer.
func init() {
	rootCmd.Flags().String("host", "0.0.0.0", "Server host")
	rootCmd.Flags().IntP("port", "p", 8080, "Server port")
	rootCmd.Flags().String("engine", "docker", "Container engine CLI binary")
	rootCmd.Flags().Int("login-timeout", 60, "Engine login timeout in seconds")
	rootCmd.Flags().StringSlice("cors-allowed-origins", []string{"*"}, "CORS allowed origins")
	rootCmd.Flags().String("log-level", "info", "Log level (debug/info/warn/error)")
	rootCmd.Flags().String("identity-issuer", "", "Identity provider issuer URL for credential resolution")
	rootCmd.Flags().String("identity-client-id", "", "Identity provider client ID")
	rootCmd.Flags().String("identity-client-secret", "", "Identity provider client secret")
	rootCmd.Flags().String("identity-scope", "", "Token scope requested from the identity provider")
	rootCmd.Flags().String("oidc-client-id", "", "OIDC client ID")
	rootCmd.Flags().String("oidc-client-secret", "", "OIDC client secret")
	rootCmd.Flags().String("oidc-issuer", "", "OIDC issuer URL")
	rootCmd.Flags().String("oidc-redirect-url", "", "OIDC redirect URL")

	viper.BindPFlags(rootCmd.Flags())

	// Set environment variable prefix to "PULL"
	viper.SetEnvPrefix("PULL")
	viper.AutomaticEnv()
	// Replace hyphens with underscores in environment variable names
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// runServer is the main server execution function.
// It performs the following steps:
//  1. Loads configuration from command-line flags and environment variables
//  2. Initializes logger and telemetry
//  3. Creates repository for task storage (in-memory)
//  4. Initializes services (pull, credential, registry, engine config, session)
//  5. Sets up HTTP handlers (including auth handler if OIDC enabled)
//  6. Configures routing and middleware
//  7. Starts the HTTP server
func runServer(cmd *cobra.Command, args []string) {
	// Load configuration from viper
	identityIssuer := viper.GetString("identity-issuer")
	identityClientID := viper.GetString("identity-client-id")
	identityClientSecret := viper.GetString("identity-client-secret")
	oidcClientID := viper.GetString("oidc-client-id")
	oidcClientSecret := viper.GetString("oidc-client-secret")
	oidcIssuer := viper.GetString("oidc-issuer")
	oidcRedirectURL := viper.GetString("oidc-redirect-url")

	cfg := &types.Config{
		Server: types.ServerConfig{
			Host: viper.GetString("host"),
			Port: viper.GetInt("port"),
		},
		Engine: types.EngineConfig{
			Binary:       viper.GetString("engine"),
			LoginTimeout: viper.GetInt("login-timeout"),
		},
		Identity: types.IdentityConfig{
			Issuer:       identityIssuer,
			ClientID:     identityClientID,
			ClientSecret: identityClientSecret,
			Scope:        viper.GetString("identity-scope"),
			Enabled:      identityIssuer != "" && identityClientID != "" && identityClientSecret != "",
		},
		CORS: types.CORSConfig{
			AllowedOrigins: viper.GetStringSlice("cors-allowed-origins"),
		},
		OIDC: types.OIDCConfig{
			ClientID:     oidcClientID,
			ClientSecret: oidcClientSecret,
			Issuer:       oidcIssuer,
			RedirectURL:  oidcRedirectURL,
			Enabled:      oidcClientID != "" && oidcClientSecret != "" && oidcIssuer != "",
		},
		Log: types.LogConfig{
			Level: viper.GetString("log-level"),
		},
	}

	// Initialize logger and telemetry
	log := logger.NewWithLevel(cfg.Log.Level)
	reporter := telemetry.NewLoggerReporter(log)

	if cfg.Identity.Enabled {
		log.Info("Credential resolution enabled")
		log.Info("  Issuer: %s", cfg.Identity.Issuer)
		log.Info("  Client ID: %s", cfg.Identity.ClientID)
		log.Info("  Client Secret: %s", maskSecret(cfg.Identity.ClientSecret))
	} else {
		log.Info("Credential resolution disabled; clients must supply explicit credentials")
	}

	if cfg.OIDC.Enabled {
		log.Info("OIDC authentication enabled")
		log.Info("  Issuer: %s", cfg.OIDC.Issuer)
		log.Info("  Client ID: %s", cfg.OIDC.ClientID)
		log.Info("  Redirect URL: %s", cfg.OIDC.RedirectURL)
		log.Info("  Client Secret: %s", maskSecret(cfg.OIDC.ClientSecret))
	} else {
		log.Info("OIDC authentication disabled")
	}

	// Compute the engine configuration file path used for login probes and
	// credential-store remediation messages
	configPath, err := service.EngineConfigPath()
	if err != nil {
		log.Error("Failed to determine home directory: %v", err)
		return
	}

	// Initialize repository (in-memory task storage)
	taskRepo := repository.NewInMemoryTaskRepository()

	// Initialize services
	loginRunner := service.NewExecLoginRunner(cfg.Engine.Binary, time.Duration(cfg.Engine.LoginTimeout)*time.Second)
	console := service.NewExecConsole(cfg.Engine.Binary, taskRepo, log)
	pullService := service.NewPullService(taskRepo, loginRunner, console, log, cfg.Engine.Binary, configPath)
	engineService := service.NewEngineConfigService(configPath, reporter)
	registryService := service.NewRegistryService(log)
	sessionService := service.NewSessionService(7 * 24 * time.Hour) // 7 days session TTL

	var credService service.CredentialService
	if cfg.Identity.Enabled {
		credService, err = service.NewCredentialService(context.Background(), &cfg.Identity, log)
		if err != nil {
			log.Error("Failed to initialize credential service: %v", err)
			return
		}
	}

	// Initialize HTTP handlers
	pullHandler := handler.NewPullHandler(pullService, credService, engineService, log)
	registryHandler := handler.NewRegistryHandler(registryService, log)

	// Initialize auth handler
	authHandler, err := handler.NewAuthHandler(&cfg.OIDC, sessionService, log)
	if err != nil {
		log.Error("Failed to initialize auth handler: %v", err)
		return
	}

	// Set up router and middleware
	router := router.New(pullHandler, registryHandler, authHandler, sessionService)
	engine := router.Setup(cfg)

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Server starting on %s (engine: %s)", addr, cfg.Engine.Binary)
	if err := engine.Run(addr); err != nil {
		log.Error("Failed to start server: %v", err)
	}
}

// maskSecret masks a secret string for logging.
// Shows first 4 characters if length > 8, otherwise shows masked string.
func maskSecret(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***"
}

// main is the application entry point.
func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
