// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lazycatapps/registry-pull/internal/models"
	apperrors "github.com/lazycatapps/registry-pull/internal/pkg/errors"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/types"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// tokenUsername is the fixed principal registries accept together with a
// refresh token obtained through the token exchange endpoint.
const tokenUsername = "00000000-0000-0000-0000-000000000000"

// CredentialService resolves a registry selection into login credentials.
type CredentialService interface {
	ResolveLoginCredentials(ctx context.Context, loginServer string) (*models.Credentials, error)
}

// credentialService implements CredentialService by delegating to the
// configured identity provider: a client-credentials token from the issuer
// is exchanged at the registry's token endpoint for a refresh token. The
// flow works for any authenticated principal and does not depend on a
// locally installed cloud CLI.
type credentialService struct {
	tokens oauth2.TokenSource
	client *http.Client
	scheme string
	logger logger.Logger
}

// NewCredentialService creates a CredentialService. The issuer's token
// endpoint is located through OIDC discovery.
func NewCredentialService(ctx context.Context, cfg *types.IdentityConfig, log logger.Logger) (CredentialService, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover identity provider: %w", err)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
	}
	if cfg.Scope != "" {
		cc.Scopes = []string{cfg.Scope}
	}

	return &credentialService{
		tokens: cc.TokenSource(ctx),
		client: http.DefaultClient,
		scheme: "https",
		logger: log,
	}, nil
}

// ResolveLoginCredentials obtains a (username, password) pair for the given
// login server. Provider failures are surfaced unmodified, wrapped as an
// AuthResolutionError; nothing is retried here.
func (s *credentialService) ResolveLoginCredentials(ctx context.Context, loginServer string) (*models.Credentials, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, &apperrors.AuthResolutionError{Err: err}
	}

	refreshToken, err := s.exchangeForRegistryToken(ctx, loginServer, token.AccessToken)
	if err != nil {
		return nil, &apperrors.AuthResolutionError{Err: err}
	}

	// The password is streamed to a process stdin pipe terminated by
	// closing the pipe; an embedded newline would truncate it.
	if strings.ContainsAny(refreshToken, "\r\n") {
		return nil, &apperrors.AuthResolutionError{
			Err: fmt.Errorf("registry token contains line breaks"),
		}
	}

	s.logger.Debug("Resolved credentials for %s", loginServer)

	return &models.Credentials{
		Username: tokenUsername,
		Password: refreshToken,
	}, nil
}

// exchangeForRegistryToken trades an identity access token for a registry
// refresh token at the registry's oauth2/exchange endpoint.
func (s *credentialService) exchangeForRegistryToken(ctx context.Context, loginServer, accessToken string) (string, error) {
	form := url.Values{
		"grant_type":   {"access_token"},
		"service":      {loginServer},
		"access_token": {accessToken},
	}

	endpoint := fmt.Sprintf("%s://%s/oauth2/exchange", s.scheme, loginServer)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token exchange response: %w", err)
	}
	if result.RefreshToken == "" {
		return "", fmt.Errorf("token exchange response contained no refresh token")
	}

	return result.RefreshToken, nil
}
