// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/lazycatapps/registry-pull/internal/models"
	"github.com/lazycatapps/registry-pull/internal/pkg/telemetry"
)

// EngineConfigService inspects the container engine's persisted
// configuration. The file is owned by the engine; this service only ever
// reads it.
type EngineConfigService interface {
	ConfigPath() string
	CheckLogin(loginServer string) models.LoginCheck
}

// engineConfigService implements EngineConfigService.
type engineConfigService struct {
	configPath string
	reporter   telemetry.Reporter
}

// NewEngineConfigService creates an EngineConfigService for the given
// configuration file path. Read failures are reported to the given
// telemetry reporter and nowhere else.
func NewEngineConfigService(configPath string, reporter telemetry.Reporter) EngineConfigService {
	return &engineConfigService{
		configPath: configPath,
		reporter:   reporter,
	}
}

// EngineConfigPath returns the expected engine configuration file path,
// <home>/.docker/config.json.
func EngineConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docker", "config.json"), nil
}

// ConfigPath returns the configuration file path this service inspects.
func (s *engineConfigService) ConfigPath() string {
	return s.configPath
}

// CheckLogin reports whether the engine configuration file mentions the
// given login server. This is a raw substring probe, not a parse of the
// engine's auth map: it can false-positive when the host appears in an
// unrelated field. The probe is best-effort by contract — a read failure
// (missing file included) degrades to LoggedIn=false and is reported only
// to telemetry, never to the caller.
func (s *engineConfigService) CheckLogin(loginServer string) models.LoginCheck {
	check := models.LoginCheck{ConfigPath: s.configPath}

	content, err := os.ReadFile(s.configPath)
	if err != nil {
		s.reporter.ReportError("engine-config-read", err, map[string]string{
			"path": s.configPath,
		})
		return check
	}

	check.LoggedIn = bytes.Contains(content, []byte(loginServer))
	return check
}
