// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package validator

import (
	"strings"
	"testing"
)

func TestValidateRegistryHost(t *testing.T) {
	valid := []string{
		"contoso.azurecr.io",
		"registry.example.com",
		"localhost:5000",
		"10.0.0.1:8443",
	}
	for _, host := range valid {
		if err := ValidateRegistryHost(host); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", host, err)
		}
	}

	invalid := []string{
		"",
		"host with spaces",
		"host;rm -rf /",
		"host\nname",
		strings.Repeat("a", 300),
	}
	for _, host := range invalid {
		if err := ValidateRegistryHost(host); err == nil {
			t.Errorf("Expected '%s' to be invalid", host)
		}
	}
}

func TestValidateRepositoryName(t *testing.T) {
	valid := []string{"webapp", "team/webapp", "a/b/c", "my-app_1.0"}
	for _, name := range valid {
		if err := ValidateRepositoryName(name); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", name, err)
		}
	}

	invalid := []string{"", "Webapp", "app;id", "app name", "/leading"}
	for _, name := range invalid {
		if err := ValidateRepositoryName(name); err == nil {
			t.Errorf("Expected '%s' to be invalid", name)
		}
	}
}

func TestValidateTag(t *testing.T) {
	valid := []string{"", "v2", "latest", "1.0.0-rc1", "webapp:v2", "team/webapp:v2"}
	for _, tag := range valid {
		if err := ValidateTag(tag); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", tag, err)
		}
	}

	invalid := []string{"v2;id", "v 2", "-v2", strings.Repeat("a", 200)}
	for _, tag := range invalid {
		if err := ValidateTag(tag); err == nil {
			t.Errorf("Expected '%s' to be invalid", tag)
		}
	}
}

func TestValidateCredentials(t *testing.T) {
	if err := ValidateCredentials("", ""); err != nil {
		t.Errorf("Expected empty credentials to be valid, got %v", err)
	}

	if err := ValidateCredentials("user", "password"); err != nil {
		t.Errorf("Expected complete credentials to be valid, got %v", err)
	}

	if err := ValidateCredentials("user", ""); err == nil {
		t.Error("Expected username without password to be invalid")
	}

	if err := ValidateCredentials("user", "pass\nword"); err == nil {
		t.Error("Expected password with newline to be invalid")
	}

	if err := ValidateCredentials("us\rer", "password"); err == nil {
		t.Error("Expected username with carriage return to be invalid")
	}
}
