// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package validator provides input validation for API request fields.
package validator

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxHostLength       = 255
	maxRepositoryLength = 255
	maxTagLength        = 128
	maxUsernameLength   = 255
	maxPasswordLength   = 4096
)

var (
	// registryHostPattern matches a registry host with optional port,
	// e.g. "contoso.azurecr.io" or "localhost:5000".
	registryHostPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?(:[0-9]{1,5})?$`)

	// repositoryPattern matches an image repository path,
	// e.g. "webapp" or "team/webapp".
	repositoryPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

	// tagPattern matches an image tag, optionally repository-qualified,
	// e.g. "v2" or "webapp:v2".
	tagPattern = regexp.MustCompile(`^([a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*:)?[a-zA-Z0-9_][a-zA-Z0-9._-]*$`)
)

// ValidateRegistryHost checks that a registry host name is well-formed.
func ValidateRegistryHost(host string) error {
	if host == "" {
		return fmt.Errorf("registry host must not be empty")
	}
	if len(host) > maxHostLength {
		return fmt.Errorf("registry host exceeds %d characters", maxHostLength)
	}
	if !registryHostPattern.MatchString(host) {
		return fmt.Errorf("invalid registry host: %q", host)
	}
	return nil
}

// ValidateRepositoryName checks that a repository name is well-formed.
func ValidateRepositoryName(name string) error {
	if name == "" {
		return fmt.Errorf("repository name must not be empty")
	}
	if len(name) > maxRepositoryLength {
		return fmt.Errorf("repository name exceeds %d characters", maxRepositoryLength)
	}
	if !repositoryPattern.MatchString(name) {
		return fmt.Errorf("invalid repository name: %q", name)
	}
	return nil
}

// ValidateTag checks that an image tag is well-formed. An empty tag is
// allowed (pull-all selections carry no tag).
func ValidateTag(tag string) error {
	if tag == "" {
		return nil
	}
	if len(tag) > maxTagLength {
		return fmt.Errorf("tag exceeds %d characters", maxTagLength)
	}
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("invalid tag: %q", tag)
	}
	return nil
}

// ValidateCredentials checks username/password pairs supplied by clients.
// The password must not contain control characters: it is streamed to a
// process stdin pipe terminated by closing the pipe, so an embedded newline
// would truncate the secret.
func ValidateCredentials(username, password string) error {
	// Both empty means "resolve credentials server-side"
	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("username and password must be provided together")
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("username exceeds %d characters", maxUsernameLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password exceeds %d characters", maxPasswordLength)
	}
	if strings.ContainsAny(username, "\r\n\x00") {
		return fmt.Errorf("username contains control characters")
	}
	if strings.ContainsAny(password, "\r\n\x00") {
		return fmt.Errorf("password contains control characters")
	}
	return nil
}
