// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines application error types with HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with an associated HTTP status code.
// Handlers unwrap it with errors.As to build the HTTP response.
type AppError struct {
	StatusCode int    // HTTP status code to return
	Message    string // User-facing error message
	Err        error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapInvalidInput wraps an error as a 400 Bad Request.
func WrapInvalidInput(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

// WrapInternal wraps an error as a 500 Internal Server Error.
func WrapInternal(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// WrapTaskNotFound wraps an error as a 404 Not Found.
func WrapTaskNotFound(err error) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: "Task not found", Err: err}
}

// WrapUnauthorized wraps an error as a 401 Unauthorized.
func WrapUnauthorized(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message, Err: err}
}

// AuthResolutionError indicates the credential provider failed to produce
// registry credentials. The provider's error is surfaced verbatim.
type AuthResolutionError struct {
	Err error
}

func (e *AuthResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve registry credentials: %v", e.Err)
}

func (e *AuthResolutionError) Unwrap() error {
	return e.Err
}

// CredentialStoreDefectError indicates the container engine failed to store
// the credential because of a known defect in the platform's default
// secret-storage backend. Remediation is manual; the message carries the
// instruction, including the path of the engine configuration file to edit.
type CredentialStoreDefectError struct {
	ConfigPath string
	Err        error
}

func (e *CredentialStoreDefectError) Error() string {
	return fmt.Sprintf(
		"the login failed because the credential store could not save the credential. "+
			"Open %s and remove the \"credsStore\" setting, then try again. "+
			"Note: this stores credentials in plaintext in that file and logs out all currently authenticated registries.",
		e.ConfigPath)
}

func (e *CredentialStoreDefectError) Unwrap() error {
	return e.Err
}

// LoginError indicates the engine login command failed for any reason other
// than the known credential-store defect.
type LoginError struct {
	Detail string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry login failed: %v", e.Err)
	}
	return fmt.Sprintf("registry login failed: %s", e.Detail)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
