// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"testing"
	"time"
)

func TestSessionService_CreateAndValidate(t *testing.T) {
	svc := NewSessionService(time.Hour)

	session := svc.Create("subject-1", "user@example.com")
	if session.ID == "" {
		t.Fatal("Expected non-empty session ID")
	}

	got, ok := svc.Validate(session.ID)
	if !ok {
		t.Fatal("Expected session to be valid")
	}
	if got.Email != "user@example.com" {
		t.Errorf("Expected email 'user@example.com', got '%s'", got.Email)
	}

	if !svc.ValidateSession(session.ID) {
		t.Error("Expected ValidateSession to accept the session")
	}
}

func TestSessionService_Expiry(t *testing.T) {
	svc := NewSessionService(-time.Minute)

	session := svc.Create("subject-1", "user@example.com")

	if _, ok := svc.Validate(session.ID); ok {
		t.Error("Expected expired session to be invalid")
	}
}

func TestSessionService_Delete(t *testing.T) {
	svc := NewSessionService(time.Hour)

	session := svc.Create("subject-1", "user@example.com")
	svc.Delete(session.ID)

	if _, ok := svc.Validate(session.ID); ok {
		t.Error("Expected deleted session to be invalid")
	}
}

func TestSessionService_UnknownID(t *testing.T) {
	svc := NewSessionService(time.Hour)

	if svc.ValidateSession("nope") {
		t.Error("Expected unknown session ID to be invalid")
	}
}
