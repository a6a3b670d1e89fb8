// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package models

import "testing"

func TestImageRequest_String_PullAll(t *testing.T) {
	req := NewImageRequest("webapp", "", true)

	if got := req.String(); got != "webapp -a" {
		t.Errorf("Expected 'webapp -a', got '%s'", got)
	}
}

func TestImageRequest_String_SingleTag(t *testing.T) {
	req := NewImageRequest("webapp", "v2", false)

	if got := req.String(); got != "v2" {
		t.Errorf("Expected 'v2', got '%s'", got)
	}
}

func TestImageRequest_String_QualifiedTag(t *testing.T) {
	req := NewImageRequest("", "webapp:v2", false)

	if got := req.String(); got != "webapp:v2" {
		t.Errorf("Expected 'webapp:v2', got '%s'", got)
	}
}

func TestImageRequest_String_PullAllIgnoresTag(t *testing.T) {
	// Pull-all wins when both a tag and the flag arrive in one selection.
	req := NewImageRequest("webapp", "v2", true)

	if got := req.String(); got != "webapp -a" {
		t.Errorf("Expected 'webapp -a', got '%s'", got)
	}
}
