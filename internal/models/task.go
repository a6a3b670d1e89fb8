// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package models defines data structures for the Registry Pull application.
package models

import (
	"sync"
	"time"
)

// PullStatus represents the current state of a pull task.
type PullStatus string

const (
	StatusPending   PullStatus = "pending"   // Task created, not yet started
	StatusRunning   PullStatus = "running"   // Login in progress
	StatusCompleted PullStatus = "completed" // Login succeeded, pull submitted
	StatusFailed    PullStatus = "failed"    // Login failed
)

// PullTask represents one authenticated pull operation.
// It tracks task metadata, status, logs, and provides real-time log streaming
// to clients. The log doubles as the operation's output sink: everything the
// login and pull commands emit is appended here, never to the process logger.
type PullTask struct {
	ID           string        `json:"id"`                // Unique task identifier (UUID)
	LoginServer  string        `json:"loginServer"`       // Registry host name
	ImageRequest string        `json:"imageRequest"`      // Resolved pull request string
	Status       PullStatus    `json:"status"`            // Current task status
	Message      string        `json:"message"`           // Human-readable status message
	Output       string        `json:"output"`            // Complete log output (set when task completes)
	ErrorOutput  string        `json:"errorOutput"`       // Error message (if task failed)
	StartTime    time.Time     `json:"startTime"`         // Task start timestamp
	EndTime      *time.Time    `json:"endTime,omitempty"` // Task end timestamp (nil if not completed)
	LogLines     []string      `json:"-"`                 // In-memory log lines (not serialized)
	LogListeners []chan string `json:"-"`                 // Active log stream subscribers (SSE)
	logMu        sync.Mutex    // Mutex for thread-safe log operations
}

// NewPullTask creates a new pull task with initial pending status.
func NewPullTask(id, loginServer, imageRequest string) *PullTask {
	return &PullTask{
		ID:           id,
		LoginServer:  loginServer,
		ImageRequest: imageRequest,
		Status:       StatusPending,
		Message:      "Task created",
		StartTime:    time.Now(),
		LogLines:     []string{},
		LogListeners: []chan string{},
	}
}

// AddLog appends a log line to the task and broadcasts it to all active listeners.
// Thread-safe for concurrent access.
func (t *PullTask) AddLog(line string) {
	t.logMu.Lock()
	defer t.logMu.Unlock()

	t.LogLines = append(t.LogLines, line)
	// Broadcast to all SSE listeners
	for _, ch := range t.LogListeners {
		select {
		case ch <- line:
			// Successfully sent
		default:
			// Channel is full or closed, skip this listener
		}
	}
}

// AddLogListener creates a new log listener channel for SSE streaming.
// Returns a buffered channel that will receive new log lines.
func (t *PullTask) AddLogListener() chan string {
	t.logMu.Lock()
	defer t.logMu.Unlock()

	ch := make(chan string, 100)
	t.LogListeners = append(t.LogListeners, ch)
	return ch
}

// RemoveLogListener removes and closes a log listener channel.
// Should be called when an SSE client disconnects.
func (t *PullTask) RemoveLogListener(ch chan string) {
	t.logMu.Lock()
	defer t.logMu.Unlock()

	for i, listener := range t.LogListeners {
		if listener == ch {
			t.LogListeners = append(t.LogListeners[:i], t.LogListeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// CloseAllLogListeners closes all active log listener channels.
// Called when the login phase concludes to notify all SSE clients.
func (t *PullTask) CloseAllLogListeners() {
	t.logMu.Lock()
	defer t.logMu.Unlock()

	for _, ch := range t.LogListeners {
		close(ch)
	}
	t.LogListeners = []chan string{}
}

// GetLogLines returns a copy of all log lines.
// Thread-safe for concurrent access.
func (t *PullTask) GetLogLines() []string {
	t.logMu.Lock()
	defer t.logMu.Unlock()

	logs := make([]string, len(t.LogLines))
	copy(logs, t.LogLines)
	return logs
}

// PullRequest represents the request body for creating a pull task.
// It carries the selection tuple chosen by the client: a registry, a
// repository, and either one tag or the pull-all flag.
type PullRequest struct {
	Registry   string `json:"registry" binding:"required"` // Registry host name (required)
	Repository string `json:"repository"`                  // Repository name (required when pullAll is set)
	Tag        string `json:"tag"`                         // Image tag (ignored when pullAll is set)
	PullAll    bool   `json:"pullAll"`                     // Pull every tag in the repository
	Username   string `json:"username"`                    // Explicit registry username (optional)
	Password   string `json:"password"`                    // Explicit registry password (optional)
}

// TaskListRequest represents query parameters for listing tasks.
type TaskListRequest struct {
	Page      int        `form:"page,default=1"`           // Page number (default: 1)
	PageSize  int        `form:"pageSize,default=20"`      // Items per page (default: 20, max: 100)
	Status    PullStatus `form:"status"`                   // Filter by status (optional)
	SortBy    string     `form:"sortBy,default=startTime"` // Sort field (default: startTime)
	SortOrder string     `form:"sortOrder,default=desc"`   // Sort order: asc/desc (default: desc)
}

// TaskSummary represents a summarized view of a task (without full logs).
type TaskSummary struct {
	ID           string     `json:"id"`
	LoginServer  string     `json:"loginServer"`
	ImageRequest string     `json:"imageRequest"`
	Status       PullStatus `json:"status"`
	Message      string     `json:"message"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}

// TaskListResponse represents the response for task list queries.
type TaskListResponse struct {
	Total    int            `json:"total"`    // Total number of tasks matching filter
	Page     int            `json:"page"`     // Current page number
	PageSize int            `json:"pageSize"` // Items per page
	Tasks    []*TaskSummary `json:"tasks"`    // Task summaries for current page
}

// LoginCheck is the best-effort result of probing the engine configuration
// file for an existing login. A probe that cannot read the file reports
// LoggedIn=false rather than an error.
type LoginCheck struct {
	ConfigPath string `json:"configPath"` // Path of the engine configuration file
	LoggedIn   bool   `json:"loggedIn"`   // Whether the file mentions the login server
}

// RegistryQueryRequest represents the request body for registry catalog and
// tag listing endpoints.
type RegistryQueryRequest struct {
	Registry   string `json:"registry" binding:"required"` // Registry host name (required)
	Repository string `json:"repository"`                  // Repository name (required for tag listing)
	Username   string `json:"username"`                    // Registry username (optional)
	Password   string `json:"password"`                    // Registry password (optional)
}

// RepositoryListResponse represents the response for catalog listing.
type RepositoryListResponse struct {
	Repositories []string `json:"repositories"`
}

// TagListResponse represents the response for tag listing.
type TagListResponse struct {
	Tags []string `json:"tags"`
}
