// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package service provides business logic for authenticated registry pulls.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/lazycatapps/registry-pull/internal/models"
	apperrors "github.com/lazycatapps/registry-pull/internal/pkg/errors"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/repository"

	"github.com/google/uuid"
)

const (
	// passwordMask replaces the secret in echoed command lines.
	passwordMask = "***"

	// Fragments identifying the known credential-store defect of the
	// platform's default secret-storage backend. Both must match. The
	// wording is owned by the upstream credential helper; if it changes,
	// detection degrades to a generic login failure.
	credStoreErrFragment  = "error storing credentials"
	credStoreStubFragment = "The stub received bad data"
)

// PullService defines the interface for authenticated pull operations.
type PullService interface {
	CreatePullTask(req *models.PullRequest) (string, error)
	GetTask(id string) (*models.PullTask, error)
	ExecutePull(taskID string, creds *models.Credentials) error
	ListTasks(req *models.TaskListRequest) (*models.TaskListResponse, error)
}

// LoginRunner executes the engine's non-interactive login command.
// The password is delivered through the process input stream only; it never
// appears in the argument list or environment.
type LoginRunner interface {
	RunLogin(loginServer, username, password string) (stdout, stderr string, err error)
}

// pullService implements the PullService interface.
type pullService struct {
	repo       repository.TaskRepository
	runner     LoginRunner
	console    Console
	logger     logger.Logger
	binary     string
	configPath string
}

// NewPullService creates a new PullService instance. configPath is the
// engine configuration file path used in credential-store remediation
// messages; it is never read by this service.
func NewPullService(repo repository.TaskRepository, runner LoginRunner, console Console, log logger.Logger, binary, configPath string) PullService {
	return &pullService{
		repo:       repo,
		runner:     runner,
		console:    console,
		logger:     log,
		binary:     binary,
		configPath: configPath,
	}
}

// CreatePullTask resolves the selection into a uniform image request and
// creates a pending task record.
func (s *pullService) CreatePullTask(req *models.PullRequest) (string, error) {
	taskID := uuid.New().String()

	request := models.NewImageRequest(req.Repository, req.Tag, req.PullAll)
	task := models.NewPullTask(taskID, req.Registry, request.String())

	if err := s.repo.Create(task); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	return taskID, nil
}

// GetTask retrieves a task by ID from the repository.
func (s *pullService) GetTask(id string) (*models.PullTask, error) {
	return s.repo.Get(id)
}

// ExecutePull runs the login-then-pull protocol for a previously created
// task. It logs in to the task's registry with the given credentials,
// classifies the outcome, and on success submits the pull command to the
// console. The pull itself is not awaited: submitting it is this method's
// final action, and its outcome is only visible in the task log.
// This method runs asynchronously and should be called in a goroutine.
func (s *pullService) ExecutePull(taskID string, creds *models.Credentials) error {
	task, err := s.repo.Get(taskID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}

	task.Status = models.StatusRunning
	task.Message = "Logging in..."
	if err := s.repo.Update(task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	task.AddLog(fmt.Sprintf("Task started at %s", time.Now().Format(time.RFC3339)))

	// Echo the command with the secret masked. The real invocation reads
	// the password from stdin, so the placeholder stands in for the flag
	// value a user would have typed.
	task.AddLog(fmt.Sprintf("Executing: %s login %s --username %s --password %s",
		s.binary, task.LoginServer, creds.Username, passwordMask))
	s.logger.Info("[%s] Logging in to %s as %s", taskID, task.LoginServer, creds.Username)

	stdout, stderr, runErr := s.runner.RunLogin(task.LoginServer, creds.Username, creds.Password)

	// Both streams go to the output sink before the outcome is decided, so
	// the user always has the supporting detail.
	appendLines(task, stdout)
	appendLines(task, stderr)

	if loginErr := s.classifyLogin(stderr, runErr); loginErr != nil {
		return s.failTask(task, loginErr)
	}

	task.Status = models.StatusCompleted
	task.Message = "Login succeeded, pull submitted"
	if err := s.repo.Update(task); err != nil {
		s.logger.Error("[%s] Failed to update task status: %v", taskID, err)
	}

	s.logger.Info("[%s] Login succeeded, submitting pull", taskID)
	s.console.Submit(task, fmt.Sprintf("pull %s/%s", task.LoginServer, task.ImageRequest))

	return nil
}

// classifyLogin maps the login command's outcome to one of three failure
// kinds, or nil for success. Evaluation order is significant: the known
// credential-store defect is checked before the generic process error, and
// a non-empty diagnostic stream fails the login even when the process
// exited cleanly.
func (s *pullService) classifyLogin(stderr string, runErr error) error {
	if runErr != nil {
		if isCredentialStoreDefect(runErr, stderr) {
			return &apperrors.CredentialStoreDefectError{ConfigPath: s.configPath, Err: runErr}
		}
		return &apperrors.LoginError{Err: runErr}
	}
	if strings.TrimSpace(stderr) != "" {
		return &apperrors.LoginError{Detail: strings.TrimSpace(stderr)}
	}
	return nil
}

// isCredentialStoreDefect reports whether the login failure matches the
// documented defect of the platform's default secret-storage backend.
func isCredentialStoreDefect(runErr error, stderr string) bool {
	text := stderr
	if runErr != nil {
		text += "\n" + runErr.Error()
	}
	return strings.Contains(text, credStoreErrFragment) &&
		strings.Contains(text, credStoreStubFragment)
}

// failTask finalizes a task as failed and returns the classified error.
func (s *pullService) failTask(task *models.PullTask, cause error) error {
	task.AddLog(fmt.Sprintf("Login failed: %v", cause))
	s.logger.Error("[%s] Login failed: %v", task.ID, cause)

	task.CloseAllLogListeners()

	endTime := time.Now()
	task.EndTime = &endTime
	task.Status = models.StatusFailed
	task.Message = "Login failed"
	task.ErrorOutput = cause.Error()
	task.Output = strings.Join(task.GetLogLines(), "\n")

	if err := s.repo.Update(task); err != nil {
		s.logger.Error("[%s] Failed to update task: %v", task.ID, err)
	}

	return cause
}

// appendLines splits command output into lines and appends the non-empty
// ones to the task log.
func appendLines(task *models.PullTask, output string) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			task.AddLog(line)
		}
	}
}

// ListTasks retrieves a paginated and filtered list of pull tasks.
// It supports filtering by status, sorting, and pagination.
func (s *pullService) ListTasks(req *models.TaskListRequest) (*models.TaskListResponse, error) {
	tasks, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	// Filter by status if specified
	filtered := tasks
	if req.Status != "" {
		filtered = []*models.PullTask{}
		for _, task := range tasks {
			if task.Status == req.Status {
				filtered = append(filtered, task)
			}
		}
	}

	// Sort tasks
	sortTasks(filtered, req.SortBy, req.SortOrder)

	// Pagination
	total := len(filtered)
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pagedTasks := filtered[start:end]

	// Convert to summary format (excludes full logs)
	summaries := make([]*models.TaskSummary, len(pagedTasks))
	for i, task := range pagedTasks {
		summaries[i] = &models.TaskSummary{
			ID:           task.ID,
			LoginServer:  task.LoginServer,
			ImageRequest: task.ImageRequest,
			Status:       task.Status,
			Message:      task.Message,
			StartTime:    task.StartTime,
			EndTime:      task.EndTime,
		}
	}

	return &models.TaskListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Tasks:    summaries,
	}, nil
}

// sortTasks sorts a slice of tasks in-place using bubble sort.
// Supports sorting by startTime or endTime, in ascending or descending order.
func sortTasks(tasks []*models.PullTask, sortBy, sortOrder string) {
	if len(tasks) <= 1 {
		return
	}

	// Simple bubble sort for small datasets (sufficient for task lists)
	for i := 0; i < len(tasks)-1; i++ {
		for j := 0; j < len(tasks)-i-1; j++ {
			shouldSwap := false
			if sortBy == "endTime" {
				t1 := tasks[j].EndTime
				t2 := tasks[j+1].EndTime
				// Handle nil endTime (for running tasks)
				if t1 == nil && t2 != nil {
					shouldSwap = sortOrder == "asc"
				} else if t1 != nil && t2 == nil {
					shouldSwap = sortOrder == "desc"
				} else if t1 != nil && t2 != nil {
					if sortOrder == "desc" {
						shouldSwap = t1.Before(*t2)
					} else {
						shouldSwap = t1.After(*t2)
					}
				}
			} else {
				// Default to startTime
				if sortOrder == "desc" {
					shouldSwap = tasks[j].StartTime.Before(tasks[j+1].StartTime)
				} else {
					shouldSwap = tasks[j].StartTime.After(tasks[j+1].StartTime)
				}
			}
			if shouldSwap {
				tasks[j], tasks[j+1] = tasks[j+1], tasks[j]
			}
		}
	}
}

// execLoginRunner implements LoginRunner with the engine CLI.
type execLoginRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecLoginRunner creates a LoginRunner that invokes the engine binary.
func NewExecLoginRunner(binary string, timeout time.Duration) LoginRunner {
	return &execLoginRunner{binary: binary, timeout: timeout}
}

// RunLogin runs `<binary> login <server> --username <user> --password-stdin`,
// writes the password to the process input stream, closes the stream to
// signal end-of-input, and waits for the process to exit. The write and
// close happen exactly once per attempt, regardless of how the process
// terminates. There is no cancellation once the command has been launched:
// the secret has already been transmitted at that point.
func (r *execLoginRunner) RunLogin(loginServer, username, password string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// #nosec G204 -- inputs validated at the API boundary; password via stdin, not argv.
	cmd := exec.CommandContext(ctx, r.binary, "login", loginServer, "--username", username, "--password-stdin")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", "", fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return "", "", fmt.Errorf("failed to start login command: %w", err)
	}

	// The input stream is the only channel the secret travels through.
	io.WriteString(stdin, password)
	stdin.Close()

	err = cmd.Wait()
	return stdout.String(), stderr.String(), err
}
