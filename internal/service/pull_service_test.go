// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/lazycatapps/registry-pull/internal/models"
	apperrors "github.com/lazycatapps/registry-pull/internal/pkg/errors"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/repository"
)

const testConfigPath = "/home/user/.docker/config.json"

// fakeLoginRunner records the login invocation and returns canned output.
type fakeLoginRunner struct {
	stdout string
	stderr string
	err    error

	gotServer   string
	gotUsername string
	gotPassword string
}

func (r *fakeLoginRunner) RunLogin(server, username, password string) (string, string, error) {
	r.gotServer = server
	r.gotUsername = username
	r.gotPassword = password
	return r.stdout, r.stderr, r.err
}

// fakeConsole records submitted commands without executing anything.
type fakeConsole struct {
	commands []string
}

func (c *fakeConsole) Submit(task *models.PullTask, command string) {
	c.commands = append(c.commands, command)
}

func newTestPullService(runner *fakeLoginRunner, console *fakeConsole) (PullService, repository.TaskRepository) {
	repo := repository.NewInMemoryTaskRepository()
	svc := NewPullService(repo, runner, console, logger.New(), "docker", testConfigPath)
	return svc, repo
}

func createTask(t *testing.T, svc PullService, req *models.PullRequest) string {
	t.Helper()
	taskID, err := svc.CreatePullTask(req)
	if err != nil {
		t.Fatalf("CreatePullTask failed: %v", err)
	}
	return taskID
}

func TestCreatePullTask_SingleTag(t *testing.T) {
	svc, repo := newTestPullService(&fakeLoginRunner{}, &fakeConsole{})

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	task, err := repo.Get(taskID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}

	if task.LoginServer != "contoso.azurecr.io" {
		t.Errorf("Expected login server 'contoso.azurecr.io', got '%s'", task.LoginServer)
	}

	if task.ImageRequest != "v2" {
		t.Errorf("Expected image request 'v2', got '%s'", task.ImageRequest)
	}

	if task.Status != models.StatusPending {
		t.Errorf("Expected status pending, got %s", task.Status)
	}
}

func TestCreatePullTask_PullAll(t *testing.T) {
	svc, repo := newTestPullService(&fakeLoginRunner{}, &fakeConsole{})

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		PullAll:    true,
	})

	task, _ := repo.Get(taskID)
	if task.ImageRequest != "webapp -a" {
		t.Errorf("Expected image request 'webapp -a', got '%s'", task.ImageRequest)
	}
}

func TestExecutePull_Success(t *testing.T) {
	runner := &fakeLoginRunner{stdout: "Login Succeeded"}
	console := &fakeConsole{}
	svc, repo := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	creds := &models.Credentials{Username: "00000000-0000-0000-0000-000000000000", Password: "secret-token"}
	if err := svc.ExecutePull(taskID, creds); err != nil {
		t.Fatalf("ExecutePull failed: %v", err)
	}

	if len(console.commands) != 1 {
		t.Fatalf("Expected 1 submitted command, got %d", len(console.commands))
	}
	if console.commands[0] != "pull contoso.azurecr.io/v2" {
		t.Errorf("Expected 'pull contoso.azurecr.io/v2', got '%s'", console.commands[0])
	}

	task, _ := repo.Get(taskID)
	if task.Status != models.StatusCompleted {
		t.Errorf("Expected status completed, got %s", task.Status)
	}
}

func TestExecutePull_PullAllCommand(t *testing.T) {
	runner := &fakeLoginRunner{}
	console := &fakeConsole{}
	svc, _ := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		PullAll:    true,
	})

	creds := &models.Credentials{Username: "user", Password: "pw"}
	if err := svc.ExecutePull(taskID, creds); err != nil {
		t.Fatalf("ExecutePull failed: %v", err)
	}

	if len(console.commands) != 1 {
		t.Fatalf("Expected 1 submitted command, got %d", len(console.commands))
	}
	if console.commands[0] != "pull contoso.azurecr.io/webapp -a" {
		t.Errorf("Expected 'pull contoso.azurecr.io/webapp -a', got '%s'", console.commands[0])
	}
}

func TestExecutePull_PasswordDeliveredViaRunnerOnly(t *testing.T) {
	runner := &fakeLoginRunner{}
	console := &fakeConsole{}
	svc, repo := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	creds := &models.Credentials{Username: "user", Password: "s3cr3t-password"}
	if err := svc.ExecutePull(taskID, creds); err != nil {
		t.Fatalf("ExecutePull failed: %v", err)
	}

	if runner.gotPassword != "s3cr3t-password" {
		t.Errorf("Expected password to reach the runner, got '%s'", runner.gotPassword)
	}

	task, _ := repo.Get(taskID)
	logs := strings.Join(task.GetLogLines(), "\n")
	if strings.Contains(logs, "s3cr3t-password") {
		t.Error("Password leaked into the task log")
	}
	if !strings.Contains(logs, "--password ***") {
		t.Error("Expected masked placeholder in echoed command")
	}
}

func TestExecutePull_CredentialStoreDefect(t *testing.T) {
	runner := &fakeLoginRunner{
		stderr: "error storing credentials - err: exit status 1, out: `The stub received bad data.`",
		err:    errors.New("exit status 1"),
	}
	console := &fakeConsole{}
	svc, repo := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	err := svc.ExecutePull(taskID, &models.Credentials{Username: "user", Password: "pw"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var defectErr *apperrors.CredentialStoreDefectError
	if !errors.As(err, &defectErr) {
		t.Fatalf("Expected CredentialStoreDefectError, got %T: %v", err, err)
	}

	if defectErr.ConfigPath != testConfigPath {
		t.Errorf("Expected config path '%s', got '%s'", testConfigPath, defectErr.ConfigPath)
	}
	if !strings.Contains(defectErr.Error(), testConfigPath) {
		t.Error("Expected remediation message to name the config file path")
	}
	if !strings.Contains(defectErr.Error(), "credsStore") {
		t.Error("Expected remediation message to name the credsStore setting")
	}

	if len(console.commands) != 0 {
		t.Errorf("Expected no pull submission on failure, got %d", len(console.commands))
	}

	task, _ := repo.Get(taskID)
	if task.Status != models.StatusFailed {
		t.Errorf("Expected status failed, got %s", task.Status)
	}
	// Diagnostic output must reach the sink before the failure is raised
	logs := strings.Join(task.GetLogLines(), "\n")
	if !strings.Contains(logs, "error storing credentials") {
		t.Error("Expected diagnostic output in the task log")
	}
}

func TestExecutePull_ProcessError(t *testing.T) {
	runner := &fakeLoginRunner{
		stderr: "Error response from daemon: unauthorized",
		err:    errors.New("exit status 1"),
	}
	console := &fakeConsole{}
	svc, _ := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	err := svc.ExecutePull(taskID, &models.Credentials{Username: "user", Password: "pw"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var loginErr *apperrors.LoginError
	if !errors.As(err, &loginErr) {
		t.Fatalf("Expected LoginError, got %T: %v", err, err)
	}

	if len(console.commands) != 0 {
		t.Errorf("Expected no pull submission on failure, got %d", len(console.commands))
	}
}

func TestExecutePull_StderrWithoutError(t *testing.T) {
	// A clean exit with non-empty diagnostic output still fails the login.
	runner := &fakeLoginRunner{stderr: "WARNING: login may not have taken effect"}
	console := &fakeConsole{}
	svc, repo := newTestPullService(runner, console)

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	err := svc.ExecutePull(taskID, &models.Credentials{Username: "user", Password: "pw"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var loginErr *apperrors.LoginError
	if !errors.As(err, &loginErr) {
		t.Fatalf("Expected LoginError, got %T: %v", err, err)
	}
	if !strings.Contains(loginErr.Error(), "WARNING: login may not have taken effect") {
		t.Errorf("Expected diagnostic text in error, got: %v", loginErr)
	}

	task, _ := repo.Get(taskID)
	if task.Status != models.StatusFailed {
		t.Errorf("Expected status failed, got %s", task.Status)
	}
	if len(console.commands) != 0 {
		t.Errorf("Expected no pull submission, got %d", len(console.commands))
	}
}

func TestExecutePull_DefectRequiresBothFragments(t *testing.T) {
	// Only one of the two fragments present: generic LoginError, not the
	// credential-store defect.
	runner := &fakeLoginRunner{
		stderr: "error storing credentials - err: exit status 1",
		err:    errors.New("exit status 1"),
	}
	svc, _ := newTestPullService(runner, &fakeConsole{})

	taskID := createTask(t, svc, &models.PullRequest{
		Registry:   "contoso.azurecr.io",
		Repository: "webapp",
		Tag:        "v2",
	})

	err := svc.ExecutePull(taskID, &models.Credentials{Username: "user", Password: "pw"})

	var defectErr *apperrors.CredentialStoreDefectError
	if errors.As(err, &defectErr) {
		t.Fatal("Expected generic LoginError, got CredentialStoreDefectError")
	}
	var loginErr *apperrors.LoginError
	if !errors.As(err, &loginErr) {
		t.Fatalf("Expected LoginError, got %T: %v", err, err)
	}
}

func TestListTasks_FilterByStatus(t *testing.T) {
	svc, repo := newTestPullService(&fakeLoginRunner{}, &fakeConsole{})

	id1 := createTask(t, svc, &models.PullRequest{Registry: "r1.example.com", Repository: "a", Tag: "v1"})
	createTask(t, svc, &models.PullRequest{Registry: "r2.example.com", Repository: "b", Tag: "v1"})

	task, _ := repo.Get(id1)
	task.Status = models.StatusFailed
	repo.Update(task)

	resp, err := svc.ListTasks(&models.TaskListRequest{Status: models.StatusFailed, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	if resp.Total != 1 {
		t.Errorf("Expected 1 failed task, got %d", resp.Total)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != id1 {
		t.Error("Expected the failed task in the listing")
	}
}
