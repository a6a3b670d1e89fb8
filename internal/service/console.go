// Copyright (c) 2025 Lazycat Apps
// Licensed under the MIT License. See LICENSE file in the project root for details.

package service

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lazycatapps/registry-pull/internal/models"
	"github.com/lazycatapps/registry-pull/internal/pkg/logger"
	"github.com/lazycatapps/registry-pull/internal/repository"
)

// Console is the surface pull commands are submitted to. Submission is
// fire-and-forget: the submitter does not learn whether the command
// succeeded, only the task log does.
type Console interface {
	Submit(task *models.PullTask, command string)
}

// execConsole implements Console by running submitted commands through the
// engine CLI and streaming their output into the task log.
type execConsole struct {
	binary string
	repo   repository.TaskRepository
	logger logger.Logger
}

// NewExecConsole creates a Console backed by the engine binary.
func NewExecConsole(binary string, repo repository.TaskRepository, log logger.Logger) Console {
	return &execConsole{
		binary: binary,
		repo:   repo,
		logger: log,
	}
}

// Submit echoes the command to the task log and executes it asynchronously.
func (c *execConsole) Submit(task *models.PullTask, command string) {
	task.AddLog(fmt.Sprintf("> %s %s", c.binary, command))
	go c.run(task, command)
}

func (c *execConsole) run(task *models.PullTask, command string) {
	// The command grammar is flat ("pull <ref>" or "pull <ref> -a"), so a
	// whitespace split is sufficient.
	args := strings.Fields(command)

	// #nosec G204 -- command assembled from validated selection fields.
	cmd := exec.Command(c.binary, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		c.finalize(task, fmt.Errorf("failed to create stdout pipe: %w", err))
		return
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		c.finalize(task, fmt.Errorf("failed to create stderr pipe: %w", err))
		return
	}

	if err := cmd.Start(); err != nil {
		c.finalize(task, fmt.Errorf("failed to start command: %w", err))
		return
	}

	// Read command output in parallel goroutines
	var outputWg sync.WaitGroup
	outputWg.Add(2)

	go c.readOutput(task, stdoutPipe, &outputWg)
	go c.readOutput(task, stderrPipe, &outputWg)

	err = cmd.Wait()

	// Wait for output goroutines to finish (with timeout)
	done := make(chan struct{})
	go func() {
		outputWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Output reading completed
	case <-time.After(5 * time.Second):
		c.logger.Error("[%s] WARNING: Output reading timed out", task.ID)
	}

	c.finalize(task, err)
}

// finalize records the command's end in the task log and releases all log
// listeners. A failed pull does not change the task status: the login
// already succeeded and the pull's outcome is only reported through the
// console output.
func (c *execConsole) finalize(task *models.PullTask, err error) {
	endTime := time.Now()

	if err != nil {
		task.AddLog(fmt.Sprintf("Pull failed: %v", err))
		c.logger.Error("[%s] Pull failed: %v", task.ID, err)
	} else {
		task.AddLog(fmt.Sprintf("Pull completed at %s", endTime.Format(time.RFC3339)))
		c.logger.Info("[%s] Pull completed", task.ID)
	}

	task.CloseAllLogListeners()

	task.EndTime = &endTime
	task.Output = strings.Join(task.GetLogLines(), "\n")

	if updateErr := c.repo.Update(task); updateErr != nil {
		c.logger.Error("[%s] Failed to update task: %v", task.ID, updateErr)
	}
}

// readOutput reads command output from a pipe and adds it to the task log.
// It runs in a separate goroutine and signals completion via WaitGroup.
func (c *execConsole) readOutput(task *models.PullTask, pipe io.ReadCloser, wg *sync.WaitGroup) {
	defer wg.Done()

	reader := bufio.NewReader(pipe)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Handle any remaining partial line
			if line != "" {
				task.AddLog(strings.TrimSpace(line))
			}
			// EOF is normal, only log other errors
			if err != io.EOF {
				c.logger.Error("[%s] Output read error: %v", task.ID, err)
			}
			break
		}
		line = strings.TrimSpace(line)
		if line != "" {
			task.AddLog(line)
		}
	}
}
