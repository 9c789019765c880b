package tiktok

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"go.uber.org/zap"
)

// SyncResult is the explicit outcome of one sync subprocess run.
type SyncResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// SyncRunner invokes the data-fetch script as a subprocess with positional
// credential arguments. The script writes fetched followings and engagements
// to the document store itself; completion is communicated via exit code.
type SyncRunner struct {
	python  string
	script  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSyncRunner creates a SyncRunner. The timeout bounds each run; the
// original design had none and a hung process blocked the sync loop.
func NewSyncRunner(python, script string, timeout time.Duration, logger *zap.Logger) *SyncRunner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SyncRunner{python: python, script: script, timeout: timeout, logger: logger}
}

// Sync runs the script for one connected user and captures its outcome.
// A non-zero exit code is returned as an error alongside the result.
func (r *SyncRunner) Sync(ctx context.Context, user *models.User) (*SyncResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.python, r.script,
		"--sync",
		"--user_id", strconv.FormatUint(uint64(user.ID), 10),
		"--ms_token", user.Credentials.MsToken,
		"--session_id", user.Credentials.SessionID,
		"--username", user.Credentials.Username,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &SyncResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("sync timed out after %s", r.timeout)
		}
		r.logger.Error("sync process failed",
			zap.Uint("user_id", user.ID),
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", result.Stderr))
		return result, fmt.Errorf("sync process exited with code %d", result.ExitCode)
	}

	r.logger.Info("sync process completed", zap.Uint("user_id", user.ID))
	return result, nil
}
