// Package usercmd provisions local accounts by running the host's native
// account tools (id, useradd, usermod, setquota).
package usercmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

type Runner struct {
	Timeout time.Duration

	// exec is swapped in tests.
	newCmd func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func New() *Runner {
	return &Runner{Timeout: DefaultTimeout, newCmd: exec.CommandContext}
}

func (r *Runner) command(ctx context.Context, name string, args ...string) (*exec.Cmd, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	mk := r.newCmd
	if mk == nil {
		mk = exec.CommandContext
	}
	return mk(ctx, name, args...), cancel
}

func (r *Runner) run(ctx context.Context, name string, args ...string) error {
	cmd, cancel := r.command(ctx, name, args...)
	defer cancel()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return fmt.Errorf("%s %v: %w", name, args, err)
		}
		return fmt.Errorf("%s %v: %s", name, args, s)
	}
	return nil
}

// Exists reports whether the account is known to the host. A non-zero exit
// from id means the account does not exist; only a failure to run id at
// all is an error.
func (r *Runner) Exists(ctx context.Context, username string) (bool, error) {
	cmd, cancel := r.command(ctx, "id", username)
	defer cancel()
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return false, nil
	}
	return false, fmt.Errorf("id %s: %w", username, err)
}

func (r *Runner) Create(ctx context.Context, username string) error {
	return r.run(ctx, "useradd", "--create-home", username)
}

func (r *Runner) GrantGroup(ctx context.Context, username, group string) error {
	return r.run(ctx, "usermod", "-a", "-G", group, username)
}

func (r *Runner) SetShell(ctx context.Context, username, shell string) error {
	return r.run(ctx, "usermod", "--shell", shell, username)
}

// SetQuota sets block limits in GiB on mount; inode limits stay unlimited.
func (r *Runner) SetQuota(ctx context.Context, username string, softGB, hardGB int, mount string) error {
	return r.run(ctx, "setquota", "-u", username,
		fmt.Sprintf("%dG", softGB), fmt.Sprintf("%dG", hardGB), "0", "0", mount)
}
