package media

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
)

// maxStderrBytes caps captured tool diagnostics.
const maxStderrBytes = 16 * 1024

// CommandResult is the outcome of one external tool invocation.
type CommandResult struct {
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution so tool wrappers can be tested without binaries.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands via os/exec in their own process group.
type ExecRunner struct{}

// Run executes one command, killing its whole process group if ctx expires.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stderr := &limitedBuffer{limit: maxStderrBytes}
	cmd.Stderr = stderr

	err := cmd.Run()
	res := CommandResult{Stderr: stderr.String()}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, err
	}
	return res, nil
}

// limitedBuffer stops accepting writes after limit bytes.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (lb *limitedBuffer) Write(p []byte) (int, error) {
	remaining := lb.limit - lb.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		lb.buf.Write(p[:remaining])
		return len(p), nil
	}
	return lb.buf.Write(p)
}

func (lb *limitedBuffer) String() string {
	return lb.buf.String()
}
