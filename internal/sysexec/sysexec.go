// Package sysexec runs host utilities (ping, ip, netstat) behind a narrow
// interface so callers can be tested against canned output.
package sysexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Output is what a finished command produced. A non-zero ExitCode is not an
// error.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs a command to completion. The returned error is reserved for
// operational failures: the binary is missing, it cannot be started, or ctx
// ended before it exited.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

type Options struct {
	// WaitDelay bounds how long Run waits for output pipes after the
	// process is killed.
	WaitDelay time.Duration
	Logger    *zap.Logger
}

type Local struct {
	opts Options
}

func New(opts Options) *Local {
	if opts.WaitDelay == 0 {
		opts.WaitDelay = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Local{opts: opts}
}

func (l *Local) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = l.opts.WaitDelay
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	out := Output{Stdout: outBuf.String(), Stderr: errBuf.String()}
	l.opts.Logger.Debug("command finished",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Error(err),
	)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.Exited() {
		out.ExitCode = ee.ExitCode()
		return out, nil
	}
	out.ExitCode = -1
	return out, fmt.Errorf("exec %s: %w", name, err)
}
