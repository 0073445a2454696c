// Package sysinfo captures informational host network state. Failures are
// reported as readable placeholder text, never as errors.
package sysinfo

import (
	"context"
	"strings"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/sysexec"
	"go.uber.org/zap"
)

const (
	DefaultNetstatLines = 20
	DefaultTimeout      = 5 * time.Second
)

const (
	msgInterfaces = "unable to read network interfaces"
	msgRoutes     = "unable to read routing table"
	msgNetstat    = "unable to read network statistics"
	msgNoIP       = "ip command not available"
	msgNoNetstat  = "netstat command not available"
)

type Collector struct {
	Executor     sysexec.Executor
	NetstatLines int
	Timeout      time.Duration
	Logger       *zap.Logger
}

func (c *Collector) Collect(ctx context.Context) model.SystemInfo {
	return model.SystemInfo{
		Interfaces: c.Interfaces(ctx),
		Routes:     c.Routes(ctx),
		NetStats:   c.NetStats(ctx),
	}
}

func (c *Collector) Interfaces(ctx context.Context) string {
	out, ok, missing := c.run(ctx, "ip", "addr", "show")
	switch {
	case missing:
		return msgNoIP
	case !ok:
		return msgInterfaces
	}
	return strings.TrimRight(out, "\n")
}

func (c *Collector) Routes(ctx context.Context) string {
	out, ok, missing := c.run(ctx, "ip", "route", "show")
	switch {
	case missing:
		return msgNoIP
	case !ok:
		return msgRoutes
	}
	return strings.TrimRight(out, "\n")
}

// NetStats returns the first lines of `netstat -s`, without blank ones.
func (c *Collector) NetStats(ctx context.Context) []string {
	out, ok, missing := c.run(ctx, "netstat", "-s")
	switch {
	case missing:
		return []string{msgNoNetstat}
	case !ok:
		return []string{msgNetstat}
	}

	limit := c.NetstatLines
	if limit <= 0 {
		limit = DefaultNetstatLines
	}
	lines := []string{}
	for i, line := range strings.Split(out, "\n") {
		if i >= limit {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// run reports the command output, whether it exited zero, and whether it
// could not be run at all. A command cut off by the timeout counts as run.
func (c *Collector) run(ctx context.Context, name string, args ...string) (string, bool, bool) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out, err := c.Executor.Run(ctx, name, args...)
	if err != nil && ctx.Err() != nil {
		logger.Info("system command did not finish", zap.String("command", name), zap.Duration("timeout", timeout), zap.Error(err))
		return "", false, false
	}
	if err != nil {
		logger.Info("system command unavailable", zap.String("command", name), zap.Error(err))
		return "", false, true
	}
	if out.ExitCode != 0 {
		logger.Info("system command failed",
			zap.String("command", name),
			zap.Int("exit_code", out.ExitCode),
			zap.String("stderr", strings.TrimSpace(out.Stderr)),
		)
		return out.Stdout, false, false
	}
	return out.Stdout, true, false
}
