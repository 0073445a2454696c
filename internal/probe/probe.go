// Package probe runs single network checks. Every probe returns a
// model.Outcome within its spec's timeout and never panics on bad input.
package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jaxxstorm/netdiag/internal/dnsclient"
	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/sysexec"
	"go.uber.org/zap"
)

const (
	DefaultPingCount   = 3
	DefaultPingTimeout = 10 * time.Second
	DefaultDNSTimeout  = 5 * time.Second
	DefaultTCPTimeout  = 3 * time.Second
	DefaultHTTPTimeout = 5 * time.Second
	DefaultResolver    = "8.8.8.8"
	DefaultUserAgent   = "netdiag/1.0"
)

// Prober executes one spec.
type Prober interface {
	Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome
}

type Options struct {
	Executor sysexec.Executor
	DNS      *dnsclient.Client
	Logger   *zap.Logger
}

// Runner dispatches a spec to the probe for its kind.
type Runner struct {
	ping *Ping
	dns  *DNS
	tcp  *TCP
	http *HTTP
}

func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Executor == nil {
		opts.Executor = sysexec.New(sysexec.Options{Logger: opts.Logger})
	}
	if opts.DNS == nil {
		opts.DNS = dnsclient.New(dnsclient.Options{Logger: opts.Logger})
	}
	return &Runner{
		ping: &Ping{Executor: opts.Executor, Logger: opts.Logger},
		dns:  &DNS{Client: opts.DNS, Logger: opts.Logger},
		tcp:  &TCP{Logger: opts.Logger},
		http: &HTTP{Logger: opts.Logger},
	}
}

func (r *Runner) Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome {
	switch spec.Kind {
	case model.KindPing:
		return r.ping.Probe(ctx, spec)
	case model.KindDNS:
		return r.dns.Probe(ctx, spec)
	case model.KindTCP:
		return r.tcp.Probe(ctx, spec)
	case model.KindHTTP:
		return r.http.Probe(ctx, spec)
	default:
		return model.Errorf("unsupported probe kind: %q", spec.Kind)
	}
}

// DefaultTimeout is the per-kind timeout used when a spec leaves it unset.
func DefaultTimeout(kind model.Kind) time.Duration {
	switch kind {
	case model.KindPing:
		return DefaultPingTimeout
	case model.KindDNS:
		return DefaultDNSTimeout
	case model.KindTCP:
		return DefaultTCPTimeout
	case model.KindHTTP:
		return DefaultHTTPTimeout
	}
	return DefaultHTTPTimeout
}

func withTimeout(ctx context.Context, spec model.ProbeSpec) (context.Context, context.CancelFunc, time.Duration) {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout(spec.Kind)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, timeout
}

// isTimeout reports whether err came from a deadline rather than the peer.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
