package probe

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/jaxxstorm/netdiag/internal/model"
	"go.uber.org/zap"
)

const portClosed = "closed"

// TCP checks that a port accepts connections.
type TCP struct {
	Logger *zap.Logger
}

func (p *TCP) Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome {
	ctx, cancel, timeout := withTimeout(ctx, spec)
	defer cancel()

	if spec.Port <= 0 || spec.Port > 65535 {
		return model.Errorf("invalid port %d", spec.Port)
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(spec.Target, strconv.Itoa(spec.Port)))
	if err == nil {
		_ = conn.Close()
		return model.Success{Detail: model.PortDetail{Open: true}}
	}

	if isTimeout(ctx, err) {
		return model.Timeout{After: timeout}
	}
	var dnsErr *net.DNSError
	var addrErr *net.AddrError
	if errors.As(err, &dnsErr) || errors.As(err, &addrErr) {
		return model.Error{Message: err.Error()}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return model.Error{Message: err.Error()}
	}
	orNop(p.Logger).Debug("port closed", zap.String("address", spec.Address()), zap.Error(err))
	return model.Failure{Reason: portClosed}
}
