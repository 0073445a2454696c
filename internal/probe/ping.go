package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/sysexec"
	"go.uber.org/zap"
)

var lossPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)

// Ping shells out to the system ping utility.
type Ping struct {
	Executor sysexec.Executor
	Logger   *zap.Logger
}

func (p *Ping) Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome {
	ctx, cancel, timeout := withTimeout(ctx, spec)
	defer cancel()

	count := spec.Count
	if count <= 0 {
		count = DefaultPingCount
	}
	if strings.HasPrefix(spec.Target, "-") {
		return model.Errorf("invalid ping host %q", spec.Target)
	}

	out, err := p.Executor.Run(ctx, "ping", "-c", strconv.Itoa(count), spec.Target)
	if err != nil {
		if isTimeout(ctx, err) {
			return model.Timeout{After: timeout}
		}
		orNop(p.Logger).Warn("ping could not run", zap.String("host", spec.Target), zap.Error(err))
		return model.Error{Message: err.Error()}
	}

	loss, ok := ParseLoss(out.Stdout)
	switch {
	case out.ExitCode == 0 && ok:
		return model.Success{Detail: model.PingDetail{Loss: loss}}
	case out.ExitCode == 0:
		return model.Error{Message: "unexpected ping output"}
	case ok:
		return model.Failure{Reason: "ping failed: " + model.FormatLoss(loss) + " packet loss"}
	default:
		orNop(p.Logger).Info("ping failed",
			zap.String("host", spec.Target),
			zap.Int("exit_code", out.ExitCode),
			zap.String("stderr", strings.TrimSpace(out.Stderr)),
		)
		return model.Failure{Reason: "ping failed"}
	}
}

// ParseLoss extracts the packet loss percentage from the summary line of
// ping output. Output without a recognisable "packet loss" line is rejected.
func ParseLoss(output string) (float64, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "packet loss") {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			if !strings.Contains(field, "packet loss") {
				continue
			}
			m := lossPattern.FindStringSubmatch(field)
			if m == nil {
				return 0, false
			}
			loss, err := strconv.ParseFloat(m[1], 64)
			if err != nil || loss < 0 || loss > 100 {
				return 0, false
			}
			return loss, true
		}
	}
	return 0, false
}
