package probe

import (
	"context"

	"github.com/jaxxstorm/netdiag/internal/dnsclient"
	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

const dnsFailed = "DNS resolution failed"

// DNS resolves a name against one explicit resolver.
type DNS struct {
	Client *dnsclient.Client
	Logger *zap.Logger
}

func (d *DNS) Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome {
	ctx, cancel, timeout := withTimeout(ctx, spec)
	defer cancel()

	resolver := spec.Resolver
	if resolver == "" {
		resolver = DefaultResolver
	}

	v4, err := d.Client.Query(ctx, resolver, spec.Target, dns.TypeA)
	if err != nil {
		if isTimeout(ctx, err) {
			return model.Timeout{After: timeout}
		}
		return model.Error{Message: err.Error()}
	}

	addresses := append([]string{}, v4.Addresses...)
	v6, err := d.Client.Query(ctx, resolver, spec.Target, dns.TypeAAAA)
	switch {
	case err != nil && len(addresses) == 0:
		if isTimeout(ctx, err) {
			return model.Timeout{After: timeout}
		}
		return model.Error{Message: err.Error()}
	case err != nil:
		orNop(d.Logger).Info("AAAA lookup failed after A answer",
			zap.String("domain", spec.Target),
			zap.String("resolver", resolver),
			zap.Error(err),
		)
	default:
		addresses = append(addresses, v6.Addresses...)
	}

	addresses = unique(addresses)
	if len(addresses) == 0 {
		orNop(d.Logger).Info("no addresses returned",
			zap.String("domain", spec.Target),
			zap.String("resolver", resolver),
			zap.String("rcode", dns.RcodeToString[v4.Rcode]),
		)
		return model.Failure{Reason: dnsFailed}
	}
	return model.Success{Detail: model.DNSDetail{Addresses: addresses}}
}

func unique(values []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
