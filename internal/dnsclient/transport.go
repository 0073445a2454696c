package dnsclient

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

type Transport interface {
	Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error)
}

type udpTransport struct {
	timeout time.Duration
}

func (t *udpTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	return exchange(ctx, &dns.Client{Net: "udp", Timeout: t.timeout}, server, msg)
}

type tcpTransport struct {
	timeout time.Duration
}

func (t *tcpTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	return exchange(ctx, &dns.Client{Net: "tcp", Timeout: t.timeout}, server, msg)
}

// exchange clamps the client timeout to the context deadline so the socket
// never outlives the caller.
func exchange(ctx context.Context, client *dns.Client, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < client.Timeout || client.Timeout == 0 {
			client.Timeout = remaining
		}
	}
	return client.ExchangeContext(ctx, msg, server)
}
