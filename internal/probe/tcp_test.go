package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
)

func TestTCPProbeOpen(t *testing.T) {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	p := &TCP{}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindTCP, Target: "127.0.0.1", Port: port, Timeout: time.Second})
	if out != (model.Success{Detail: model.PortDetail{Open: true}}) {
		t.Fatalf("expected open port, got %#v", out)
	}
}

func TestTCPProbeClosedPortIsFailureNotTimeout(t *testing.T) {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()

	timeout := 2 * time.Second
	start := time.Now()
	out := (&TCP{}).Probe(context.Background(), model.ProbeSpec{Kind: model.KindTCP, Target: "127.0.0.1", Port: port, Timeout: timeout})
	elapsed := time.Since(start)
	if out != (model.Failure{Reason: "closed"}) {
		t.Fatalf("expected closed, got %#v", out)
	}
	if elapsed >= timeout {
		t.Fatalf("closed port should fail fast, took %s", elapsed)
	}
}

func TestTCPProbeUnresolvableHostIsError(t *testing.T) {
	out := (&TCP{}).Probe(context.Background(), model.ProbeSpec{Kind: model.KindTCP, Target: "nosuch.invalid", Port: 80, Timeout: 2 * time.Second})
	if out.Status() != model.StatusError && out.Status() != model.StatusTimeout {
		t.Fatalf("expected error for unresolvable host, got %#v", out)
	}
}

func TestTCPProbeInvalidPort(t *testing.T) {
	out := (&TCP{}).Probe(context.Background(), model.ProbeSpec{Kind: model.KindTCP, Target: "127.0.0.1", Port: 70000})
	if out.Status() != model.StatusError {
		t.Fatalf("expected error for invalid port, got %#v", out)
	}
}

func TestTCPProbeBlackholeTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("blackhole dial waits for the full timeout")
	}
	timeout := 300 * time.Millisecond
	start := time.Now()
	// TEST-NET-1 is never routed; most hosts drop the SYN silently.
	out := (&TCP{}).Probe(context.Background(), model.ProbeSpec{Kind: model.KindTCP, Target: "192.0.2.1", Port: 81, Timeout: timeout})
	elapsed := time.Since(start)
	if out.Status() == model.StatusFailure {
		t.Skipf("host rejected the blackhole address immediately: %#v", out)
	}
	if out != (model.Timeout{After: timeout}) {
		t.Fatalf("expected timeout, got %#v", out)
	}
	if elapsed < timeout-20*time.Millisecond {
		t.Fatalf("timed out too early: %s", elapsed)
	}
}

func TestTCPProbeCancelledIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := (&TCP{}).Probe(ctx, model.ProbeSpec{Kind: model.KindTCP, Target: "192.0.2.1", Port: 81, Timeout: time.Second})
	if out.Status() != model.StatusError {
		t.Fatalf("expected error after cancellation, got %#v", out)
	}
}
