package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
	"github.com/jaxxstorm/netdiag/internal/sysexec"
)

const linuxPingOK = `PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=10.1 ms
64 bytes from 8.8.8.8: icmp_seq=2 ttl=117 time=10.3 ms
64 bytes from 8.8.8.8: icmp_seq=3 ttl=117 time=10.2 ms

--- 8.8.8.8 ping statistics ---
3 packets transmitted, 3 received, 0% packet loss, time 2003ms
rtt min/avg/max/mdev = 10.1/10.2/10.3/0.1 ms
`

const linuxPingLoss = `PING 192.0.2.1 (192.0.2.1) 56(84) bytes of data.

--- 192.0.2.1 ping statistics ---
3 packets transmitted, 0 received, 100% packet loss, time 2041ms
`

const darwinPingPartial = `--- example.com ping statistics ---
3 packets transmitted, 2 packets received, 33.3% packet loss
round-trip min/avg/max/stddev = 9.1/9.5/9.9/0.3 ms
`

func TestParseLoss(t *testing.T) {
	cases := []struct {
		name   string
		output string
		loss   float64
		ok     bool
	}{
		{"linux", linuxPingOK, 0, true},
		{"total loss", linuxPingLoss, 100, true},
		{"darwin", darwinPingPartial, 33.3, true},
		{"errors field", "3 packets transmitted, 0 received, +3 errors, 100% packet loss, time 2s", 100, true},
		{"no summary", "PING example.com\n", 0, false},
		{"garbled", "packet loss unknown", 0, false},
	}
	for _, tc := range cases {
		loss, ok := ParseLoss(tc.output)
		if ok != tc.ok || loss != tc.loss {
			t.Fatalf("%s: expected (%v, %v), got (%v, %v)", tc.name, tc.loss, tc.ok, loss, ok)
		}
	}
}

func TestPingSuccess(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ping -c 3 8.8.8.8": {Stdout: linuxPingOK},
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "8.8.8.8"})
	success, ok := out.(model.Success)
	if !ok {
		t.Fatalf("expected success, got %#v", out)
	}
	if got := success.Detail.(model.PingDetail).LossString(); got != "0.0%" {
		t.Fatalf("expected 0.0%%, got %s", got)
	}
}

func TestPingUsesConfiguredCount(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ping -c 5 example.com": {Stdout: darwinPingPartial},
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "example.com", Count: 5})
	if out.Status() != model.StatusSuccess {
		t.Fatalf("expected success, got %#v", out)
	}
}

func TestPingTotalLossIsFailure(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ping -c 3 192.0.2.1": {ExitCode: 1, Stdout: linuxPingLoss},
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "192.0.2.1"})
	failure, ok := out.(model.Failure)
	if !ok {
		t.Fatalf("expected failure, got %#v", out)
	}
	if failure.Reason != "ping failed: 100.0% packet loss" {
		t.Fatalf("unexpected reason %q", failure.Reason)
	}
}

func TestPingNonZeroExitWithoutSummary(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ping -c 3 nosuch.invalid": {ExitCode: 2, Stderr: "ping: nosuch.invalid: Name or service not known"},
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "nosuch.invalid"})
	if out != (model.Failure{Reason: "ping failed"}) {
		t.Fatalf("expected ping failed, got %#v", out)
	}
}

func TestPingUnexpectedOutputIsError(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ping -c 3 example.com": {Stdout: "Ping-Statistik: 0 Prozent Verlust"},
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "example.com"})
	if out.Status() != model.StatusError {
		t.Fatalf("expected error outcome, got %#v", out)
	}
}

func TestPingMissingBinaryIsError(t *testing.T) {
	exec := &sysexec.Fake{Errors: map[string]error{
		"ping -c 3 example.com": errors.New(`exec ping: exec: "ping": executable file not found in $PATH`),
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "example.com"})
	e, ok := out.(model.Error)
	if !ok || e.Message == "" {
		t.Fatalf("expected error with message, got %#v", out)
	}
}

func TestPingTimeout(t *testing.T) {
	exec := &sysexec.Fake{Responder: func(ctx context.Context, name string, args []string) (sysexec.Output, error) {
		<-ctx.Done()
		return sysexec.Output{ExitCode: -1}, ctx.Err()
	}}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "example.com", Timeout: 50 * time.Millisecond})
	if out != (model.Timeout{After: 50 * time.Millisecond}) {
		t.Fatalf("expected timeout, got %#v", out)
	}
}

func TestPingRejectsOptionLikeHost(t *testing.T) {
	exec := &sysexec.Fake{}
	p := &Ping{Executor: exec}
	out := p.Probe(context.Background(), model.ProbeSpec{Kind: model.KindPing, Target: "-f"})
	if out.Status() != model.StatusError {
		t.Fatalf("expected error outcome, got %#v", out)
	}
	if calls := exec.Calls(); len(calls) != 0 {
		t.Fatalf("ping should not run, got calls %v", calls)
	}
}
