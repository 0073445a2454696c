package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jaxxstorm/netdiag/internal/sysexec"
)

func TestCollectPassesThroughOutput(t *testing.T) {
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{
		"ip addr show":  {Stdout: "1: lo: <LOOPBACK,UP>\n    inet 127.0.0.1/8\n"},
		"ip route show": {Stdout: "default via 10.0.0.1 dev eth0\n"},
		"netstat -s":    {Stdout: "Ip:\n    10 total packets received\n\nTcp:\n    3 active connection openings\n"},
	}}
	info := (&Collector{Executor: exec}).Collect(context.Background())

	if !strings.HasPrefix(info.Interfaces, "1: lo:") || strings.HasSuffix(info.Interfaces, "\n") {
		t.Fatalf("unexpected interfaces %q", info.Interfaces)
	}
	if info.Routes != "default via 10.0.0.1 dev eth0" {
		t.Fatalf("unexpected routes %q", info.Routes)
	}
	if len(info.NetStats) != 4 {
		t.Fatalf("expected blank lines dropped, got %#v", info.NetStats)
	}
}

func TestNetStatsTruncates(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	exec := &sysexec.Fake{Outputs: map[string]sysexec.Output{"netstat -s": {Stdout: b.String()}}}

	lines := (&Collector{Executor: exec}).NetStats(context.Background())
	if len(lines) != DefaultNetstatLines || lines[19] != "line 19" {
		t.Fatalf("expected first 20 lines, got %d (%v)", len(lines), lines)
	}

	lines = (&Collector{Executor: exec, NetstatLines: 5}).NetStats(context.Background())
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
}

func TestCollectDegradesOnFailure(t *testing.T) {
	exec := &sysexec.Fake{
		Outputs: map[string]sysexec.Output{
			"ip addr show":  {ExitCode: 1, Stderr: "permission denied"},
			"ip route show": {ExitCode: 255},
		},
		Errors: map[string]error{
			"netstat -s": errors.New(`exec: "netstat": executable file not found in $PATH`),
		},
	}
	info := (&Collector{Executor: exec}).Collect(context.Background())
	if info.Interfaces != "unable to read network interfaces" {
		t.Fatalf("unexpected interfaces %q", info.Interfaces)
	}
	if info.Routes != "unable to read routing table" {
		t.Fatalf("unexpected routes %q", info.Routes)
	}
	if len(info.NetStats) != 1 || info.NetStats[0] != "netstat command not available" {
		t.Fatalf("unexpected netstat %#v", info.NetStats)
	}
}

func TestMissingIPCommand(t *testing.T) {
	exec := &sysexec.Fake{Errors: map[string]error{
		"ip addr show":  errors.New("not found"),
		"ip route show": errors.New("not found"),
	}}
	c := &Collector{Executor: exec}
	if got := c.Interfaces(context.Background()); got != "ip command not available" {
		t.Fatalf("unexpected interfaces %q", got)
	}
	if got := c.Routes(context.Background()); got != "ip command not available" {
		t.Fatalf("unexpected routes %q", got)
	}
}

func TestSlowCommandIsUnreadableNotMissing(t *testing.T) {
	exec := &sysexec.Fake{Responder: func(ctx context.Context, name string, args []string) (sysexec.Output, error) {
		<-ctx.Done()
		return sysexec.Output{ExitCode: -1}, ctx.Err()
	}}
	info := (&Collector{Executor: exec, Timeout: 20 * time.Millisecond}).Collect(context.Background())
	if info.Interfaces != "unable to read network interfaces" {
		t.Fatalf("unexpected interfaces %q", info.Interfaces)
	}
	if info.Routes != "unable to read routing table" {
		t.Fatalf("unexpected routes %q", info.Routes)
	}
	if len(info.NetStats) != 1 || info.NetStats[0] != "unable to read network statistics" {
		t.Fatalf("unexpected netstat %#v", info.NetStats)
	}
}
