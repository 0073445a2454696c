package analyze

import (
	"strings"
	"testing"

	"github.com/jaxxstorm/netdiag/internal/model"
)

func result(kind model.Kind, outcome model.Outcome) model.ProbeResult {
	return model.ProbeResult{Spec: model.ProbeSpec{Kind: kind, Target: "t", Resolver: "8.8.8.8"}, Outcome: outcome}
}

func reportOf(results ...model.ProbeResult) model.Report {
	byKind := map[model.Kind][]model.ProbeResult{}
	for _, r := range results {
		byKind[r.Spec.Kind] = append(byKind[r.Spec.Kind], r)
	}
	r := model.Report{}
	for _, kind := range model.Kinds {
		r.Sections = append(r.Sections, model.Section{Kind: kind, Results: byKind[kind]})
	}
	return r
}

var portOpen = model.Success{Detail: model.PortDetail{Open: true}}

func TestDiagnoseEmpty(t *testing.T) {
	d := Diagnose(reportOf())
	if d.Classification != "EMPTY" {
		t.Fatalf("expected EMPTY, got %s", d.Classification)
	}
	if len(d.Hints) != 0 {
		t.Fatalf("expected no hints, got %v", d.Hints)
	}
}

func TestDiagnoseHealthy(t *testing.T) {
	d := Diagnose(reportOf(result(model.KindTCP, portOpen), result(model.KindPing, model.Success{Detail: model.PingDetail{}})))
	if d.Classification != "HEALTHY" {
		t.Fatalf("expected HEALTHY, got %s", d.Classification)
	}
	if d.Counts[model.StatusSuccess] != 2 {
		t.Fatalf("expected 2 successes, got %d", d.Counts[model.StatusSuccess])
	}
}

func TestDiagnoseOffline(t *testing.T) {
	d := Diagnose(reportOf(
		result(model.KindPing, model.Failure{Reason: "ping failed"}),
		result(model.KindTCP, model.Timeout{}),
		result(model.KindDNS, model.Failure{Reason: "DNS resolution failed"}),
	))
	if d.Classification != "OFFLINE" {
		t.Fatalf("expected OFFLINE, got %s", d.Classification)
	}
	joined := strings.Join(d.Hints, "\n")
	for _, want := range []string{"resolver 8.8.8.8", "default route", "timed out"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected hint containing %q, got %v", want, d.Hints)
		}
	}
}

func TestDiagnoseDegradedHTTP(t *testing.T) {
	d := Diagnose(reportOf(
		result(model.KindTCP, portOpen),
		result(model.KindHTTP, model.HTTPError{Code: 502}),
	))
	if d.Classification != "DEGRADED" {
		t.Fatalf("expected DEGRADED, got %s", d.Classification)
	}
	if d.Summary != "1 of 2 probes failed" {
		t.Fatalf("unexpected summary %q", d.Summary)
	}
	if len(d.Hints) != 1 || !strings.Contains(d.Hints[0], "HTTP fails") {
		t.Fatalf("expected http hint, got %v", d.Hints)
	}
}
