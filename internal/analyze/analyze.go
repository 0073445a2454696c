package analyze

import (
	"fmt"

	"github.com/jaxxstorm/netdiag/internal/model"
)

type Classification string

const (
	ClassHealthy  Classification = "HEALTHY"
	ClassDegraded Classification = "DEGRADED"
	ClassOffline  Classification = "OFFLINE"
	ClassEmpty    Classification = "EMPTY"
)

// Diagnose summarises a report into a classification and operator hints.
func Diagnose(report model.Report) model.Diagnosis {
	counts := map[model.Status]int{}
	total := 0
	for _, section := range report.Sections {
		for _, r := range section.Results {
			counts[r.Outcome.Status()]++
			total++
		}
	}

	d := model.Diagnosis{Counts: counts, Hints: hints(report, counts)}
	ok := counts[model.StatusSuccess]
	switch {
	case total == 0:
		d.Classification = string(ClassEmpty)
		d.Summary = "no probes were run"
	case ok == total:
		d.Classification = string(ClassHealthy)
		d.Summary = fmt.Sprintf("all %d probes succeeded", total)
	case ok == 0:
		d.Classification = string(ClassOffline)
		d.Summary = fmt.Sprintf("all %d probes failed", total)
	default:
		d.Classification = string(ClassDegraded)
		d.Summary = fmt.Sprintf("%d of %d probes failed", total-ok, total)
	}
	return d
}

func hints(report model.Report, counts map[model.Status]int) []string {
	out := []string{}
	if allFailed(report.Results(model.KindDNS)) {
		resolver := report.Results(model.KindDNS)[0].Spec.Resolver
		out = append(out, fmt.Sprintf("every DNS lookup failed; check that resolver %s is reachable", resolver))
	}
	if allFailed(report.Results(model.KindPing)) && allFailed(report.Results(model.KindTCP)) {
		out = append(out, "no host answered ping or TCP; check the default route and uplink")
	}
	if anySucceeded(report.Results(model.KindTCP)) && allFailed(report.Results(model.KindHTTP)) {
		out = append(out, "TCP connects succeed but HTTP fails; suspect a proxy, TLS or application problem")
	}
	if counts[model.StatusTimeout] > 0 {
		out = append(out, "some probes timed out; a firewall may be dropping packets")
	}
	return out
}

func allFailed(results []model.ProbeResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Outcome.Status() == model.StatusSuccess {
			return false
		}
	}
	return true
}

func anySucceeded(results []model.ProbeResult) bool {
	for _, r := range results {
		if r.Outcome.Status() == model.StatusSuccess {
			return true
		}
	}
	return false
}
