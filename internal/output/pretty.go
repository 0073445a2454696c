package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/netdiag/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

var sectionTitles = map[model.Kind]string{
	model.KindPing: "Ping",
	model.KindDNS:  "DNS",
	model.KindTCP:  "TCP ports",
	model.KindHTTP: "HTTP",
}

func RenderPretty(report model.Report) string {
	lines := banner(fmt.Sprintf("netdiag - %s", report.StartedAt.Format(timeLayout)))
	lines = append(lines, "")

	if report.System.Interfaces != "" {
		lines = append(lines, block("Network interfaces", report.System.Interfaces)...)
	}
	if report.System.Routes != "" {
		lines = append(lines, block("Routing table", report.System.Routes)...)
	}

	for _, section := range report.Sections {
		lines = append(lines, headingStyle.Render(sectionTitles[section.Kind]))
		if len(section.Results) == 0 {
			lines = append(lines, stepStyle.Render("  no targets"), "")
			continue
		}
		for _, result := range section.Results {
			lines = append(lines, "  "+stepStyle.Render(result.Spec.Address()))
			label, text := describe(result.Outcome)
			lines = append(lines, fmt.Sprintf("    %s %s", label, stepStyle.Render(text)))
		}
		lines = append(lines, "")
	}

	if len(report.System.NetStats) > 0 {
		lines = append(lines, headingStyle.Render("Network statistics"))
		for _, line := range report.System.NetStats {
			lines = append(lines, "  "+stepStyle.Render(line))
		}
		lines = append(lines, "")
	}

	summary := fmt.Sprintf("%s %s", report.Diagnosis.Classification, report.Diagnosis.Summary)
	switch report.Diagnosis.Classification {
	case "HEALTHY":
		lines = append(lines, successStyle.Render(summary))
	case "DEGRADED":
		lines = append(lines, warnStyle.Render(summary))
	default:
		lines = append(lines, failureStyle.Render(summary))
	}
	if len(report.Diagnosis.Hints) > 0 {
		lines = append(lines, "Hints:")
		for _, hint := range report.Diagnosis.Hints {
			lines = append(lines, "- "+hint)
		}
	}
	lines = append(lines, "")
	lines = append(lines, banner(fmt.Sprintf("finished - %s", report.FinishedAt.Format(timeLayout)))...)

	return strings.Join(lines, "\n")
}

// describe returns the status label and the text that follows it.
func describe(outcome model.Outcome) (string, string) {
	switch o := outcome.(type) {
	case model.Success:
		return successStyle.Render("OK"), describeDetail(o.Detail)
	case model.Failure:
		return failureStyle.Render("FAIL"), o.Reason
	case model.Timeout:
		return warnStyle.Render("TIMEOUT"), fmt.Sprintf("no answer after %s", o.After.Round(time.Millisecond))
	case model.Error:
		return failureStyle.Render("FAIL"), o.Message
	case model.HTTPError:
		return warnStyle.Render("WARN"), fmt.Sprintf("HTTP %d", o.Code)
	default:
		return failureStyle.Render("FAIL"), fmt.Sprintf("unknown outcome %T", outcome)
	}
}

func describeDetail(detail model.Detail) string {
	switch d := detail.(type) {
	case model.PingDetail:
		return "reachable, packet loss " + d.LossString()
	case model.DNSDetail:
		return "resolved " + strings.Join(d.Addresses, ", ")
	case model.PortDetail:
		if d.Open {
			return "open"
		}
		return "closed"
	case model.HTTPDetail:
		return fmt.Sprintf("HTTP %d in %s", d.StatusCode, d.LatencyString())
	case nil:
		return "ok"
	default:
		return fmt.Sprintf("%v", d)
	}
}

func banner(text string) []string {
	rule := strings.Repeat("=", 50)
	return []string{titleStyle.Render(rule), titleStyle.Render(text), titleStyle.Render(rule)}
}

func block(title, body string) []string {
	lines := []string{headingStyle.Render(title)}
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		lines = append(lines, stepStyle.Render(line))
	}
	return append(lines, "")
}
