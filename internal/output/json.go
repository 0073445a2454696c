package output

import (
	"encoding/json"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
)

type reportView struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Sections   []sectionView    `json:"sections"`
	System     model.SystemInfo `json:"system"`
	Diagnosis  model.Diagnosis  `json:"diagnosis"`
}

type sectionView struct {
	Kind    model.Kind   `json:"kind"`
	Results []resultView `json:"results"`
}

type resultView struct {
	Kind      model.Kind   `json:"kind"`
	Target    string       `json:"target"`
	Port      int          `json:"port,omitempty"`
	Status    model.Status `json:"status"`
	ElapsedMS int64        `json:"elapsed_ms"`
	TimeoutMS int64        `json:"timeout_ms"`

	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
	Loss       string   `json:"loss,omitempty"`
	Addresses  []string `json:"addresses,omitempty"`
	Open       *bool    `json:"open,omitempty"`
	StatusCode int      `json:"status_code,omitempty"`
	LatencyMS  float64  `json:"latency_ms,omitempty"`
}

func RenderJSON(report model.Report) (string, error) {
	view := reportView{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Sections:   make([]sectionView, 0, len(report.Sections)),
		System:     report.System,
		Diagnosis:  report.Diagnosis,
	}
	for _, section := range report.Sections {
		sv := sectionView{Kind: section.Kind, Results: make([]resultView, 0, len(section.Results))}
		for _, result := range section.Results {
			sv.Results = append(sv.Results, newResultView(result))
		}
		view.Sections = append(view.Sections, sv)
	}

	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newResultView(result model.ProbeResult) resultView {
	rv := resultView{
		Kind:      result.Spec.Kind,
		Target:    result.Spec.Target,
		Port:      result.Spec.Port,
		Status:    result.Outcome.Status(),
		ElapsedMS: result.Elapsed.Milliseconds(),
		TimeoutMS: result.Spec.Timeout.Milliseconds(),
	}
	switch o := result.Outcome.(type) {
	case model.Success:
		switch d := o.Detail.(type) {
		case model.PingDetail:
			rv.Loss = d.LossString()
		case model.DNSDetail:
			rv.Addresses = d.Addresses
		case model.PortDetail:
			open := d.Open
			rv.Open = &open
		case model.HTTPDetail:
			rv.StatusCode = d.StatusCode
			rv.LatencyMS = d.LatencyMS()
		}
	case model.Failure:
		rv.Reason = o.Reason
	case model.Timeout:
		rv.Reason = "timeout after " + o.After.String()
	case model.Error:
		rv.Error = o.Message
	case model.HTTPError:
		rv.StatusCode = o.Code
	}
	return rv
}
