package model

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

type Kind string

const (
	KindPing Kind = "ping"
	KindDNS  Kind = "dns"
	KindTCP  Kind = "tcp"
	KindHTTP Kind = "http"
)

// Kinds is the display order of report sections.
var Kinds = []Kind{KindPing, KindDNS, KindTCP, KindHTTP}

func (k Kind) Valid() bool {
	switch k {
	case KindPing, KindDNS, KindTCP, KindHTTP:
		return true
	}
	return false
}

// ProbeSpec describes one probe. It is passed by value and never mutated.
type ProbeSpec struct {
	Kind      Kind          `json:"kind"`
	Target    string        `json:"target"`
	Port      int           `json:"port,omitempty"`
	Timeout   time.Duration `json:"timeout"`
	Count     int           `json:"count,omitempty"`
	Resolver  string        `json:"resolver,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
}

// Address is how the probe target is shown in reports.
func (s ProbeSpec) Address() string {
	if s.Kind == KindTCP {
		return net.JoinHostPort(s.Target, strconv.Itoa(s.Port))
	}
	return s.Target
}

func (s ProbeSpec) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Address())
}

type ProbeResult struct {
	Spec    ProbeSpec
	Outcome Outcome
	Elapsed time.Duration
}

type Section struct {
	Kind    Kind
	Results []ProbeResult
}

type SystemInfo struct {
	Interfaces string   `json:"interfaces,omitempty"`
	Routes     string   `json:"routes,omitempty"`
	NetStats   []string `json:"net_stats,omitempty"`
}

type Diagnosis struct {
	Classification string         `json:"classification"`
	Summary        string         `json:"summary"`
	Counts         map[Status]int `json:"counts"`
	Hints          []string       `json:"hints,omitempty"`
}

type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Sections   []Section
	System     SystemInfo
	Diagnosis  Diagnosis
}

// Results returns the results of one kind in declaration order.
func (r Report) Results(kind Kind) []ProbeResult {
	for _, section := range r.Sections {
		if section.Kind == kind {
			return section.Results
		}
	}
	return nil
}

// Total is the number of results across all sections.
func (r Report) Total() int {
	n := 0
	for _, section := range r.Sections {
		n += len(section.Results)
	}
	return n
}
