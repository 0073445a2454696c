package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
	StatusHTTPError Status = "http_error"
)

// Outcome is one of Success, Failure, Timeout, Error or HTTPError.
type Outcome interface {
	Status() Status
	outcome()
}

type Success struct {
	Detail Detail
}

// Failure is a meaningful negative protocol result, such as a closed port.
type Failure struct {
	Reason string
}

type Timeout struct {
	After time.Duration
}

// Error is an operational problem: missing tool, permission denied,
// unresolvable host, malformed output.
type Error struct {
	Message string
}

// HTTPError means the server answered with a status >= 400.
type HTTPError struct {
	Code int
}

func (Success) Status() Status   { return StatusSuccess }
func (Failure) Status() Status   { return StatusFailure }
func (Timeout) Status() Status   { return StatusTimeout }
func (Error) Status() Status     { return StatusError }
func (HTTPError) Status() Status { return StatusHTTPError }

func (Success) outcome()   {}
func (Failure) outcome()   {}
func (Timeout) outcome()   {}
func (Error) outcome()     {}
func (HTTPError) outcome() {}

func Errorf(format string, args ...any) Error {
	return Error{Message: fmt.Sprintf(format, args...)}
}

// Detail is one of PingDetail, DNSDetail, PortDetail or HTTPDetail.
type Detail interface {
	detail()
}

type PingDetail struct {
	Loss float64
}

type DNSDetail struct {
	Addresses []string
}

type PortDetail struct {
	Open bool
}

type HTTPDetail struct {
	StatusCode int
	Latency    time.Duration
}

func (PingDetail) detail() {}
func (DNSDetail) detail()  {}
func (PortDetail) detail() {}
func (HTTPDetail) detail() {}

func (d PingDetail) LossString() string {
	return FormatLoss(d.Loss)
}

func FormatLoss(loss float64) string {
	return fmt.Sprintf("%.1f%%", loss)
}

// LatencyMS is the latency in milliseconds rounded to two decimals.
func (d HTTPDetail) LatencyMS() float64 {
	ms := float64(d.Latency) / float64(time.Millisecond)
	return float64(int64(ms*100+0.5)) / 100
}

func (d HTTPDetail) LatencyString() string {
	return fmt.Sprintf("%.2fms", float64(d.Latency)/float64(time.Millisecond))
}
