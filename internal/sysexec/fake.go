package sysexec

import (
	"context"
	"strings"
	"sync"
)

// Fake returns canned output keyed by the full command line, e.g.
// "ping -c 3 example.com". Unknown commands fall back to Responder.
type Fake struct {
	Outputs   map[string]Output
	Errors    map[string]error
	Responder func(ctx context.Context, name string, args []string) (Output, error)

	mu    sync.Mutex
	calls []string
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) (Output, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if err, ok := f.Errors[key]; ok {
		return Output{ExitCode: -1}, err
	}
	if out, ok := f.Outputs[key]; ok {
		return out, nil
	}
	if f.Responder != nil {
		return f.Responder(ctx, name, args)
	}
	return Output{ExitCode: 127, Stderr: name + ": not found"}, nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}
