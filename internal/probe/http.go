package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jaxxstorm/netdiag/internal/model"
	"go.uber.org/zap"
)

// HTTP issues a GET and reports the status code and latency.
type HTTP struct {
	// Client is optional; a fresh client with the probe timeout and its own
	// transport is used otherwise. Either way the connection is closed
	// before Probe returns.
	Client *http.Client
	Logger *zap.Logger
}

func (h *HTTP) Probe(ctx context.Context, spec model.ProbeSpec) model.Outcome {
	ctx, cancel, timeout := withTimeout(ctx, spec)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.Target, nil)
	if err != nil {
		return model.Errorf("failed to create request: %v", err)
	}
	userAgent := spec.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Close = true

	client := h.Client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DisableKeepAlives = true
		client = &http.Client{Timeout: timeout, Transport: transport}
	}
	defer client.CloseIdleConnections()

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if isTimeout(ctx, err) {
			return model.Timeout{After: timeout}
		}
		return model.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	orNop(h.Logger).Debug("http response",
		zap.String("url", spec.Target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency),
	)
	if resp.StatusCode >= 400 {
		return model.HTTPError{Code: resp.StatusCode}
	}
	return model.Success{Detail: model.HTTPDetail{StatusCode: resp.StatusCode, Latency: latency}}
}
