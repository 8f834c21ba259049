package telemetry

import (
	"fmt"
	"log/slog"
)

// API is the reporting facade components use instead of logging directly,
// which lets tests assert on what was reported.
type API interface {
	// ReportBroken reports a component that broke in a way that should be
	// addressed. `id` names the component, e.g. "session.close".
	ReportBroken(id string, params ...any)
	// ReportWarning reports something degraded but recoverable.
	ReportWarning(id string, params ...any)
	// ReportDebug reports information that is ignored in production.
	ReportDebug(msg string, params ...any)
	// ReportCount reports a point-in-time count of an event.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, like a sub-logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}

// SlogAPI implements API on top of the default slog logger.
type SlogAPI struct{}

func (SlogAPI) attrs(id string, params []any) []any {
	out := make([]any, 0, len(params)*2+2)
	if id != "" {
		out = append(out, "id", id)
	}
	for i, p := range params {
		out = append(out, fmt.Sprintf("params.%d", i), p)
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", s.attrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", s.attrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, s.attrs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}

// NopAPI discards every report.
type NopAPI struct{}

func (NopAPI) ReportBroken(string, ...any)  {}
func (NopAPI) ReportWarning(string, ...any) {}
func (NopAPI) ReportDebug(string, ...any)   {}
func (NopAPI) ReportCount(string, int64)    {}
