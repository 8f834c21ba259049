package session

import (
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/game"
	"akiclient/lib/telemetry"
)

// handle owns the transport lifetime of one session. An injected
// transport is borrowed, a client created on first use is owned and
// closed by release.
type handle struct {
	opts      options
	tel       telemetry.API
	transport core.Transport
	owned     *core.Client
	closed    bool
}

func newHandle(opts options) *handle {
	return &handle{
		opts: opts,
		tel:  telemetry.NewScopedAPI("session", opts.tel),
	}
}

func (h *handle) acquire() (core.Transport, error) {
	if h.closed {
		return nil, core.ErrClosed
	}
	if h.transport != nil {
		return h.transport, nil
	}
	if h.opts.transport != nil {
		h.transport = h.opts.transport
		return h.transport, nil
	}
	client, err := core.NewClient(h.opts.client)
	if err != nil {
		return nil, err
	}
	h.owned = client
	h.transport = client
	return client, nil
}

// current returns the transport without acquiring one.
func (h *handle) current() core.Transport {
	return h.transport
}

// started returns the transport acquired by Start.
func (h *handle) started() (core.Transport, error) {
	if h.closed {
		return nil, core.ErrClosed
	}
	if h.transport == nil {
		return nil, game.ErrNotStarted
	}
	return h.transport, nil
}

func (h *handle) release() error {
	h.closed = true
	owned := h.owned
	h.owned = nil
	h.transport = nil
	if owned == nil {
		return nil
	}
	return owned.Close()
}

// leaked reports a session that is collected while still holding its own
// client. It only reports, releasing is the caller's job.
func (h *handle) leaked() {
	if h.owned != nil {
		h.tel.ReportBroken("session was garbage collected without Close")
	}
}
