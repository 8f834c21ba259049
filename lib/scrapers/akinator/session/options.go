package session

import (
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/region"
	"akiclient/lib/telemetry"
)

type options struct {
	domain    string
	probe     bool
	cache     region.Cache
	transport core.Transport
	tel       telemetry.API
	client    core.ClientOptions
}

func defaultOptions() options {
	return options{
		domain: region.DefaultDomain,
		probe:  true,
		cache:  region.NopCache{},
		tel:    telemetry.SlogAPI{},
		client: core.ClientOptions{
			Timeout:          core.DefaultTimeout,
			CloudflareBypass: true,
		},
	}
}

type Option func(o *options)

// WithDomain replaces the service's domain, regions become
// https://<code>.<domain>.
func WithDomain(domain string) Option {
	return func(o *options) {
		o.domain = domain
	}
}

// WithTransport makes the session use t instead of creating its own
// client. The session never closes a transport it did not create.
func WithTransport(t core.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithRegionCache shares the set of already probed regions between
// sessions.
func WithRegionCache(cache region.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithProbe toggles the reachability check sent to a region before its
// first game.
func WithProbe(probe bool) Option {
	return func(o *options) {
		o.probe = probe
	}
}

func WithTelemetry(tel telemetry.API) Option {
	return func(o *options) {
		o.tel = tel
	}
}

// WithClientOptions configures the client created when no transport was
// injected.
func WithClientOptions(opts core.ClientOptions) Option {
	return func(o *options) {
		o.client = opts
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = region.NopCache{}
	}
	if o.tel == nil {
		o.tel = telemetry.NopAPI{}
	}
	if o.client.Telemetry == nil {
		o.client.Telemetry = o.tel
	}
	return o
}

func (o options) resolver() region.Resolver {
	return region.Resolver{
		Domain: o.domain,
		Probe:  o.probe,
		Cache:  o.cache,
	}
}
