package region

import (
	"context"
	"fmt"
	"net/http"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/core"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/akinator/region")

const DefaultDomain = "akinator.com"

// Region is a resolved language: where to send requests and which
// theme to play by default.
type Region struct {
	Code   string
	URI    string
	Theme  gamedata.Theme
	Themes []gamedata.Theme
}

func URI(code, domain string) string {
	return fmt.Sprintf("https://%s.%s", code, domain)
}

// Cache remembers region codes that were already probed successfully.
// Entries are never invalidated, an implementation may only forget them
// by eviction.
type Cache interface {
	Contains(code string) bool
	Add(code string)
}

// NopCache remembers nothing, every start probes its region.
type NopCache struct{}

func (NopCache) Contains(string) bool { return false }
func (NopCache) Add(string)           {}

// LRUCache is a bounded Cache safe for use by many sessions at once.
type LRUCache struct {
	cache *lru.Cache[string, struct{}]
}

func NewLRUCache(size int) (LRUCache, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return LRUCache{}, err
	}
	return LRUCache{cache: cache}, nil
}

func (c LRUCache) Contains(code string) bool {
	return c.cache.Contains(code)
}

func (c LRUCache) Add(code string) {
	c.cache.Add(code, struct{}{})
}

// Resolver turns a language into a Region.
type Resolver struct {
	Domain string
	// Probe sends a GET to the region before it is first used.
	Probe bool
	Cache Cache
}

// Lookup resolves a language without touching the network.
func (r Resolver) Lookup(language string) (Region, error) {
	code, err := gamedata.ResolveLanguage(language)
	if err != nil {
		return Region{}, err
	}
	theme, err := gamedata.DefaultTheme(code)
	if err != nil {
		return Region{}, err
	}
	domain := r.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	return Region{
		Code:   code,
		URI:    URI(code, domain),
		Theme:  theme,
		Themes: gamedata.RegionThemes[code],
	}, nil
}

// Resolve looks the language up and, when probing is enabled, checks the
// region answers before handing it out.
func (r Resolver) Resolve(ctx context.Context, t core.Transport, language string) (Region, error) {
	ctx, span := tracer.Start(ctx, "resolver:Resolve")
	defer span.End()

	region, err := r.Lookup(language)
	if err != nil {
		span.SetStatus(codes.Error, "invalid language")
		return Region{}, err
	}
	span.SetAttributes(attribute.String("region", region.Code))

	if !r.Probe {
		return region, nil
	}
	cache := r.Cache
	if cache == nil {
		cache = NopCache{}
	}
	if cache.Contains(region.Code) {
		return region, nil
	}

	req := core.Request{Method: http.MethodGet, Endpoint: region.URI}
	res, err := t.Send(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe region")
		return Region{}, err
	}
	if res.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "region probe returned "+http.StatusText(res.StatusCode))
		return Region{}, core.StatusError(req, res)
	}
	cache.Add(region.Code)
	return region, nil
}
