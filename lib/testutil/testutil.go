package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"akiclient/lib/scrapers/akinator/core"

	_ "modernc.org/sqlite"
)

// OpenDB opens an in-memory sqlite database with schema applied, it is
// closed when the test ends.
func OpenDB(t testing.TB, schema string) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Reply is one scripted transport result.
type Reply struct {
	Status int
	Body   string
	Err    error
}

func JSON(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

func HTML(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

func Failure(err error) Reply {
	return Reply{Err: err}
}

// FakeTransport replays scripted replies keyed by request path and records
// every request it receives.
type FakeTransport struct {
	mu       sync.Mutex
	replies  map[string][]Reply
	requests []core.Request
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{replies: map[string][]Reply{}}
}

func pathOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// On queues replies for a path such as "/answer", use "/" for the region
// root.
func (f *FakeTransport) On(path string, replies ...Reply) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[path] = append(f.replies[path], replies...)
	return f
}

func (f *FakeTransport) Send(_ context.Context, req core.Request) (*core.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	path := pathOf(req.Endpoint)
	queue := f.replies[path]
	if len(queue) == 0 {
		return nil, &core.TransportError{
			Method: req.Method,
			URL:    req.Endpoint,
			Err:    fmt.Errorf("no scripted reply for %s", path),
		}
	}
	reply := queue[0]
	f.replies[path] = queue[1:]

	if reply.Err != nil {
		return nil, &core.TransportError{Method: req.Method, URL: req.Endpoint, Err: reply.Err}
	}
	return &core.Response{
		StatusCode: reply.Status,
		Header:     http.Header{},
		Body:       []byte(reply.Body),
	}, nil
}

// Requests returns every request sent so far.
func (f *FakeTransport) Requests() []core.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Request(nil), f.requests...)
}

// Calls counts the requests sent to path.
func (f *FakeTransport) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.requests {
		if pathOf(req.Endpoint) == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request sent to path.
func (f *FakeTransport) Last(path string) (core.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if pathOf(f.requests[i].Endpoint) == path {
			return f.requests[i], true
		}
	}
	return core.Request{}, false
}
