package probe

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type fakeRoute struct {
	status   int
	body     string
	err      error
	delay    time.Duration
	finalURL string
}

// fakeDoer answers requests from a URL -> route table. Unknown URLs get 404.
type fakeDoer struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	calls  []*http.Request
}

func newFakeDoer(routes map[string]fakeRoute) *fakeDoer {
	return &fakeDoer{routes: routes}
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	route, ok := f.routes[req.URL.String()]
	f.mu.Unlock()

	if !ok {
		route = fakeRoute{status: http.StatusNotFound}
	}

	if route.delay > 0 {
		select {
		case <-time.After(route.delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	if route.err != nil {
		return nil, route.err
	}

	final := req
	if route.finalURL != "" {
		u, _ := url.Parse(route.finalURL)
		final = req.Clone(req.Context())
		final.URL = u
	}

	return &http.Response{
		StatusCode: route.status,
		Status:     http.StatusText(route.status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(route.body)),
		Request:    final,
	}, nil
}

func (f *fakeDoer) Calls() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.calls...)
}
