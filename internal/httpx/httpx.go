package httpx

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const DefaultTimeout = 10 * time.Second
const DefaultTorProxyURL = "socks5://127.0.0.1:9050"

// Doer lets us accept *http.Client or a test double.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	// Timeout bounds each request, redirects and body read included.
	Timeout time.Duration
	// ProxyURL is an http, https, socks5 or socks5h proxy. Empty means
	// the environment's proxy settings apply.
	ProxyURL string
	// WithTor routes through DefaultTorProxyURL when ProxyURL is empty.
	WithTor bool
}

// ParseProxyURL validates a proxy URL.
func ParseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse proxy url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, errors.Errorf("unsupported proxy scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return nil, errors.Errorf("proxy url %q has no host", raw)
	}
	return u, nil
}

func NewClient(cfg ClientConfig) (*http.Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProxyURL == "" && cfg.WithTor {
		cfg.ProxyURL = DefaultTorProxyURL
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if cfg.ProxyURL != "" {
		u, err := ParseProxyURL(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		default:
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, errors.Wrap(err, "create socks dialer")
			}

			transport.Proxy = nil
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

// NewRequest builds a request carrying browser-like headers and userAgent.
// Accept-Encoding is set explicitly, so bodies must be read with ReadBody.
func NewRequest(ctx context.Context, method, rawURL, userAgent string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("DNT", "1")
	return req, nil
}
