package httpx

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"
)

// DefaultMaxBodyBytes caps how much of a page is read for content checks.
const DefaultMaxBodyBytes = 2 << 20

// ReadBody reads at most limit decoded bytes of resp's body, undoing the
// Content-Encoding the server chose.
func ReadBody(resp *http.Response, limit int64) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", errors.Wrap(err, "gzip body")
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		r = fr
	case "br":
		r = brotli.NewReader(resp.Body)
	default:
		return "", errors.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	b, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}
	return string(b), nil
}
