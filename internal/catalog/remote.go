package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Doer lets Download accept *http.Client or a test double.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Download fetches a catalog from rawURL and replaces destPath with it.
// The payload must parse as a catalog before anything on disk is touched.
func Download(ctx context.Context, client Doer, rawURL, userAgent, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "download catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a small snippet for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Errorf("download failed: %s (%s)", resp.Status, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	check := body
	if isYAML(destPath) {
		if check, err = yamlToJSON(body); err != nil {
			return err
		}
	}
	if _, err := Parse(check); err != nil {
		return errors.Wrap(err, "downloaded catalog is invalid")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, destPath)
}
