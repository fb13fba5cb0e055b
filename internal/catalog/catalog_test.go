package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "$version": "1.0",
  "social": {
    "Instagram": {
      "url": "https://www.instagram.com/{}/",
      "check_methods": [
        {"type": "status_code", "expect": 200},
        {"type": "redirect", "pattern": "accounts/login"},
        {"type": "content", "pattern": "Sorry, this page isn't available", "use_head": false},
        {"type": "api", "url": "https://www.instagram.com/api/?username={}"}
      ]
    },
    "Mastodon": {
      "url": "https://mastodon.social/@{}",
      "category": "fediverse",
      "check_methods": [{"type": "status_code", "use_head": true}]
    }
  },
  "code": {
    "GitHub": {
      "url": "https://github.com/{}",
      "regex_check": "^[a-z0-9-]+$",
      "claimed": "github",
      "unclaimed": "noonewouldeverusethis7",
      "check_methods": [
        {"type": "status_code", "expect": 200},
        {"type": "content", "pattern": "This is not the web page you are looking for"}
      ]
    }
  }
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_CategorizedJSON(t *testing.T) {
	c, err := Load(writeFile(t, "sites.json", sampleCatalog))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "1.0", c.Version())
	assert.False(t, c.NewerThanSupported())

	ig, ok := c.Lookup("Instagram")
	require.True(t, ok)
	assert.Equal(t, "social", ig.Category)
	require.Len(t, ig.Rules, 4)
	assert.Equal(t, StatusCodeRule{Expected: 200}, ig.Rules[0])
	assert.Equal(t, RedirectRule{Pattern: "accounts/login"}, ig.Rules[1])
	assert.Equal(t, KindContent, ig.Rules[2].Kind())
	api, ok := ig.Rules[3].(APIRule)
	require.True(t, ok)
	assert.Equal(t, DefaultAbsenceMarker, api.Marker())

	masto, _ := c.Lookup("Mastodon")
	assert.Equal(t, "fediverse", masto.Category, "site-level category overrides the group")
	require.Len(t, masto.Rules, 1)
	assert.True(t, masto.Rules[0].UseHead())
	assert.Equal(t, 200, masto.Rules[0].(StatusCodeRule).Expected, "expect defaults to 200")

	gh, _ := c.Lookup("GitHub")
	assert.Equal(t, "code", gh.Category)
	assert.Equal(t, "^[a-z0-9-]+$", gh.RegexCheck)
	assert.Equal(t, "github", gh.Claimed)
	assert.Equal(t, "https://github.com/alice", gh.ProfileURL("alice"))

	assert.Equal(t, []string{"code", "fediverse", "social"}, c.Categories())
}

func TestLoad_YAML(t *testing.T) {
	doc := `
$version: "1.0"
code:
  GitLab:
    url: https://gitlab.com/{}
    check_methods:
      - type: status_code
        expect: 200
      - type: api
        url: https://gitlab.com/api/v4/users?username={}
        json_path: "0.id"
`
	c, err := Load(writeFile(t, "sites.yaml", doc))
	require.NoError(t, err)

	gl, ok := c.Lookup("GitLab")
	require.True(t, ok)
	require.Len(t, gl.Rules, 2)
	assert.Equal(t, APIRule{URL: "https://gitlab.com/api/v4/users?username={}", JSONPath: "0.id"}, gl.Rules[1])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "not json", body: "{", want: "parse json"},
		{name: "empty", body: "{}", want: "no sites"},
		{name: "category not an object", body: `{"social": 3}`, want: `category "social"`},
		{name: "missing placeholder", body: `{"a": {"X": {"url": "https://x", "check_methods": [{"type": "status_code"}]}}}`, want: "placeholder"},
		{name: "no rules", body: `{"a": {"X": {"url": "https://x/{}"}}}`, want: "no check_methods"},
		{name: "unknown type", body: `{"a": {"X": {"url": "https://x/{}", "check_methods": [{"type": "dns"}]}}}`, want: `unsupported check type "dns"`},
		{name: "content without pattern", body: `{"a": {"X": {"url": "https://x/{}", "check_methods": [{"type": "content"}]}}}`, want: "needs a pattern"},
		{name: "duplicate", body: `{"a": {"X": {"url": "https://x/{}", "check_methods": [{"type": "status_code"}]}}, "b": {"X": {"url": "https://x/{}", "check_methods": [{"type": "status_code"}]}}}`, want: "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "sites.json", tt.body))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOrDefault_FallsBack(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NotNil(t, c)
	assert.GreaterOrEqual(t, c.Len(), 2)

	kinds := map[Kind]bool{}
	for _, s := range c.Sites() {
		for _, r := range s.Rules {
			kinds[r.Kind()] = true
		}
	}
	assert.True(t, kinds[KindStatusCode])
	assert.True(t, kinds[KindContent] || kinds[KindRedirect])
}

func TestLoadOrDefault_MalformedFallsBack(t *testing.T) {
	c, err := LoadOrDefault(writeFile(t, "sites.json", "not a catalog"))
	require.Error(t, err)
	_, ok := c.Lookup("GitHub")
	assert.True(t, ok)
}

func TestNewerThanSupported(t *testing.T) {
	c, err := Parse([]byte(`{"$version": "2.1", "a": {"X": {"url": "https://x/{}", "check_methods": [{"type": "status_code"}]}}}`))
	require.NoError(t, err)
	assert.True(t, c.NewerThanSupported())

	// unquoted YAML versions arrive as numbers
	c, err = Parse([]byte(`{"$version": 1.0, "a": {"X": {"url": "https://x/{}", "check_methods": [{"type": "status_code"}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, "1.0", c.Version())
	assert.False(t, c.NewerThanSupported())
}

func TestSelect(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	t.Run("all", func(t *testing.T) {
		sites, err := c.Select(nil, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"GitHub", "Instagram", "Mastodon"}, names(sites))
	})

	t.Run("case insensitive names", func(t *testing.T) {
		sites, err := c.Select([]string{"github", " INSTAGRAM "}, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"GitHub", "Instagram"}, names(sites))
	})

	t.Run("unknown names are skipped", func(t *testing.T) {
		sites, err := c.Select([]string{"GitHub", "MySpace", "Orkut"}, "")
		assert.Equal(t, []string{"GitHub"}, names(sites))

		var ue *UnknownSiteError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, []string{"MySpace", "Orkut"}, ue.Names)
		assert.Equal(t, "unknown sites: MySpace, Orkut", ue.Error())
	})

	t.Run("category", func(t *testing.T) {
		sites, err := c.Select(nil, "Social")
		require.NoError(t, err)
		assert.Equal(t, []string{"Instagram"}, names(sites))
	})

	t.Run("names and category", func(t *testing.T) {
		sites, err := c.Select([]string{"GitHub", "Mastodon"}, "fediverse")
		require.NoError(t, err)
		assert.Equal(t, []string{"Mastodon"}, names(sites))
	})
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) doerFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	}
}

func TestDownload(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "sites.json")

	var gotUA string
	client := doerFunc(func(r *http.Request) (*http.Response, error) {
		gotUA = r.Header.Get("User-Agent")
		return respond(http.StatusOK, sampleCatalog)(r)
	})

	require.NoError(t, Download(context.Background(), client, "https://example.com/sites.json", "ua/1", dest))
	assert.Equal(t, "ua/1", gotUA)

	c, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestDownload_RejectsBadPayloads(t *testing.T) {
	dest := writeFile(t, "sites.json", sampleCatalog)

	err := Download(context.Background(), respond(http.StatusNotFound, "nope"), "https://example.com/x", "", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download failed")

	err = Download(context.Background(), respond(http.StatusOK, "{}"), "https://example.com/x", "", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")

	// The existing catalog is left untouched.
	c, err := Load(dest)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func names(sites []Site) []string {
	out := make([]string, 0, len(sites))
	for _, s := range sites {
		out = append(out, s.Name)
	}
	return out
}
