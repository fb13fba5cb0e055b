package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	version "github.com/mcuadros/go-version"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the newest catalog "$version" this build understands.
const SchemaVersion = "1.0"

// Catalog is a read-only collection of sites keyed by name.
type Catalog struct {
	version string
	sites   map[string]Site
}

type siteSpec struct {
	URL        string     `json:"url"`
	Category   string     `json:"category"`
	RegexCheck string     `json:"regex_check"`
	Claimed    string     `json:"claimed"`
	Unclaimed  string     `json:"unclaimed"`
	Methods    []ruleSpec `json:"check_methods"`
}

type ruleSpec struct {
	Type          string `json:"type"`
	Expect        int    `json:"expect"`
	Pattern       string `json:"pattern"`
	URL           string `json:"url"`
	AbsenceMarker string `json:"absence_marker"`
	JSONPath      string `json:"json_path"`
	UseHead       bool   `json:"use_head"`
}

// New builds a catalog from already validated sites. Later duplicates win.
func New(sites ...Site) *Catalog {
	c := &Catalog{version: SchemaVersion, sites: make(map[string]Site, len(sites))}
	for _, s := range sites {
		c.sites[s.Name] = s
	}
	return c
}

// Load reads a catalog file. Files ending in .yaml or .yml are read as YAML,
// anything else as JSON. Every failure is returned as a *LoadError.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // catalog path comes from the operator
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	if isYAML(path) {
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	c, err := Parse(raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return c, nil
}

// LoadOrDefault behaves like Load but substitutes Default when loading fails.
// The load error is still returned so the caller can report it.
func LoadOrDefault(path string) (*Catalog, error) {
	c, err := Load(path)
	if err != nil {
		return Default(), err
	}
	return c, nil
}

// Parse decodes a JSON catalog shaped categories -> site name -> definition.
// Top-level keys starting with "$" carry metadata and are not categories.
func Parse(raw []byte) (*Catalog, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.Wrap(err, "parse json")
	}

	c := &Catalog{version: SchemaVersion, sites: make(map[string]Site)}
	for key, msg := range top {
		if strings.HasPrefix(key, "$") {
			if key == "$version" {
				var v json.Number
				if err := json.Unmarshal(msg, &v); err != nil {
					if err := json.Unmarshal(msg, &c.version); err != nil {
						return nil, errors.Wrap(err, "$version")
					}
					continue
				}
				c.version = v.String()
			}
			continue
		}

		var group map[string]siteSpec
		if err := json.Unmarshal(msg, &group); err != nil {
			return nil, errors.Wrapf(err, "category %q", key)
		}
		for name, spec := range group {
			if _, dup := c.sites[name]; dup {
				return nil, errors.Errorf("site %q defined more than once", name)
			}
			site, err := spec.site(name, key)
			if err != nil {
				return nil, errors.Wrapf(err, "site %q", name)
			}
			c.sites[name] = site
		}
	}

	if len(c.sites) == 0 {
		return nil, errors.New("catalog defines no sites")
	}
	return c, nil
}

func (s siteSpec) site(name, category string) (Site, error) {
	if !strings.Contains(s.URL, Placeholder) {
		return Site{}, errors.Errorf("url %q has no %s placeholder", s.URL, Placeholder)
	}
	if len(s.Methods) == 0 {
		return Site{}, errors.New("no check_methods")
	}

	site := Site{
		Name:       name,
		URL:        s.URL,
		Category:   category,
		RegexCheck: s.RegexCheck,
		Claimed:    s.Claimed,
		Unclaimed:  s.Unclaimed,
		Rules:      make([]Rule, 0, len(s.Methods)),
	}
	if s.Category != "" {
		site.Category = s.Category
	}

	for i, m := range s.Methods {
		r, err := m.rule()
		if err != nil {
			return Site{}, errors.Wrapf(err, "check_methods[%d]", i)
		}
		site.Rules = append(site.Rules, r)
	}
	return site, nil
}

func (m ruleSpec) rule() (Rule, error) {
	switch Kind(m.Type) {
	case KindStatusCode:
		expected := m.Expect
		if expected == 0 {
			expected = 200
		}
		return StatusCodeRule{Expected: expected, Head: m.UseHead}, nil
	case KindRedirect:
		if m.Pattern == "" {
			return nil, errors.New("redirect rule needs a pattern")
		}
		return RedirectRule{Pattern: m.Pattern, Head: m.UseHead}, nil
	case KindContent:
		if m.Pattern == "" {
			return nil, errors.New("content rule needs a pattern")
		}
		return ContentRule{Pattern: m.Pattern, Head: m.UseHead}, nil
	case KindAPI:
		if m.URL == "" {
			return nil, errors.New("api rule needs a url")
		}
		return APIRule{URL: m.URL, AbsenceMarker: m.AbsenceMarker, JSONPath: m.JSONPath, Head: m.UseHead}, nil
	default:
		return nil, errors.Errorf("unsupported check type %q", m.Type)
	}
}

// Version is the catalog's declared schema version.
func (c *Catalog) Version() string { return c.version }

// NewerThanSupported reports whether the catalog declares a schema newer
// than SchemaVersion. Such catalogs are still used.
func (c *Catalog) NewerThanSupported() bool {
	return version.Compare(version.Normalize(c.version), version.Normalize(SchemaVersion), ">")
}

func (c *Catalog) Len() int { return len(c.sites) }

// Lookup finds a site by exact name.
func (c *Catalog) Lookup(name string) (Site, bool) {
	s, ok := c.sites[name]
	return s, ok
}

// Sites returns every site sorted by name.
func (c *Catalog) Sites() []Site {
	out := make([]Site, 0, len(c.sites))
	for _, s := range c.sites {
		out = append(out, s)
	}
	sortSites(out)
	return out
}

// Categories returns the distinct category labels, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	for _, s := range c.sites {
		seen[s.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Select narrows the catalog to the named sites (case-insensitive) and, when
// category is non-empty, to that category. With no names every site is a
// candidate. Unknown names are skipped and reported as *UnknownSiteError
// alongside the sites that did match.
func (c *Catalog) Select(names []string, category string) ([]Site, error) {
	candidates := c.Sites()

	var unknown []string
	if len(names) > 0 {
		lut := make(map[string]Site, len(c.sites))
		for name, s := range c.sites {
			lut[strings.ToLower(name)] = s
		}

		picked := make(map[string]Site, len(names))
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if s, ok := lut[strings.ToLower(n)]; ok {
				picked[s.Name] = s
			} else {
				unknown = append(unknown, n)
			}
		}

		candidates = candidates[:0]
		for _, s := range picked {
			candidates = append(candidates, s)
		}
		sortSites(candidates)
	}

	if category != "" {
		filtered := candidates[:0]
		for _, s := range candidates {
			if strings.EqualFold(s.Category, category) {
				filtered = append(filtered, s)
			}
		}
		candidates = filtered
	}

	if len(unknown) > 0 {
		return candidates, &UnknownSiteError{Names: unknown}
	}
	return candidates, nil
}

func sortSites(sites []Site) {
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "parse yaml")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "convert yaml")
	}
	return out, nil
}
