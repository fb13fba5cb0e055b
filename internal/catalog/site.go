package catalog

import (
	"strings"
)

// Placeholder is substituted with the username in profile and API URL templates.
const Placeholder = "{}"

// Kind names a rule variant. It is also what a probe reports as the method
// that produced its verdict.
type Kind string

const (
	KindStatusCode Kind = "status_code"
	KindRedirect   Kind = "redirect"
	KindContent    Kind = "content"
	KindAPI        Kind = "api"
)

// Rule is one heuristic check. The set of implementations is closed:
// StatusCodeRule, RedirectRule, ContentRule and APIRule.
type Rule interface {
	Kind() Kind
	// UseHead reports whether the rule is evaluated with a HEAD request.
	UseHead() bool

	sealed()
}

// StatusCodeRule finds the account when the response status equals Expected.
type StatusCodeRule struct {
	Expected int
	Head     bool
}

// RedirectRule rules the account out when the final URL contains Pattern.
type RedirectRule struct {
	Pattern string
	Head    bool
}

// ContentRule rules the account out when the body contains Pattern, ignoring case.
type ContentRule struct {
	Pattern string
	Head    bool
}

// DefaultAbsenceMarker is what APIRule looks for when no marker is configured.
const DefaultAbsenceMarker = `"user":null`

// APIRule queries URL and finds the account unless the body carries
// AbsenceMarker. With JSONPath set, the body is read as JSON instead and the
// account is absent when the path is missing or null.
type APIRule struct {
	URL           string
	AbsenceMarker string
	JSONPath      string
	Head          bool
}

func (r StatusCodeRule) Kind() Kind { return KindStatusCode }
func (r RedirectRule) Kind() Kind   { return KindRedirect }
func (r ContentRule) Kind() Kind    { return KindContent }
func (r APIRule) Kind() Kind        { return KindAPI }

func (r StatusCodeRule) UseHead() bool { return r.Head }
func (r RedirectRule) UseHead() bool   { return r.Head }
func (r ContentRule) UseHead() bool    { return r.Head }
func (r APIRule) UseHead() bool        { return r.Head }

func (StatusCodeRule) sealed() {}
func (RedirectRule) sealed()   {}
func (ContentRule) sealed()    {}
func (APIRule) sealed()        {}

// Marker returns the configured absence marker or DefaultAbsenceMarker.
func (r APIRule) Marker() string {
	if r.AbsenceMarker == "" {
		return DefaultAbsenceMarker
	}
	return r.AbsenceMarker
}

// Site is one probed service. Sites are values and are not modified after loading.
type Site struct {
	Name     string
	URL      string
	Category string
	Rules    []Rule

	// RegexCheck, when set, is a regexp2 pattern a username must match
	// before the site is probed at all.
	RegexCheck string

	// Claimed and Unclaimed are known-registered and known-free usernames
	// used to self-test the site's rules.
	Claimed   string
	Unclaimed string
}

// ProfileURL returns the site's profile URL for username.
func (s Site) ProfileURL(username string) string {
	return Expand(s.URL, username)
}

// Expand substitutes username into a URL template.
func Expand(template, username string) string {
	return strings.ReplaceAll(template, Placeholder, username)
}
