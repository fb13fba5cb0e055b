package probe

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/tdh8316/namescout/internal/catalog"
	"github.com/tdh8316/namescout/internal/httpx"
)

// Evaluator runs one site's rules against one username.
type Evaluator struct {
	client  httpx.Doer
	agents  *httpx.AgentPool
	maxBody int64
	logger  logrus.FieldLogger

	// Cache compiled regex_check per site
	regexCache    sync.Map // siteName -> *regexp2.Regexp
	regexErrCache sync.Map // siteName -> error
}

// NewEvaluator builds an Evaluator. Timeout and proxy are properties of client.
func NewEvaluator(client httpx.Doer, agents *httpx.AgentPool, cfg Config, logger logrus.FieldLogger) *Evaluator {
	if agents == nil {
		agents = httpx.NewAgentPool(nil, nil)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = httpx.DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Evaluator{
		client:  client,
		agents:  agents,
		maxBody: cfg.MaxBodyBytes,
		logger:  logger,
	}
}

// Evaluate applies site's rules in order until one yields a verdict.
// Failures of individual rules are kept in Attempts; they only become the
// result's error when no later rule decides.
func (e *Evaluator) Evaluate(ctx context.Context, site catalog.Site, username string) (res Result) {
	start := time.Now()
	res = Result{
		Username: username,
		Site:     site.Name,
		URL:      site.ProfileURL(username),
		Category: site.Category,
	}
	defer func() { res.Elapsed = time.Since(start) }()

	if site.RegexCheck != "" {
		re, err := e.getRegex(site.Name, site.RegexCheck)
		if err != nil {
			res.Err = errors.Wrap(err, "invalid regex_check")
			return res
		}
		ok, err := re.MatchString(username)
		if err != nil {
			res.Err = errors.Wrap(err, "regex_check match")
			return res
		}
		if !ok {
			// Username can't exist on this site; that is a verdict, not an error.
			res.MethodUsed = MethodRegexCheck
			return res
		}
	}

	for _, rule := range site.Rules {
		att, exists, decided := e.apply(ctx, rule, res.URL, username)
		res.Attempts = append(res.Attempts, att)
		e.logAttempt(site.Name, att, decided)

		if decided {
			res.Exists = exists
			res.MethodUsed = rule.Kind()
			return res
		}
		// Later rules would fail the same way; an interrupted site is not
		// "not found".
		if err := ctx.Err(); err != nil {
			res.Err = errors.Wrap(err, "check interrupted")
			return res
		}
	}

	res.Err = ErrNoVerdict
	return res
}

func (e *Evaluator) apply(ctx context.Context, rule catalog.Rule, profileURL, username string) (att Attempt, exists, decided bool) {
	target := profileURL
	if api, ok := rule.(catalog.APIRule); ok {
		target = catalog.Expand(api.URL, username)
	}
	method := http.MethodGet
	if rule.UseHead() {
		method = http.MethodHead
	}

	att = Attempt{Rule: rule.Kind(), URL: target}
	start := time.Now()
	defer func() { att.Elapsed = time.Since(start) }()

	req, err := httpx.NewRequest(ctx, method, target, e.agents.Pick())
	if err != nil {
		att.Err = err
		return att, false, false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		att.Err = &TransportError{URL: target, Err: err}
		return att, false, false
	}
	defer resp.Body.Close()
	att.Status = resp.StatusCode

	if resp.StatusCode >= http.StatusBadRequest {
		if sc, ok := rule.(catalog.StatusCodeRule); !ok || sc.Expected != resp.StatusCode {
			att.Err = &HTTPStatusError{Code: resp.StatusCode}
			return att, false, false
		}
	}

	switch r := rule.(type) {
	case catalog.StatusCodeRule:
		if resp.StatusCode == r.Expected {
			return att, true, true
		}

	case catalog.RedirectRule:
		if strings.Contains(finalURL(resp, target), r.Pattern) {
			return att, false, true
		}

	case catalog.ContentRule:
		body, err := httpx.ReadBody(resp, e.maxBody)
		if err != nil {
			att.Err = &TransportError{URL: target, Err: err}
			return att, false, false
		}
		if strings.Contains(strings.ToLower(body), strings.ToLower(r.Pattern)) {
			return att, false, true
		}

	case catalog.APIRule:
		body, err := httpx.ReadBody(resp, e.maxBody)
		if err != nil {
			att.Err = &TransportError{URL: target, Err: err}
			return att, false, false
		}
		if !apiAbsent(r, body) {
			return att, true, true
		}

	default:
		att.Err = errors.Errorf("unsupported rule %T", rule)
	}

	return att, false, false
}

func apiAbsent(r catalog.APIRule, body string) bool {
	if r.JSONPath != "" {
		v := gjson.Get(body, r.JSONPath)
		return !v.Exists() || v.Type == gjson.Null
	}
	return strings.Contains(body, r.Marker())
}

func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

func (e *Evaluator) logAttempt(site string, att Attempt, decided bool) {
	entry := e.logger.WithFields(logrus.Fields{
		"site":       site,
		"rule":       string(att.Rule),
		"url":        att.URL,
		"status":     att.Status,
		"elapsed_ms": att.Elapsed.Milliseconds(),
		"decided":    decided,
	})
	if att.Err != nil {
		entry.WithError(att.Err).Debug("rule_failed")
		return
	}
	entry.Debug("rule_checked")
}

func (e *Evaluator) getRegex(site, expr string) (*regexp2.Regexp, error) {
	if v, ok := e.regexCache.Load(site); ok {
		return v.(*regexp2.Regexp), nil
	}
	if v, ok := e.regexErrCache.Load(site); ok {
		return nil, v.(error)
	}

	re, err := regexp2.Compile(expr, 0)
	if err != nil {
		e.regexErrCache.Store(site, err)
		return nil, err
	}
	re.MatchTimeout = time.Second
	e.regexCache.Store(site, re)
	return re, nil
}
