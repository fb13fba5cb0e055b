package probe

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/tdh8316/namescout/internal/catalog"
)

// MethodRegexCheck is reported when a site's username pattern rejected the
// username before any request was sent.
const MethodRegexCheck catalog.Kind = "regex_check"

// ErrNoVerdict is the final error of a probe whose rules were all inconclusive.
var ErrNoVerdict = errors.New("Not found by any method") //nolint:stylecheck // user-visible text

// TransportError is a request that never produced an HTTP response:
// connection refused, DNS failure, timeout, proxy failure.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is an error status no rule asked for.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// Attempt records one rule's request.
type Attempt struct {
	Rule    catalog.Kind
	URL     string
	Status  int
	Elapsed time.Duration
	Err     error
}

// Result is the outcome of probing one site for one username.
// Exists implies Err == nil.
type Result struct {
	Username string
	Site     string
	URL      string
	Category string

	Exists bool
	Err    error

	Elapsed time.Duration
	// MethodUsed is the kind of the rule that produced the verdict, empty
	// when no rule did.
	MethodUsed catalog.Kind
	Attempts   []Attempt
}

type Config struct {
	Workers      int
	MaxBodyBytes int64
}

type ValidationFailure struct {
	Site           string
	UsedUsername   string
	UnusedUsername string

	Used   Result
	Unused Result
}

// Observer receives progress as probes run. Calls arrive from a single
// goroutine, in order.
type Observer interface {
	ProbeStarted(site string)
	ProbeFinished(res Result)
}

type NopObserver struct{}

func (NopObserver) ProbeStarted(string)   {}
func (NopObserver) ProbeFinished(Result) {}
