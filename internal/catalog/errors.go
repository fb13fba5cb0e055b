package catalog

import (
	"strings"
)

// LoadError reports a catalog that could not be read, parsed or validated.
// Callers recover from it by falling back to Default.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return "load catalog: " + e.Err.Error()
	}
	return "load catalog " + e.Path + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// UnknownSiteError lists requested site names the catalog does not contain.
// It never aborts a run; the known subset is still returned.
type UnknownSiteError struct {
	Names []string
}

func (e *UnknownSiteError) Error() string {
	return "unknown sites: " + strings.Join(e.Names, ", ")
}
