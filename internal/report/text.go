package report

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter renders the plain-text report, grouped by category.
type TextWriter struct{}

func (TextWriter) Ext() string { return "txt" }

func (TextWriter) Write(w io.Writer, r *RunReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Result for: %s\n", r.Username)
	fmt.Fprintf(&b, "Date: %s\n", r.Timestamp.Format(FileTimeLayout))
	fmt.Fprintf(&b, "Total: %d | Found: %d | Not found: %d | Errors: %d\n",
		r.Stats.Total(), r.Stats.Found, r.Stats.NotFound, r.Stats.Errors)
	if r.Partial {
		b.WriteString("Interrupted: results are partial\n")
	}
	b.WriteString(strings.Repeat("=", 50) + "\n")

	for _, g := range r.Groups() {
		fmt.Fprintf(&b, "\n[%s]\n", strings.ToUpper(g.Category))
		for _, res := range g.Results {
			fmt.Fprintf(&b, "%s %s: %s (%.2fs)\n", mark(Classify(res)), res.Site, res.URL, res.Elapsed.Seconds())
			if res.Err != nil {
				fmt.Fprintf(&b, "   ! ERROR: %s\n", res.Err.Error())
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mark(s Status) string {
	switch s {
	case StatusFound:
		return "✓"
	case StatusError:
		return "?"
	default:
		return "✗"
	}
}
