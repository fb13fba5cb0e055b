package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONWriter renders the full report as indented JSON.
type JSONWriter struct{}

func (JSONWriter) Ext() string { return "json" }

type jsonReport struct {
	Username     string                `json:"username"`
	Timestamp    string                `json:"timestamp"`
	Date         string                `json:"date"`
	SitesChecked int                   `json:"sites_checked"`
	Partial      bool                  `json:"partial,omitempty"`
	Stats        Stats                 `json:"stats"`
	Results      map[string]jsonResult `json:"results"`
}

type jsonResult struct {
	Site       string        `json:"site"`
	URL        string        `json:"url"`
	Category   string        `json:"category"`
	Exists     bool          `json:"exists"`
	Error      *string       `json:"error"`
	Time       float64       `json:"time"`
	MethodUsed *string       `json:"method_used"`
	Attempts   []jsonAttempt `json:"attempts,omitempty"`
}

type jsonAttempt struct {
	Rule   string  `json:"rule"`
	URL    string  `json:"url"`
	Status int     `json:"status,omitempty"`
	Time   float64 `json:"time"`
	Error  string  `json:"error,omitempty"`
}

func (JSONWriter) Write(w io.Writer, r *RunReport) error {
	out := jsonReport{
		Username:     r.Username,
		Timestamp:    r.Timestamp.Format(time.RFC3339),
		Date:         r.Timestamp.Format(FileTimeLayout),
		SitesChecked: len(r.Results),
		Partial:      r.Partial,
		Stats:        r.Stats,
		Results:      make(map[string]jsonResult, len(r.Results)),
	}

	for name, res := range r.Results {
		jr := jsonResult{
			Site:     res.Site,
			URL:      res.URL,
			Category: res.Category,
			Exists:   res.Exists,
			Time:     seconds(res.Elapsed),
		}
		if res.Err != nil {
			msg := res.Err.Error()
			jr.Error = &msg
		}
		if res.MethodUsed != "" {
			m := string(res.MethodUsed)
			jr.MethodUsed = &m
		}
		for _, a := range res.Attempts {
			ja := jsonAttempt{Rule: string(a.Rule), URL: a.URL, Status: a.Status, Time: seconds(a.Elapsed)}
			if a.Err != nil {
				ja.Error = a.Err.Error()
			}
			jr.Attempts = append(jr.Attempts, ja)
		}
		out.Results[name] = jr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
