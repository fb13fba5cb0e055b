package report

import (
	"sort"
	"time"

	"github.com/tdh8316/namescout/internal/probe"
)

// UnknownCategory labels results whose site declared no category.
const UnknownCategory = "unknown"

// Status classifies a result for the run statistics.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusError
)

// Classify puts a result in exactly one bucket: found, errored or not found.
func Classify(r probe.Result) Status {
	switch {
	case r.Exists:
		return StatusFound
	case r.Err != nil:
		return StatusError
	default:
		return StatusNotFound
	}
}

type Stats struct {
	Found    int `json:"found"`
	NotFound int `json:"not_found"`
	Errors   int `json:"errors"`
}

func (s Stats) Total() int { return s.Found + s.NotFound + s.Errors }

// Tally counts results per Status. Total always equals len(results).
func Tally(results map[string]probe.Result) Stats {
	var s Stats
	for _, r := range results {
		switch Classify(r) {
		case StatusFound:
			s.Found++
		case StatusError:
			s.Errors++
		default:
			s.NotFound++
		}
	}
	return s
}

// RunReport is the outcome of one username's run. It is built once by
// Aggregate and only read afterwards.
type RunReport struct {
	Username  string
	Timestamp time.Time
	// Partial marks a run that was interrupted before every site finished.
	Partial bool
	Stats   Stats
	Results map[string]probe.Result
}

// Aggregate builds the report for username from the scheduler's results.
func Aggregate(username string, at time.Time, results map[string]probe.Result, partial bool) *RunReport {
	own := make(map[string]probe.Result, len(results))
	for k, v := range results {
		own[k] = v
	}
	return &RunReport{
		Username:  username,
		Timestamp: at,
		Partial:   partial,
		Stats:     Tally(own),
		Results:   own,
	}
}

// Sorted returns every result ordered by site name.
func (r *RunReport) Sorted() []probe.Result {
	out := make([]probe.Result, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Site < out[j].Site })
	return out
}

// Found returns the results where the account exists, ordered by site name.
func (r *RunReport) Found() []probe.Result {
	var out []probe.Result
	for _, res := range r.Sorted() {
		if res.Exists {
			out = append(out, res)
		}
	}
	return out
}

type Group struct {
	Category string
	Results  []probe.Result
}

// Groups returns results grouped by category, categories sorted by name and
// sites sorted by name within each.
func (r *RunReport) Groups() []Group {
	index := make(map[string]int)
	var groups []Group
	for _, res := range r.Sorted() {
		cat := res.Category
		if cat == "" {
			cat = UnknownCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Results = append(groups[i].Results, res)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
