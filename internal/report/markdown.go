package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter renders a GitHub-flavored summary with one table per category.
type MarkdownWriter struct{}

func (MarkdownWriter) Ext() string { return "md" }

func (MarkdownWriter) Write(w io.Writer, r *RunReport) error {
	md := markdown.NewMarkdown(w)

	md.H1("Username report: " + r.Username)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Username", "`" + r.Username + "`"},
			{"Date", r.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Sites checked", strconv.Itoa(r.Stats.Total())},
			{"Found", strconv.Itoa(r.Stats.Found)},
			{"Not found", strconv.Itoa(r.Stats.NotFound)},
			{"Errors", strconv.Itoa(r.Stats.Errors)},
		},
	})
	md.PlainText("")

	if r.Partial {
		md.Warningf("The run was interrupted; %d site(s) were probed before it stopped.", r.Stats.Total())
		md.PlainText("")
	}

	if r.Stats.Total() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Outcome"),
			piechart.WithShowData(true),
		)
		if r.Stats.Found > 0 {
			chart.LabelAndIntValue("Found", uint64(r.Stats.Found))
		}
		if r.Stats.NotFound > 0 {
			chart.LabelAndIntValue("Not found", uint64(r.Stats.NotFound))
		}
		if r.Stats.Errors > 0 {
			chart.LabelAndIntValue("Errors", uint64(r.Stats.Errors))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	for _, g := range r.Groups() {
		md.H2(g.Category)
		md.PlainText("")

		rows := make([][]string, 0, len(g.Results))
		for _, res := range g.Results {
			errText := ""
			if res.Err != nil {
				errText = res.Err.Error()
			}
			rows = append(rows, []string{
				res.Site,
				statusText(Classify(res)),
				res.URL,
				fmt.Sprintf("%.2fs", res.Elapsed.Seconds()),
				string(res.MethodUsed),
				errText,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Site", "Status", "URL", "Time", "Method", "Error"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func statusText(s Status) string {
	switch s {
	case StatusFound:
		return "✅ Found"
	case StatusError:
		return "⚠️ Error"
	default:
		return "❌ Not found"
	}
}
