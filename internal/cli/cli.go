package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tdh8316/namescout/internal/httpx"
	"github.com/tdh8316/namescout/internal/probe"
)

var ErrHelp = errors.New("help requested")

const (
	defaultTimeoutSeconds = 10
	defaultCatalog        = "sites.json"
	defaultResultsDir     = "results"
)

type Options struct {
	Sites    []string
	Category string
	Quiet    bool
	PrintAll bool

	Timeout time.Duration
	Workers int
	Proxy   string
	WithTor bool

	NoSave   bool
	TxtOnly  bool
	JSONOnly bool
	Markdown bool

	CatalogPath string
	CatalogURL  string
	ResultsDir  string

	NoColor  bool
	Verbose  bool
	LogFile  string
	SelfTest bool

	// Warnings collects values that were replaced by defaults.
	Warnings []string
}

const longHelp = `Check whether usernames are registered across a catalog of websites.

Each site is probed with its catalog rules in order; the first rule that
reaches a verdict decides. Results stream to the console and are saved as
text and JSON reports under the results directory.`

func newCommand(opts *Options, timeoutS *int, usernames *[]string, ran *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "namescout [flags] USERNAME [USERNAMES...]",
		Short:         "Find which sites a username is registered on",
		Long:          longHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			*usernames = args
			*ran = true
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&opts.Sites, "sites", "s", nil, "only check these sites (comma separated)")
	f.StringVarP(&opts.Category, "category", "c", "", "only check sites in this category")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "print found sites only")
	f.BoolVarP(&opts.PrintAll, "print-all", "a", false, "print sites where the username was not found too")

	f.IntVarP(timeoutS, "timeout", "t", defaultTimeoutSeconds, "request timeout in seconds")
	f.IntVarP(&opts.Workers, "workers", "w", probe.DefaultWorkers, "number of concurrent probes")
	f.StringVarP(&opts.Proxy, "proxy", "p", "", "proxy URL (http, https, socks5, socks5h)")
	f.BoolVar(&opts.WithTor, "tor", false, "route requests through tor at "+httpx.DefaultTorProxyURL)

	f.BoolVar(&opts.NoSave, "no-save", false, "do not write report files")
	f.BoolVar(&opts.TxtOnly, "txt-only", false, "write the text report only")
	f.BoolVar(&opts.JSONOnly, "json-only", false, "write the JSON report only")
	f.BoolVar(&opts.Markdown, "markdown", false, "also write a markdown report")

	f.StringVar(&opts.CatalogPath, "catalog", defaultCatalog, "site catalog file (JSON or YAML)")
	f.StringVar(&opts.CatalogURL, "catalog-url", "", "download the catalog from this URL before the run")
	f.StringVar(&opts.ResultsDir, "results", defaultResultsDir, "report output directory")

	f.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "log every rule attempt")
	f.StringVar(&opts.LogFile, "log-file", "", "diagnostic log file (default in the XDG state dir)")
	f.BoolVar(&opts.SelfTest, "self-test", false, "check catalog sites against their claimed/unclaimed usernames")

	cmd.MarkFlagsMutuallyExclusive("txt-only", "json-only")
	cmd.MarkFlagsMutuallyExclusive("quiet", "print-all")
	return cmd
}

// Parse reads args (without the program name). Help output goes to stdout and
// yields ErrHelp; every other parse failure is a usage error.
func Parse(args []string, stdout, stderr io.Writer) (Options, []string, error) {
	var (
		opts      Options
		timeoutS  int
		usernames []string
		ran       bool
	)

	cmd := newCommand(&opts, &timeoutS, &usernames, &ran)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return Options{}, nil, err
	}
	if !ran {
		return Options{}, nil, ErrHelp
	}

	if timeoutS <= 0 {
		timeoutS = defaultTimeoutSeconds
		opts.Warnings = append(opts.Warnings,
			fmt.Sprintf("Invalid timeout value; using default of %d seconds.", defaultTimeoutSeconds))
	}
	opts.Timeout = time.Duration(timeoutS) * time.Second

	if opts.Workers <= 0 {
		opts.Workers = probe.DefaultWorkers
		opts.Warnings = append(opts.Warnings,
			fmt.Sprintf("Invalid worker count; using default of %d.", probe.DefaultWorkers))
	}

	if opts.Proxy != "" {
		if _, err := httpx.ParseProxyURL(opts.Proxy); err != nil {
			return Options{}, nil, errors.Wrap(err, "--proxy")
		}
	}

	opts.Sites = trimAll(opts.Sites)
	return opts, trimAll(usernames), nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
