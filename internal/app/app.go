package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tdh8316/namescout/internal/catalog"
	"github.com/tdh8316/namescout/internal/cli"
	"github.com/tdh8316/namescout/internal/httpx"
	"github.com/tdh8316/namescout/internal/logging"
	"github.com/tdh8316/namescout/internal/output"
	"github.com/tdh8316/namescout/internal/probe"
	"github.com/tdh8316/namescout/internal/report"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFatal       = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, usernames, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}

	printer := output.NewPrinter(output.Config{
		Stdout:   stdout,
		Stderr:   stderr,
		NoColor:  opts.NoColor,
		Mode:     outputMode(opts),
		Progress: true,
	})
	printer.Info("namescout - find usernames across websites")
	for _, w := range opts.Warnings {
		printer.Warn("%s", w)
	}

	logger, closer, err := logging.NewLogger(opts.LogFile, opts.Verbose)
	if err != nil {
		printer.Warn("Diagnostic log disabled: %v", err)
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}

	client, err := httpx.NewClient(httpx.ClientConfig{
		Timeout:  opts.Timeout,
		ProxyURL: opts.Proxy,
		WithTor:  opts.WithTor,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize HTTP client: %v\n", err)
		return ExitFatal
	}
	agents := httpx.NewAgentPool(httpx.DefaultUserAgents, nil)

	cat := loadCatalog(ctx, client, agents.First(), opts, printer, logger)

	sites, err := cat.Select(opts.Sites, opts.Category)
	var unknown *catalog.UnknownSiteError
	if errors.As(err, &unknown) {
		printer.Warn("Unknown sites ignored: %s", strings.Join(unknown.Names, ", "))
	}
	if len(sites) == 0 {
		printer.Warn("No sites left to check.")
		return ExitOK
	}
	printer.Info("Using %d site(s)", len(sites))

	cfg := probe.Config{Workers: opts.Workers, MaxBodyBytes: httpx.DefaultMaxBodyBytes}
	evaluator := probe.NewEvaluator(client, agents, cfg, logger)
	scheduler, err := probe.NewScheduler(evaluator, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to start scheduler: %v\n", err)
		return ExitFatal
	}

	if opts.SelfTest {
		return runSelfTest(ctx, printer, scheduler, sites)
	}

	if len(usernames) == 0 {
		usernames = promptUsernames(stdout, stdin)
		if len(usernames) == 0 {
			fmt.Fprintln(stderr, "no usernames provided")
			return ExitUsage
		}
	}

	formats := report.FormatsFromFlags(opts.NoSave, opts.TxtOnly, opts.JSONOnly, opts.Markdown)
	for _, username := range usernames {
		code := runUsername(ctx, username, sites, scheduler, formats, opts.ResultsDir, printer, logger)
		if code != ExitOK {
			return code
		}
	}
	return ExitOK
}

// runUsername probes every site for one username and persists the report.
// An interrupted run still gets its partial report written.
func runUsername(
	ctx context.Context,
	username string,
	sites []catalog.Site,
	scheduler *probe.Scheduler,
	formats report.Formats,
	resultsDir string,
	printer *output.Printer,
	logger logrus.FieldLogger,
) int {
	started := time.Now()
	printer.Begin(username, len(sites))
	results, err := scheduler.Run(ctx, username, sites, printer)
	printer.End()

	interrupted := err != nil
	rep := report.Aggregate(username, started, results, interrupted)
	if err := printer.Summary(rep); err != nil {
		logger.WithError(err).Warn("summary_render_failed")
	}

	logger.WithFields(logrus.Fields{
		"username":  username,
		"sites":     len(sites),
		"found":     rep.Stats.Found,
		"not_found": rep.Stats.NotFound,
		"errors":    rep.Stats.Errors,
		"partial":   interrupted,
		"elapsed":   time.Since(started).String(),
	}).Info("run_finished")

	paths, saveErr := report.Save(resultsDir, rep, formats)
	printer.Saved(paths)
	if saveErr != nil {
		printer.Warn("Failed to save results: %v", saveErr)
		if !interrupted {
			return ExitFatal
		}
	}

	if interrupted {
		printer.Warn("Interrupted: %d of %d site(s) checked.", len(results), len(sites))
		return ExitInterrupted
	}
	return ExitOK
}

// loadCatalog optionally refreshes the catalog file, then loads it. Anything
// unusable falls back to the built-in catalog.
func loadCatalog(
	ctx context.Context,
	client httpx.Doer,
	userAgent string,
	opts cli.Options,
	printer *output.Printer,
	logger logrus.FieldLogger,
) *catalog.Catalog {
	if opts.CatalogURL != "" {
		printer.Info("Update catalog: downloading %s", opts.CatalogURL)
		if err := catalog.Download(ctx, client, opts.CatalogURL, userAgent, opts.CatalogPath); err != nil {
			printer.Warn("Failed to update catalog: %v (using existing)", err)
			logger.WithError(err).WithField("url", opts.CatalogURL).Warn("catalog_download_failed")
		}
	}

	cat, err := catalog.LoadOrDefault(opts.CatalogPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		printer.Info("No catalog at %s; using built-in sites.", opts.CatalogPath)
	default:
		printer.Warn("Catalog unusable (%v); using built-in sites.", err)
		logger.WithError(err).WithField("path", opts.CatalogPath).Warn("catalog_fallback")
	}

	if cat.NewerThanSupported() {
		printer.Warn("Catalog version %s is newer than supported %s; some entries may be misread.",
			cat.Version(), catalog.SchemaVersion)
	}
	return cat
}

func runSelfTest(ctx context.Context, printer *output.Printer, scheduler *probe.Scheduler, sites []catalog.Site) int {
	printer.Info("Checking site validity...")

	failCount, err := scheduler.Validate(ctx, sites, printer.ValidationFailure)
	printer.Info("%d of %d site(s) failed validation.", failCount, len(sites))
	if err != nil {
		return ExitInterrupted
	}
	return ExitOK
}

func outputMode(opts cli.Options) output.Mode {
	switch {
	case opts.Quiet:
		return output.ModeQuiet
	case opts.PrintAll:
		return output.ModePrintAll
	default:
		return output.ModeDefault
	}
}

func promptUsernames(stdout io.Writer, stdin io.Reader) []string {
	fmt.Fprint(stdout, "Enter usernames to investigate separated by a space: ")
	r := bufio.NewReader(stdin)
	line, _ := r.ReadString('\n')
	return strings.Fields(line)
}
