package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/tdh8316/namescout/internal/probe"
	"github.com/tdh8316/namescout/internal/report"
)

// Mode decides which results reach the console.
type Mode int

const (
	// ModeDefault prints hits and errors.
	ModeDefault Mode = iota
	// ModeQuiet prints hits only.
	ModeQuiet
	// ModePrintAll prints every result.
	ModePrintAll
)

type Config struct {
	Stdout  io.Writer
	Stderr  io.Writer
	NoColor bool
	Mode    Mode
	// Progress draws a progress bar on Stderr while a run is in flight.
	// It is ignored in quiet mode.
	Progress bool
}

type palette struct {
	hit, miss, fail, name, label, warn, info *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		hit:   color.New(color.FgHiGreen),
		miss:  color.New(color.FgHiRed),
		fail:  color.New(color.FgHiRed),
		name:  color.New(color.FgHiWhite),
		label: color.New(color.FgHiMagenta),
		warn:  color.New(color.FgHiYellow),
		info:  color.New(color.FgHiCyan),
	}
	if noColor {
		for _, c := range []*color.Color{p.hit, p.miss, p.fail, p.name, p.label, p.warn, p.info} {
			c.DisableColor()
		}
	}
	return p
}

// Printer is the console front end of a run. It implements probe.Observer.
type Printer struct {
	stdout io.Writer
	stderr io.Writer
	mode   Mode
	colors palette

	progress bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func NewPrinter(cfg Config) *Printer {
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	return &Printer{
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
		mode:     cfg.Mode,
		colors:   newPalette(cfg.NoColor),
		progress: cfg.Progress && cfg.Mode != ModeQuiet,
	}
}

// Begin announces a run for username over total sites.
func (p *Printer) Begin(username string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode != ModeQuiet {
		fmt.Fprintf(p.stdout, "%s Checking username %s on %d site(s)\n",
			p.colors.info.Sprint("[*]"), p.colors.name.Sprint(username), total)
	}
	if p.progress && total > 0 {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.stderr),
			progressbar.OptionSetDescription("Probing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
}

// End clears the progress bar.
func (p *Printer) End() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func (p *Printer) ProbeStarted(site string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Describe(site)
	}
}

func (p *Printer) ProbeFinished(res probe.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if line, ok := p.resultLine(res); ok {
		if p.bar != nil {
			_ = p.bar.Clear()
		}
		fmt.Fprintln(p.stdout, line)
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *Printer) resultLine(res probe.Result) (string, bool) {
	c := p.colors
	switch report.Classify(res) {
	case report.StatusFound:
		return fmt.Sprintf("[%s] %s: %s", c.hit.Sprint("+"), c.name.Sprint(res.Site), res.URL), true
	case report.StatusError:
		if p.mode == ModeQuiet {
			return "", false
		}
		return fmt.Sprintf("[%s] %s: %s: %s",
			c.fail.Sprint("!"), res.Site, c.label.Sprint("ERROR"), c.fail.Sprint(res.Err.Error())), true
	default:
		if p.mode != ModePrintAll {
			return "", false
		}
		return fmt.Sprintf("[%s] %s: %s", c.miss.Sprint("-"), res.Site, c.warn.Sprint("Not Found!")), true
	}
}

func (p *Printer) Info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == ModeQuiet {
		return
	}
	fmt.Fprintf(p.stdout, "%s %s\n", p.colors.info.Sprint("[*]"), fmt.Sprintf(format, args...))
}

// Warn always prints, to stderr.
func (p *Printer) Warn(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.stderr, "%s %s\n", p.colors.warn.Sprint("[!]"), fmt.Sprintf(format, args...))
}

// Summary renders the found sites and the run statistics.
func (p *Printer) Summary(r *report.RunReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := r.Found()
	if len(found) > 0 {
		table := tablewriter.NewWriter(p.stdout)
		table.Header("SITE", "CATEGORY", "URL")
		for _, res := range found {
			category := res.Category
			if category == "" {
				category = report.UnknownCategory
			}
			if err := table.Append(res.Site, category, res.URL); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	s := r.Stats
	line := fmt.Sprintf("Total: %d | Found: %s | Not found: %d | Errors: %s",
		s.Total(), p.colors.hit.Sprint(s.Found), s.NotFound, p.colors.fail.Sprint(s.Errors))
	if r.Partial {
		line += " " + p.colors.warn.Sprint("(interrupted)")
	}
	fmt.Fprintln(p.stdout, line)
	return nil
}

// Saved lists the report files written for a run.
func (p *Printer) Saved(paths []string) {
	if len(paths) == 0 {
		return
	}
	p.Info("Results saved to %s", strings.Join(paths, ", "))
}

// ValidationFailure reports a site whose claimed/unclaimed check failed.
func (p *Printer) ValidationFailure(f probe.ValidationFailure) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.colors
	if f.Used.Err != nil || f.Unused.Err != nil {
		var msg strings.Builder
		for _, err := range []error{f.Used.Err, f.Unused.Err} {
			if err != nil {
				msg.WriteString("[" + err.Error() + "]")
			}
		}
		fmt.Fprintf(p.stdout, "[-] %s: %s %s\n", f.Site, c.warn.Sprint("Failed with error"), msg.String())
		return
	}

	fmt.Fprintf(p.stdout, "[-] %s: %s (%s: expected true, result is %t | %s: expected false, result is %t)\n",
		f.Site, c.fail.Sprint("Not working"),
		f.UsedUsername, f.Used.Exists,
		f.UnusedUsername, f.Unused.Exists,
	)
}
