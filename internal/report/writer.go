package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FileTimeLayout stamps report file names and the "date" field.
const FileTimeLayout = "20060102_150405"

// Writer renders a RunReport in one format.
type Writer interface {
	Write(w io.Writer, r *RunReport) error
	// Ext is the file extension, without the dot.
	Ext() string
}

// Formats selects which report files Save writes.
type Formats struct {
	Text     bool
	JSON     bool
	Markdown bool
}

// FormatsFromFlags applies the report suppression flags. txtOnly and
// jsonOnly are expected to be mutually exclusive.
func FormatsFromFlags(noSave, txtOnly, jsonOnly, markdown bool) Formats {
	if noSave {
		return Formats{}
	}
	return Formats{
		Text:     !jsonOnly,
		JSON:     !txtOnly,
		Markdown: markdown && !txtOnly && !jsonOnly,
	}
}

func (f Formats) Any() bool { return f.Text || f.JSON || f.Markdown }

func (f Formats) writers() []Writer {
	var ws []Writer
	if f.Text {
		ws = append(ws, TextWriter{})
	}
	if f.JSON {
		ws = append(ws, JSONWriter{})
	}
	if f.Markdown {
		ws = append(ws, MarkdownWriter{})
	}
	return ws
}

// BaseName is the file name, without extension, of r's report files.
func BaseName(r *RunReport) string {
	return fmt.Sprintf("result_%s_%s", safeName(r.Username), r.Timestamp.Format(FileTimeLayout))
}

// safeName keeps a username usable as part of a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// Save writes r to dir in every selected format and returns the paths written.
func Save(dir string, r *RunReport, formats Formats) ([]string, error) {
	ws := formats.writers()
	if len(ws) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create results dir %q", dir)
	}

	base := BaseName(r)
	paths := make([]string, 0, len(ws))
	for _, w := range ws {
		path := filepath.Join(dir, base+"."+w.Ext())
		if err := writeFile(path, r, w); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, r *RunReport, w Writer) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path built from results dir
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %q", path)
		}
	}()

	if err := w.Write(f, r); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	return nil
}

// seconds rounds d to milliseconds and expresses it in seconds.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
