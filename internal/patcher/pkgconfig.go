package patcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bluss/sysconfigpatcher/internal/atomicfile"
	"github.com/bluss/sysconfigpatcher/internal/discover"
)

// pcAssignment matches a pkgconfig variable assignment whose value starts
// with the stale prefix, anchored to the start of the line.
var pcAssignment = regexp.MustCompile(`^([0-9A-Za-z_]+=)` + regexp.QuoteMeta(StalePrefix))

// Pkgconfig patches every pkgconfig file under root. Files are processed
// independently; one file's failure does not stop the others, and all
// failures are aggregated into the returned error. Finding no pkgconfig
// files at all is an error, since these installations always ship them.
func (p *Patcher) Pkgconfig(root string) (Outcome, error) {
	files, err := discover.PkgconfigFiles(root)
	if err != nil {
		return NothingToPatch, err
	}
	if len(files) == 0 {
		return NothingToPatch, fmt.Errorf("no pkgconfig files under %s", root)
	}

	outcome := NothingToPatch
	var errs []error
	for _, file := range files {
		o, err := p.PkgconfigFile(file)
		if err != nil {
			p.log().Error("pkgconfig patch failed", "path", file, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		if o == Changed {
			outcome = Changed
		}
	}
	return outcome, errors.Join(errs...)
}

// PkgconfigFile streams one pkgconfig file through the line rewriter and
// atomically replaces it when anything changed.
func (p *Patcher) PkgconfigFile(path string) (Outcome, error) {
	opts := atomicfile.Options{Backup: p.BackupFiles, DryRun: p.DryRun}
	changed, err := atomicfile.ReplaceWithTransform(path, func(dst io.Writer, src io.Reader) error {
		_, err := RewritePkgconfig(dst, src, p.RealPrefix, p.log())
		return err
	}, opts)
	if err != nil {
		return NothingToPatch, err
	}

	switch {
	case !changed:
		p.log().Info("nothing to patch", "path", path)
		return NothingToPatch, nil
	case p.DryRun:
		p.log().Info("would patch pkgconfig", "path", path)
	default:
		p.log().Info("patched pkgconfig", "path", path)
	}
	return Changed, nil
}

// RewritePkgconfig copies src to dst line by line, rewriting at most one
// stale-prefix occurrence per line: the one immediately following a
// key= assignment at the start of the line. Every other byte, including
// line terminators and non-matching lines, is passed through verbatim.
// Reports whether any line was rewritten.
func RewritePkgconfig(dst io.Writer, src io.Reader, realPrefix string, logger *slog.Logger) (bool, error) {
	br := bufio.NewReader(src)
	bw := bufio.NewWriter(dst)
	changed := false
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return changed, readErr
		}
		if line != "" {
			out := line
			if m := pcAssignment.FindString(line); m != "" {
				key := m[:len(m)-len(StalePrefix)]
				out = key + realPrefix + line[len(m):]
			}
			if out != line {
				changed = true
				logger.Debug("updated line",
					"from", strings.TrimRight(line, "\n"),
					"to", strings.TrimRight(out, "\n"))
			}
			if _, err := bw.WriteString(out); err != nil {
				return changed, err
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	return changed, bw.Flush()
}
