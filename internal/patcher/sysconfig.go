package patcher

import (
	"fmt"
	"os"
	"strings"

	"github.com/bluss/sysconfigpatcher/internal/atomicfile"
	"github.com/bluss/sysconfigpatcher/internal/discover"
	"github.com/bluss/sysconfigpatcher/internal/pyast"
)

// sysconfigHeader identifies the rewritten module as generated; it replaces
// whatever header comment the original carried.
const sysconfigHeader = `# system configuration generated and used by the sysconfig module
# install path patched by sysconfigpatcher
`

// Sysconfig locates the sysconfigdata module under root and patches it.
func (p *Patcher) Sysconfig(root string) (Outcome, error) {
	path, err := discover.SysconfigData(root)
	if err != nil {
		return NothingToPatch, err
	}
	return p.SysconfigFile(path)
}

// SysconfigFile patches a single sysconfigdata module. The file is parsed
// structurally and validated against the expected single-flat-dict shape
// before anything is rewritten; a file that does not match is left
// untouched and the error is returned.
func (p *Patcher) SysconfigFile(path string) (Outcome, error) {
	p.log().Debug("reading sysconfigdata", "path", path)
	src, err := os.ReadFile(path)
	if err != nil {
		return NothingToPatch, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := pyast.Parse(src)
	if err != nil {
		return NothingToPatch, fmt.Errorf("parse %s: %w", path, err)
	}

	if !p.rewriteDocument(doc) {
		p.log().Info("nothing to patch in sysconfig", "path", path)
		return NothingToPatch, nil
	}

	rendered := append([]byte(sysconfigHeader), pyast.Render(doc)...)
	if p.DryRun {
		p.log().Info("would patch sysconfig", "path", path)
		return Changed, nil
	}

	opts := atomicfile.Options{Backup: p.BackupFiles}
	if p.Format != nil {
		// The formatter works on the temp file so its output is what the
		// rename publishes; the live module never holds an intermediate
		// state.
		opts.PreCommit = func(tmp string) error {
			if err := p.Format(tmp); err != nil {
				p.log().Warn("formatter failed, file left unformatted", "path", path, "error", err)
			}
			return nil
		}
	}
	if err := atomicfile.Replace(path, rendered, opts); err != nil {
		return NothingToPatch, fmt.Errorf("write %s: %w", path, err)
	}
	p.log().Info("patched sysconfig", "path", path)
	return Changed, nil
}

// rewriteDocument applies the update rules and the stale-prefix rewrite to
// every string entry of the dict, in place. Integer entries are skipped;
// they cannot hold paths. Reports whether anything changed.
func (p *Patcher) rewriteDocument(doc *pyast.Document) bool {
	changed := false
	for i, e := range doc.Entries {
		old, ok := e.Value.String()
		if !ok {
			continue
		}

		var next string
		if rule, have := p.Updates[e.Key]; have {
			next = rule.Apply(old)
		} else if strings.HasPrefix(old, StalePrefix) {
			next = replacePrefixTokens(old, p.RealPrefix)
		} else {
			continue
		}
		if next == old {
			continue
		}

		doc.SetString(i, next)
		changed = true
		p.log().Debug("updated variable", "key", e.Key, "from", old, "to", next)
	}
	return changed
}

// replacePrefixTokens treats value as a space-separated list of paths
// (DESTDIRS packs several into one string) and swaps the stale leading
// segment of each token for the real prefix.
func replacePrefixTokens(value, realPrefix string) string {
	parts := strings.Split(value, " ")
	for i, part := range parts {
		if strings.HasPrefix(part, StalePrefix) {
			parts[i] = realPrefix + part[len(StalePrefix):]
		}
	}
	return strings.Join(parts, " ")
}
