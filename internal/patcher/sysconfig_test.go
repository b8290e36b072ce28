package patcher

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bluss/sysconfigpatcher/internal/atomicfile"
	"github.com/bluss/sysconfigpatcher/internal/pyast"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestPatcher(realPrefix string) *Patcher {
	return &Patcher{
		RealPrefix: realPrefix,
		Updates:    DefaultUpdates(),
		Logger:     testLogger(),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

const sysconfigFixture = `# system configuration generated and used by the sysconfig module
build_time_vars = {
    'CC': 'clang -pthread',
    'DESTDIRS': '/install /install/lib',
    'HAVE_GETRANDOM': 1,
    'SOABI': 'cpython-312-x86_64-linux-gnu',
    'prefix': '/install',
}
`

func parseValues(t *testing.T, path string) map[string]string {
	t.Helper()
	doc, err := pyast.Parse([]byte(readFile(t, path)))
	if err != nil {
		t.Fatalf("patched file does not parse: %v", err)
	}
	values := make(map[string]string)
	for _, e := range doc.Entries {
		if s, ok := e.Value.String(); ok {
			values[e.Key] = s
		}
	}
	return values
}

func TestSysconfigFile_RewritesPrefixAndRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__linux_x86_64-linux-gnu.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("SysconfigFile() returned unexpected error: %v", err)
	}
	if outcome != Changed {
		t.Fatalf("expected Changed, got %v", outcome)
	}

	values := parseValues(t, path)
	want := map[string]string{
		"CC":       "cc -pthread",
		"DESTDIRS": "/opt/rt /opt/rt/lib",
		"SOABI":    "cpython-312-x86_64-linux-gnu",
		"prefix":   "/opt/rt",
	}
	for key, wantVal := range want {
		if values[key] != wantVal {
			t.Errorf("%s = %q, want %q", key, values[key], wantVal)
		}
	}

	if !strings.HasPrefix(readFile(t, path), "# system configuration generated") {
		t.Error("expected generated-file header at top of patched file")
	}
}

func TestSysconfigFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	if _, err := p.SysconfigFile(path); err != nil {
		t.Fatal(err)
	}
	first := readFile(t, path)

	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("second run returned unexpected error: %v", err)
	}
	if outcome != NothingToPatch {
		t.Errorf("expected NothingToPatch on second run, got %v", outcome)
	}
	if got := readFile(t, path); got != first {
		t.Errorf("second run changed the file\nfirst:\n%s\nsecond:\n%s", first, got)
	}
}

func TestSysconfigFile_NothingToPatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	original := "build_time_vars = {\n 'CC': 'gcc',\n 'prefix': '/usr',\n}\n"
	writeFile(t, path, original)

	p := newTestPatcher("/opt/rt")
	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("SysconfigFile() returned unexpected error: %v", err)
	}
	if outcome != NothingToPatch {
		t.Errorf("expected NothingToPatch, got %v", outcome)
	}
	if got := readFile(t, path); got != original {
		t.Error("clean file was modified")
	}
}

func TestSysconfigFile_ShapeErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	original := "build_time_vars = {'MODULES': ['a', 'b']}\n"
	writeFile(t, path, original)

	p := newTestPatcher("/opt/rt")
	p.BackupFiles = true
	_, err := p.SysconfigFile(path)
	if err == nil {
		t.Fatal("expected shape error, got nil")
	}
	if !errors.Is(err, pyast.ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
	if got := readFile(t, path); got != original {
		t.Error("malformed file was modified")
	}
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Errorf("expected only the original file in dir, got %v", names)
	}
}

func TestSysconfigFile_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	p.DryRun = true
	p.BackupFiles = true
	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("SysconfigFile() returned unexpected error: %v", err)
	}
	if outcome != Changed {
		t.Errorf("expected Changed outcome in dry run, got %v", outcome)
	}
	if got := readFile(t, path); got != sysconfigFixture {
		t.Error("dry run modified the file")
	}
	if names := dirEntries(t, dir); len(names) != 1 {
		t.Errorf("dry run left extra files: %v", names)
	}
}

func TestSysconfigFile_BackupKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	p.BackupFiles = true
	if _, err := p.SysconfigFile(path); err != nil {
		t.Fatal(err)
	}

	backup := readFile(t, path+atomicfile.BackupSuffix)
	if backup != sysconfigFixture {
		t.Errorf("backup does not match original\n got:\n%s\nwant:\n%s", backup, sysconfigFixture)
	}
}

func TestSysconfigFile_FormatterFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	p.Format = func(string) error { return errors.New("tool missing") }
	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("formatter failure should not fail the patch: %v", err)
	}
	if outcome != Changed {
		t.Errorf("expected Changed, got %v", outcome)
	}
}

func TestSysconfigFile_FormatterSeesTempFileOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, sysconfigFixture)

	p := newTestPatcher("/opt/rt")
	p.Format = func(formatted string) error {
		if formatted == path {
			t.Error("formatter was handed the live file")
		}
		if got := readFile(t, path); got != sysconfigFixture {
			t.Errorf("live file already replaced when formatter ran: %q", got)
		}
		f, err := os.OpenFile(formatted, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString("# reflowed\n")
		return err
	}

	outcome, err := p.SysconfigFile(path)
	if err != nil {
		t.Fatalf("SysconfigFile() returned unexpected error: %v", err)
	}
	if outcome != Changed {
		t.Fatalf("expected Changed, got %v", outcome)
	}
	if !strings.HasSuffix(readFile(t, path), "# reflowed\n") {
		t.Error("formatter output did not land at the target path")
	}
	if values := parseValues(t, path); values["prefix"] != "/opt/rt" {
		t.Errorf("prefix = %q, want %q", values["prefix"], "/opt/rt")
	}
}

func TestSysconfigFile_IntValuesNeverInspected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "_sysconfigdata__test.py")
	writeFile(t, path, "build_time_vars = {\n 'Py_DEBUG': 0,\n 'prefix': '/install',\n}\n")

	p := newTestPatcher("/opt/rt")
	if _, err := p.SysconfigFile(path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(readFile(t, path), "'Py_DEBUG': 0,") {
		t.Error("int value was altered")
	}
}
