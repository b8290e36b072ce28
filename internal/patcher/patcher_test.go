package patcher

import (
	"os"
	"path/filepath"
	"testing"
)

// makeInstall builds a fake relocated installation with a sysconfigdata
// module and pkgconfig files, mirroring the layout of a standalone python
// build.
func makeInstall(t *testing.T) (root, sysconfigPath, pcPath string) {
	t.Helper()
	root = t.TempDir()
	for _, dir := range []string{
		filepath.Join(root, "bin"),
		filepath.Join(root, "lib", "python3.12"),
		filepath.Join(root, "lib", "pkgconfig"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(root, "bin", "python3"), "#!/bin/sh\n")

	sysconfigPath = filepath.Join(root, "lib", "python3.12", "_sysconfigdata__linux_x86_64-linux-gnu.py")
	writeFile(t, sysconfigPath, sysconfigFixture)

	pcPath = filepath.Join(root, "lib", "pkgconfig", "python-3.12.pc")
	writeFile(t, pcPath, "prefix=/install\nlibdir=${prefix}/lib\n")
	return root, sysconfigPath, pcPath
}

func TestPatcher_EndToEnd(t *testing.T) {
	root, sysconfigPath, pcPath := makeInstall(t)

	p := newTestPatcher(root)
	outcome, err := p.Sysconfig(root)
	if err != nil {
		t.Fatalf("Sysconfig() returned unexpected error: %v", err)
	}
	if outcome != Changed {
		t.Errorf("expected sysconfig Changed, got %v", outcome)
	}

	outcome, err = p.Pkgconfig(root)
	if err != nil {
		t.Fatalf("Pkgconfig() returned unexpected error: %v", err)
	}
	if outcome != Changed {
		t.Errorf("expected pkgconfig Changed, got %v", outcome)
	}

	values := parseValues(t, sysconfigPath)
	if values["prefix"] != root {
		t.Errorf("prefix = %q, want %q", values["prefix"], root)
	}
	if values["DESTDIRS"] != root+" "+root+"/lib" {
		t.Errorf("DESTDIRS = %q", values["DESTDIRS"])
	}
	if got := readFile(t, pcPath); got != "prefix="+root+"\nlibdir=${prefix}/lib\n" {
		t.Errorf("unexpected pkgconfig content: %q", got)
	}

	// A second run over the whole installation is a no-op.
	if outcome, err = p.Sysconfig(root); err != nil || outcome != NothingToPatch {
		t.Errorf("second sysconfig run: outcome=%v err=%v", outcome, err)
	}
	if outcome, err = p.Pkgconfig(root); err != nil || outcome != NothingToPatch {
		t.Errorf("second pkgconfig run: outcome=%v err=%v", outcome, err)
	}
}

func TestPatcher_SysconfigMissingFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "lib", "python3.12"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestPatcher(root).Sysconfig(root); err == nil {
		t.Fatal("expected discovery error when sysconfigdata is missing")
	}
}

func TestOutcome_String(t *testing.T) {
	if Changed.String() != "changed" || NothingToPatch.String() != "nothing to patch" {
		t.Error("unexpected Outcome string values")
	}
}
