// Package pyfmt reformats rewritten python source with an external tool
// when one is available. Formatting is cosmetic; every caller treats a
// failure here as non-fatal.
package pyfmt

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrUnavailable reports that no formatter is installed on this system.
var ErrUnavailable = errors.New("ruff not found on PATH")

// ruffStyle matches the indentation and quoting of the generated file so a
// formatting pass does not churn unrelated lines.
var ruffStyle = []string{
	"--config=indent-width=1",
	"--config=format.quote-style='single'",
}

// Ruff formats the file at path in place with `ruff format`, isolated from
// any project configuration. Returns ErrUnavailable when ruff is not
// installed.
func Ruff(path string) error {
	ruffPath, err := exec.LookPath("ruff")
	if err != nil {
		return ErrUnavailable
	}

	args := append([]string{"format", "-s", "--isolated"}, ruffStyle...)
	args = append(args, path)
	cmd := exec.Command(ruffPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run ruff: %w: %s", err, out)
	}
	return nil
}
