// Package cmd provides the CLI commands for sysconfigpatcher.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bluss/sysconfigpatcher/internal/config"
	"github.com/bluss/sysconfigpatcher/internal/discover"
	"github.com/bluss/sysconfigpatcher/internal/patcher"
	"github.com/bluss/sysconfigpatcher/internal/pyfmt"
)

var (
	rulesFile      string
	verbose        bool
	defaultUpdates bool

	patchSysconfig bool
	patchPkgconfig bool
	dryRun         bool
	backupFiles    bool
)

var rootCmd = &cobra.Command{
	Use:   "sysconfigpatcher <python-install>",
	Short: "Patch install paths in a relocated python installation",
	Long: `sysconfigpatcher rewrites the build-time install prefix baked into a
python-build-standalone installation so it matches where the installation
actually lives now.

Two artifact kinds are patched:

  sysconfigdata  The generated _sysconfigdata_*.py module consulted by the
                 sysconfig module at startup. Only recognized dictionary
                 values are rewritten; a file with an unexpected shape is
                 refused and left untouched.
  pkgconfig      The lib/pkgconfig/*.pc files consumed by build tooling.

Extra variable-update rules can be supplied in sysconfigpatcher.yaml
(current directory or ~/.sysconfigpatcher), or via --rules:

  variable_updates:
    CC: {word: clang, to: cc}
    AR: {value: ar}

Backup files (--backup-files) are written beside the originals with a
.backup suffix and are never removed automatically.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPatch,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "rules file with extra variable updates (default: ./sysconfigpatcher.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&defaultUpdates, "default-variable-updates", true, "apply the built-in variable-update table")

	rootCmd.Flags().BoolVar(&patchSysconfig, "sysconfig", true, "patch sysconfig data")
	rootCmd.Flags().BoolVar(&patchPkgconfig, "pkgconfig", true, "patch pkgconfig files")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing anything")
	rootCmd.Flags().BoolVar(&backupFiles, "backup-files", false, "keep a .backup copy of every patched file")
}

func initConfig() {
	config.InitViper(rulesFile)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runPatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root, err := discover.InstallRoot(args[0])
	if err != nil {
		return err
	}
	logger.Debug("python install root", "path", root)

	p := &patcher.Patcher{
		RealPrefix:  root,
		Updates:     cfg.EffectiveRules(defaultUpdates),
		DryRun:      dryRun,
		BackupFiles: backupFiles,
		Format: func(path string) error {
			if err := pyfmt.Ruff(path); err != nil {
				if errors.Is(err, pyfmt.ErrUnavailable) {
					logger.Debug("ruff not installed, leaving file unformatted")
					return nil
				}
				return err
			}
			return nil
		},
		Logger: logger,
	}

	hadError := false
	if patchSysconfig {
		if _, err := p.Sysconfig(root); err != nil {
			logger.Error("problem when patching sysconfig", "error", err)
			hadError = true
		}
	}
	if patchPkgconfig {
		if _, err := p.Pkgconfig(root); err != nil {
			logger.Error("problem when patching pkgconfig", "error", err)
			hadError = true
		}
	}
	if hadError {
		return errors.New("patching failed")
	}
	return nil
}
