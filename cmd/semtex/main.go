package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gubarz/semtex/internal/config"
	"github.com/gubarz/semtex/internal/ctxlog"
	"github.com/gubarz/semtex/internal/executor"
	"github.com/gubarz/semtex/internal/report"
	"github.com/gubarz/semtex/internal/source"
	"github.com/gubarz/semtex/internal/ui"
	"github.com/gubarz/semtex/internal/watch"
)

var version = "0.1.0"

// v holds flag, env and config file settings for the root command
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "semtex [flags] FILE...",
	Short: "Resolve \\include and \\input directives",
	Long: `Scans LaTeX sources and every file they transitively pull in
through \include{...} and \input{...}, in parallel.

Each directive takes a single, unnamed argument naming a file stem;
the configured extension (.tex by default) is appended when missing.
Errors are reported as file:line: message.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runResolve,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Print every file as it is queued and processed")
	flags.Bool("strict", false, "Abort the whole run when an included file is missing")
	flags.IntP("workers", "j", 0, "Number of parallel workers (default: number of CPUs)")
	flags.String("extension", "", "Extension appended to include stems (default .tex)")
	flags.String("base-dir", "", "Directory include stems resolve against (default: first file's directory, not the working directory)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("progress", "", "Progress display: auto, always, never")
	flags.StringP("report", "r", "", "Print the include graph to stdout: yaml or json")
	flags.BoolP("watch", "w", false, "Resolve again whenever a scanned file changes")

	for key, flag := range map[string]string{
		"verbose":    "verbose",
		"strict":     "strict",
		"workers":    "workers",
		"extension":  "extension",
		"base_dir":   "base-dir",
		"log_level":  "log-level",
		"log_format": "log-format",
		"progress":   "progress",
		"report":     "report",
		"watch":      "watch",
	} {
		f := flags.Lookup(flag)
		// Only explicitly set flags override config; zero defaults above
		// must not shadow viper's defaults.
		v.BindPFlag(key, f)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := ctxlog.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	ctx := ctxlog.WithLogger(cmd.Context(), logger)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := executor.NewExecutor(source.NewOS(), cfg.Options())

	if !cfg.Watch {
		_, err := resolveOnce(ctx, cmd, cfg, exec, args)
		return err
	}
	return resolveWatching(ctx, cmd, cfg, exec, args)
}

// resolveOnce runs the executor with a fresh progress session and prints the
// report when one was requested
func resolveOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, exec *executor.Executor, files []string) (*executor.Result, error) {
	session := ui.NewSession(cmd.ErrOrStderr(), cfg.Progress, cfg.Verbose)
	res, runErr := exec.WithObserver(session).Run(ctx, files)
	if err := session.Close(res); err != nil {
		ctxlog.FromContext(ctx).Warn("Closing progress view failed.", "error", err)
	}

	if cfg.Report != "" {
		wd, _ := os.Getwd()
		if err := report.Build(res, wd).Write(cmd.OutOrStdout(), cfg.Report); err != nil {
			return res, err
		}
	}

	if runErr != nil {
		if n := len(res.Errors); n > 0 {
			return res, fmt.Errorf("%d errors reported", n)
		}
		return res, runErr
	}
	return res, nil
}

// resolveWatching repeats resolveOnce each time a scanned file changes,
// until interrupted
func resolveWatching(ctx context.Context, cmd *cobra.Command, cfg *config.Config, exec *executor.Executor, files []string) error {
	logger := ctxlog.FromContext(ctx)

	w, err := watch.New(0)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		res, err := resolveOnce(ctx, cmd, cfg, exec, files)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.Warn("Run finished with errors.", "error", err)
		}

		// Failed files and missing targets are what the user is about to fix
		for _, path := range res.Sources() {
			if err := w.Track(path); err != nil {
				logger.Debug("Not watching file.", "file", path, "error", err)
			}
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "watching %d files, press Ctrl+C to stop\n", w.Tracked())
		changed, err := w.Wait(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("Change detected, resolving again.", "files", changed)
	}
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
