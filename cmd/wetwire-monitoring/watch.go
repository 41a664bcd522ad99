package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newWatchCmd creates the "watch" subcommand for auto-rebuilding on stack file changes.
func newWatchCmd(g *globalOptions) *cobra.Command {
	var (
		validateOnly bool
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Auto-rebuild on stack file changes",
		Long: `Watch monitors the stack file and rebuilds the template when it changes.

The watch command:
- Watches the directory of the stack file, so editors that replace the
  file on save are picked up
- Validates the stack on each change
- Rebuilds if validation passes (unless --validate-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    wetwire-monitoring watch
    wetwire-monitoring watch -o template.json
    wetwire-monitoring watch --validate-only --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), logger, g.configPath, watchOptions{
				validateOnly: validateOnly,
				debounce:     debounce,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Only validate, skip build")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for build (default: summary only)")

	return cmd
}

type watchOptions struct {
	validateOnly bool
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch rebuilds on every change of the stack file until ctx is done.
func runWatch(ctx context.Context, w io.Writer, logger *zap.Logger, configPath string, opts watchOptions) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", configPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fmt.Fprintf(w, "Watching: %s\n", absPath)

	fmt.Fprintln(w, "Running initial build...")
	runValidateAndBuild(w, logger, configPath, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isStackFileChange(event, absPath) {
				continue
			}
			logger.Debug("stack file changed", zap.String("op", event.Op.String()))

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			runValidateAndBuild(w, logger, configPath, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-ctx.Done():
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// isStackFileChange reports whether event writes or replaces the stack file.
func isStackFileChange(event fsnotify.Event, absPath string) bool {
	if filepath.Clean(event.Name) != absPath {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// runValidateAndBuild validates the stack and, unless validateOnly, writes
// the template to the output file.
func runValidateAndBuild(w io.Writer, logger *zap.Logger, configPath string, opts watchOptions) {
	result, err := validateStack(configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		return
	}
	if !result.Success {
		fmt.Fprintln(w, "Validation failed, skipping build")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", e)
		}
		return
	}
	fmt.Fprintln(w, "Validation passed")

	if opts.validateOnly {
		return
	}

	build := buildStack(configPath, logger)
	if !build.Success {
		for _, e := range build.Errors {
			fmt.Fprintf(os.Stderr, "Build error: %s\n", e)
		}
		return
	}

	if opts.outputFile == "" {
		fmt.Fprintln(w, "Build successful")
		fmt.Fprintf(w, "Generated %d resources, %d widgets\n", len(build.Resources), build.Widgets)
		return
	}

	data, err := renderTemplate(&build.Template, opts.outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		return
	}
	if err := os.WriteFile(opts.outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Build successful, wrote %s\n", opts.outputFile)
}
