package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/ui"
	"github.com/aidanlsb/ifcq/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dump...]",
	Short: "Watch model dumps and reindex on change",
	Long: `Watches model property dumps and rebuilds a model's index whenever its dump
is rewritten.

This runs in the foreground. Each dump is indexed once at startup, then again
after every change (debounced). A failed rebuild keeps the previous index. A
deleted dump keeps its last index until the file comes back.

Without arguments, every model configured in config.toml is watched.

Examples:
  ifcq watch house.ifc.json
  ifcq watch                 # all configured models`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	modelFlag, _ := cmd.Flags().GetString("model")
	builds, err := dumpTargets(args, modelFlag, extract.Options{Workers: getConfig().Workers, Logger: getLogger()})
	if err != nil {
		return handleError(ErrMissingArgument, err, "Pass a dump file or add models to config.toml")
	}

	store, _, err := openStore()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := startWatcher(ctx, builds, index.NewRegistry(), store, func(modelID string, snap *index.Snapshot, err error) {
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.Errorf("reindex of %s failed: %v", modelID, err))
			return
		}
		fmt.Println(ui.Checkf("Reindexed %s: %s", ui.ModelID(snap.ModelID), ui.Count(snap.ElementCount(), "element", "elements")))
	})
	if err != nil {
		return handleError(errorCode(err), err, "")
	}

	for _, b := range builds {
		fmt.Printf("Watching %s\n", ui.Hint(b.Path))
	}
	fmt.Println("Press Ctrl+C to stop")

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watcher error: %w", err)
	}
	fmt.Println("\nStopped watching")
	return nil
}

// startWatcher indexes every build once and returns a watcher over their
// dumps. The initial builds publish to r and are persisted to store.
func startWatcher(ctx context.Context, builds []index.FileBuild, r *index.Registry, store *index.Store, onReindex func(string, *index.Snapshot, error)) (*watcher.Watcher, error) {
	provider := extract.NewFileProvider()
	files := make(map[string]string, len(builds))
	var opts extract.Options
	for _, b := range builds {
		snap, err := index.BuildFile(ctx, provider, r, store, b)
		if err != nil {
			return nil, err
		}
		files[b.Path] = snap.ModelID
		opts = b.Options
	}

	return watcher.New(watcher.Config{
		Files:     files,
		Provider:  provider,
		Registry:  r,
		Store:     store,
		Extract:   opts,
		Logger:    getLogger(),
		OnReindex: onReindex,
	})
}

func init() {
	watchCmd.Flags().StringP("model", "m", "", "Model id for a single dump (default: from the dump)")
	rootCmd.AddCommand(watchCmd)
}
