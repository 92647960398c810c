package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/config"
	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/server"
	"github.com/aidanlsb/ifcq/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dump...]",
	Short: "Serve queries over HTTP",
	Long: `Loads every model of the project index and serves queries over HTTP for
viewers and scripts.

Routes:
  GET /api/models                          indexed models
  GET /api/models/:model/query?q=...       matching element ids
  GET /api/query?q=...                     matches in every model
  GET /api/models/:model/properties        property summaries
  GET /api/models/:model/properties?name=  values of one property
  GET /api/models/:model/elements/:id      properties of one element
  GET /metrics                             Prometheus metrics

With --watch, the given dumps (or every configured model) are indexed at
startup and reindexed on change; queries see a rebuilt model as soon as it is
published.

Examples:
  ifcq serve
  ifcq serve --addr :8080
  ifcq serve --watch house.ifc.json`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	c := getConfig()
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = c.ServerAddr()
	}
	watch, _ := cmd.Flags().GetBool("watch")
	timeout, err := c.ServerTimeout()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	store, _, err := openStore()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()

	registry := index.NewRegistry()
	var spin *ui.Spinner
	if !jsonOutput {
		spin = ui.NewSpinner("Loading index")
		spin.Start()
	}
	loaded, err := store.LoadInto(registry)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := server.New(registry, server.Config{Strict: c.Strict, Timeout: timeout, Logger: getLogger()})

	if watch {
		builds, err := dumpTargets(args, "", extract.Options{Workers: c.Workers, Logger: getLogger()})
		if err != nil {
			return handleError(ErrMissingArgument, err, "Pass a dump file or add models to config.toml")
		}
		w, err := startWatcher(ctx, builds, registry, store, func(modelID string, snap *index.Snapshot, err error) {
			if err != nil {
				getLogger().Error("reindex failed", "model", modelID, "error", err)
				return
			}
			getLogger().Info("reindexed", "model", snap.ModelID, "generation", snap.Generation)
		})
		if err != nil {
			return handleError(errorCode(err), err, "")
		}
		go func() {
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				getLogger().Error("watcher stopped", "error", err)
			}
		}()
	} else if len(args) > 0 {
		return handleErrorMsg(ErrInvalidInput, "dump arguments require --watch", "Index dumps with 'ifcq index' or pass --watch")
	}

	if len(registry.Models()) == 0 {
		getLogger().Warn("serving with no indexed models", "dir", getProjectDir())
	}

	return api.Serve(ctx, addr, func(a net.Addr) {
		fmt.Println(ui.Checkf("Serving %s on http://%s", ui.Count(len(registry.Models()), "model", "models"), a))
		if len(loaded) > 0 {
			fmt.Println(ui.Hint("loaded from index: " + strings.Join(loaded, ", ")))
		}
	})
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config, or "+config.DefaultServerAddr+")")
	serveCmd.Flags().Bool("watch", false, "Index dumps at startup and reindex them on change")
	rootCmd.AddCommand(serveCmd)
}
