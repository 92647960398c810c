package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// modelEntry is the JSON form of one model listing row.
type modelEntry struct {
	index.ModelInfo
	Indexed    bool   `json:"indexed"`
	Configured bool   `json:"configured"`
	Default    bool   `json:"default,omitempty"`
	Dump       string `json:"dump,omitempty"`
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List indexed and configured models",
	Long: `Lists the models stored in the project index together with the models
configured in config.toml. A configured model that has not been indexed yet is
marked as such.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, warnings, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()

		entries, err := listModels(store)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		for _, e := range entries {
			if !e.Indexed {
				warnings = append(warnings, modelWarning(WarnNotIndexed, e.ModelID,
					"model '%s' is configured but not indexed", e.ModelID))
			}
		}

		if jsonOutput {
			outputSuccessWithWarnings(entries, warnings, counted(len(entries)))
			return nil
		}

		if len(entries) == 0 {
			fmt.Println(ui.Hint("No models. Run 'ifcq index <dump>' to index one."))
			return nil
		}
		t := ui.NewTable(5)
		for _, e := range entries {
			name := ui.ModelID(e.ModelID)
			if e.Default {
				name += ui.Hint(" (default)")
			}
			if !e.Indexed {
				t.AddRow(name, ui.Hint("not indexed"), "", "", e.Dump)
				continue
			}
			t.AddRow(name,
				ui.Count(e.Elements, "element", "elements"),
				ui.Count(e.Triples, "property", "properties"),
				ui.Hint("rev "+strconv.Itoa(e.Revision)+", "+e.BuiltAt.Format(time.DateTime)),
				e.Source,
			)
		}
		fmt.Print(t.String())
		return nil
	},
}

// listModels merges stored models with configured ones, sorted by id.
func listModels(store *index.Store) ([]modelEntry, error) {
	infos, err := store.Models()
	if err != nil {
		return nil, err
	}
	c := getConfig()

	entries := make([]modelEntry, 0, len(infos))
	seen := make(map[string]bool)
	for _, info := range infos {
		_, configured := c.Models[info.ModelID]
		entries = append(entries, modelEntry{
			ModelInfo:  info,
			Indexed:    true,
			Configured: configured,
			Default:    info.ModelID == c.DefaultModel,
			Dump:       c.Models[info.ModelID],
		})
		seen[info.ModelID] = true
	}
	for _, id := range c.ModelIDs() {
		if seen[id] {
			continue
		}
		entries = append(entries, modelEntry{
			ModelInfo:  index.ModelInfo{ModelID: id},
			Configured: true,
			Default:    id == c.DefaultModel,
			Dump:       c.Models[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ModelID < entries[j].ModelID })
	return entries, nil
}

var modelsDropCmd = &cobra.Command{
	Use:   "drop <model>...",
	Short: "Remove models from the project index",
	Long: `Removes stored models from the project index. The dumps and config.toml
are left alone; run 'ifcq index' to index a dropped model again.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()

		infos, err := store.Models()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		stored := make(map[string]bool, len(infos))
		for _, info := range infos {
			stored[info.ModelID] = true
		}
		for _, id := range args {
			if !stored[id] {
				return handleErrorMsg(ErrModelNotFound,
					fmt.Sprintf("model '%s' is not indexed", id),
					"Run 'ifcq models' to list indexed models")
			}
		}

		for _, id := range args {
			if err := store.Delete(id); err != nil {
				return handleError(errorCode(err), err, "")
			}
			getLogger().Debug("model dropped", "model", id)
		}

		if jsonOutput {
			outputSuccess(map[string][]string{"dropped": args}, counted(len(args)))
			return nil
		}
		for _, id := range args {
			fmt.Println(ui.Checkf("Dropped %s", ui.ModelID(id)))
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsDropCmd)
	rootCmd.AddCommand(modelsCmd)
}
