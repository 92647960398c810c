package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// indexResult is the JSON form of one indexed model.
type indexResult struct {
	Model    string                  `json:"model"`
	Source   string                  `json:"source"`
	Elements int                     `json:"elements"`
	Triples  int                     `json:"triples"`
	Skipped  int                     `json:"skipped"`
	Failures []extract.ElementError  `json:"failures,omitempty"`
	Dropped  []extract.PropertyError `json:"dropped,omitempty"`
}

var indexCmd = &cobra.Command{
	Use:   "index [dump...]",
	Short: "Index model property dumps",
	Long: `Extracts the properties of every element in one or more model property dumps
and stores a fresh index of each model in the project directory.

A dump is a JSON or YAML export of a model's elements, attributes and property
sets. Without arguments, every model listed under [models] in config.toml is
indexed. Each model is rebuilt from scratch; the stored index of a model is
replaced in a single transaction.

Elements that fail to extract are skipped and reported; they never abort the
build.

Examples:
  ifcq index house.ifc.json
  ifcq index house.ifc.json --model house-v2
  ifcq index --workers 8            # all configured models`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	modelFlag, _ := cmd.Flags().GetString("model")
	workers, _ := cmd.Flags().GetInt("workers")
	if !cmd.Flags().Changed("workers") {
		workers = getConfig().Workers
	}

	builds, err := dumpTargets(args, modelFlag, extract.Options{Workers: workers, Logger: getLogger()})
	if err != nil {
		return handleError(ErrMissingArgument, err, "Pass a dump file or add models to config.toml")
	}

	store, warnings, err := openStore()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()

	provider := extract.NewFileProvider()
	registry := index.NewRegistry()
	var results []indexResult

	for _, b := range builds {
		if _, err := os.Stat(b.Path); err != nil {
			return handleError(ErrFileNotFound, err, "")
		}

		var progress *ui.Progress
		if !jsonOutput {
			progress = ui.NewProgress(fmt.Sprintf("Indexing %s", b.Path))
			b.Options.Progress = progress.Update
		}
		snap, err := index.BuildFile(commandContext(cmd), provider, registry, store, b)
		if progress != nil {
			progress.Done()
		}
		if err != nil {
			if errors.Is(err, extract.ErrInvalidDump) {
				return handleError(ErrDumpInvalid, err, "Check the dump was exported as JSON or YAML")
			}
			return handleError(errorCode(err), err, "")
		}

		res := indexResult{
			Model:    snap.ModelID,
			Source:   b.Path,
			Elements: snap.ElementCount(),
			Triples:  len(snap.Triples),
			Skipped:  snap.Stats.Skipped,
			Failures: snap.Stats.Failures,
			Dropped:  snap.Stats.Dropped,
		}
		results = append(results, res)
		if len(res.Dropped) > 0 {
			warnings = append(warnings, modelWarning(WarnPropertiesDropped, res.Model,
				"%s could not be indexed", ui.Count(len(res.Dropped), "property value", "property values")))
		}
		if res.Skipped > 0 {
			warnings = append(warnings, modelWarning(WarnElementsSkipped, res.Model,
				"%s skipped during extraction", ui.Count(res.Skipped, "element was", "elements were")))
		}

		if !jsonOutput {
			fmt.Println(ui.Checkf("Indexed %s: %s, %s",
				ui.ModelID(res.Model), ui.Count(res.Elements, "element", "elements"), ui.Count(res.Triples, "property", "properties")))
			for _, f := range res.Failures {
				fmt.Println(ui.Warningf("skipped element %d: %s", f.ElementID, f.Message))
			}
			for _, d := range res.Dropped {
				fmt.Println(ui.Warningf("dropped %s", d.Error()))
			}
		}
	}

	if jsonOutput {
		outputSuccessWithWarnings(results, warnings, counted(len(results)))
	}
	return nil
}

func init() {
	indexCmd.Flags().StringP("model", "m", "", "Model id to index under (default: from the dump)")
	indexCmd.Flags().IntP("workers", "w", 0, "Concurrent element extraction (default: workers from config)")
	rootCmd.AddCommand(indexCmd)
}
