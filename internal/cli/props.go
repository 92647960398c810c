package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// elementProps is the JSON form of one element's properties.
type elementProps struct {
	Model      string                  `json:"model"`
	ID         model.ElementID         `json:"id"`
	Properties []model.GroupedProperty `json:"properties"`
}

var propsCmd = &cobra.Command{
	Use:   "props <element-id>...",
	Short: "Show the properties of elements",
	Long: `Lists every indexed property of one or more elements, grouped by property set.

Examples:
  ifcq props 101
  ifcq props 101 102 --model house
  ifcq last 1-3 --props     # properties of results from the last query`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelFlag, _ := cmd.Flags().GetString("model")

		ids := make([]model.ElementID, 0, len(args))
		for _, arg := range args {
			id, err := model.ParseElementID(arg)
			if err != nil {
				return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("invalid element id %q", arg), "Element ids are integers")
			}
			ids = append(ids, id)
		}

		store, _, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()

		snap, err := loadModel(store, modelFlag)
		if err != nil {
			return modelError(err)
		}

		out, err := collectProps(snap, ids)
		if err != nil {
			return handleError(ErrElementNotFound, err, "")
		}
		if jsonOutput {
			outputSuccess(out, counted(len(out)))
			return nil
		}
		printProps(out)
		return nil
	},
}

func collectProps(snap *index.Snapshot, ids []model.ElementID) ([]elementProps, error) {
	out := make([]elementProps, 0, len(ids))
	for _, id := range ids {
		if _, ok := snap.Elements[id]; !ok {
			return nil, fmt.Errorf("element %d not found in %s", id, snap.ModelID)
		}
		out = append(out, elementProps{Model: snap.ModelID, ID: id, Properties: snap.Elements.Grouped(id)})
	}
	return out, nil
}

func printProps(elements []elementProps) {
	display := ui.NewDisplayContext()
	for i, el := range elements {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(ui.Header(fmt.Sprintf("%s #%d", el.Model, el.ID)))
		t := ui.NewResultsTable(display, ui.ElementLayout)
		for _, p := range el.Properties {
			t.AddRows([]string{p.Group, p.Name, p.Value})
		}
		fmt.Println(t.Render())
	}
}

func init() {
	propsCmd.Flags().StringP("model", "m", "", "Model of the elements (default: default_model, or the only indexed model)")
	rootCmd.AddCommand(propsCmd)
}
