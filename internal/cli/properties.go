package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// valueCount is one distinct value of a property.
type valueCount struct {
	Value    string `json:"value"`
	Elements int    `json:"elements"`
}

// propertyValues is the JSON form of 'properties <name>'.
type propertyValues struct {
	Model  string       `json:"model"`
	Name   string       `json:"name"`
	Values []valueCount `json:"values"`
}

var propertiesCmd = &cobra.Command{
	Use:   "properties [name]",
	Short: "List indexed properties or the values of one property",
	Long: `Without arguments, lists every indexed property of a model with the number of
elements carrying it and its number of distinct values. With a property name,
lists that property's distinct values, sorted.

Useful for building queries: values are compared as text, so 'properties'
shows exactly what a comparison will see. Empty values appear as '---'.

Examples:
  ifcq properties
  ifcq properties IfcType
  ifcq properties Storey --model house`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelFlag, _ := cmd.Flags().GetString("model")

		store, _, err := openStore()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()

		snap, err := loadModel(store, modelFlag)
		if err != nil {
			return modelError(err)
		}

		if len(args) == 0 {
			summaries := snap.Index.Summaries()
			if jsonOutput {
				outputSuccess(summaries, counted(len(summaries)))
				return nil
			}
			printSummaries(snap.ModelID, summaries)
			return nil
		}

		values, ok := propertyValueCounts(snap, args[0])
		if !ok {
			return handleErrorMsg(ErrPropertyNotFound,
				fmt.Sprintf("property '%s' is not indexed in %s", args[0], snap.ModelID),
				"Run 'ifcq properties' to list indexed properties")
		}
		if jsonOutput {
			outputSuccess(propertyValues{Model: snap.ModelID, Name: args[0], Values: values}, counted(len(values)))
			return nil
		}

		fmt.Println(ui.Header(fmt.Sprintf("%s in %s", args[0], snap.ModelID)))
		t := ui.NewResultsTable(ui.NewDisplayContext(), []ui.ColumnDef{ui.ColValue, ui.ColCount})
		for _, v := range values {
			t.AddRows([]string{v.Value, strconv.Itoa(v.Elements)})
		}
		fmt.Println(t.Render())
		return nil
	},
}

// propertyValueCounts returns the distinct values of a property with the
// number of index entries per value.
func propertyValueCounts(snap *index.Snapshot, name string) ([]valueCount, bool) {
	byValue, ok := snap.Index.ValuesFor(name)
	if !ok {
		return nil, false
	}
	values := snap.Index.Values(name)
	out := make([]valueCount, len(values))
	for i, v := range values {
		out[i] = valueCount{Value: v, Elements: len(byValue[v])}
	}
	return out, true
}

func printSummaries(modelID string, summaries []index.PropertySummary) {
	if len(summaries) == 0 {
		fmt.Println(ui.Hint(fmt.Sprintf("No properties indexed in %s.", modelID)))
		return
	}
	fmt.Println(ui.Header(fmt.Sprintf("Properties of %s", modelID)))
	t := ui.NewResultsTable(ui.NewDisplayContext(), ui.SummaryLayout)
	for _, s := range summaries {
		t.AddRows([]string{s.Name, strconv.Itoa(s.Elements), strconv.Itoa(s.Values)})
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Hint("columns: property, elements, distinct values"))
}

func init() {
	propertiesCmd.Flags().StringP("model", "m", "", "Model to inspect (default: default_model, or the only indexed model)")
	rootCmd.AddCommand(propertiesCmd)
}
