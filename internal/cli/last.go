package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/lastquery"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/shellquote"
	"github.com/aidanlsb/ifcq/internal/ui"
)

var lastCmd = &cobra.Command{
	Use:   "last [numbers...]",
	Short: "Show or select results from the last query",
	Long: `Show or select results from the most recent query.

Without arguments, displays all results from the last query with their numbers.
With number arguments, outputs the selected element ids for piping to other
commands, or their properties with --props.

Number formats:
  1         Single result
  1,3,5     Multiple results (comma-separated)
  1-5       Range of results
  1,3-5,7   Mixed format

Examples:
  ifcq last                  # Show all results from the last query
  ifcq last 1,3              # Output ids of results 1 and 3
  ifcq last 1-5 --props      # Properties of the first five results`,
	RunE: func(cmd *cobra.Command, args []string) error {
		showProps, _ := cmd.Flags().GetBool("props")

		lq, err := lastquery.Read(getStateDir())
		if err != nil {
			if errors.Is(err, lastquery.ErrNoLastQuery) {
				return handleErrorMsg(ErrNoLastQuery,
					"no query results available",
					"Run a query first, then use 'ifcq last' to see or select results")
			}
			return handleError(ErrFileReadError, err, "")
		}

		entries := lq.Results
		if len(args) > 0 {
			nums, err := lastquery.ParseNumberArgs(args)
			if err != nil {
				return handleErrorMsg(ErrInvalidInput, err.Error(),
					fmt.Sprintf("Valid range: 1-%d", len(lq.Results)))
			}
			entries, err = lq.GetByNumbers(nums)
			if err != nil {
				return handleError(ErrInvalidInput, err, "")
			}
		}

		if showProps {
			return showLastProps(entries)
		}

		if jsonOutput {
			outputSuccess(map[string]interface{}{
				"query":     lq.Query,
				"model":     lq.Model,
				"timestamp": lq.Timestamp,
				"rerun":     rerunCommand(lq),
				"results":   entries,
			}, counted(len(entries)))
			return nil
		}

		if len(args) > 0 {
			for _, e := range entries {
				if lq.Model == "" {
					fmt.Printf("%s:%d\n", e.Model, e.ElementID)
				} else {
					fmt.Println(e.ElementID)
				}
			}
			return nil
		}

		fmt.Printf("%s %s\n", ui.Header(lq.Query), ui.Hint(formatAge(lq.Timestamp)))
		if len(entries) == 0 {
			fmt.Println(ui.Hint("No elements matched."))
			return nil
		}
		t := ui.NewTable(3)
		for _, e := range entries {
			t.AddRow(ui.Hint(strconv.Itoa(e.Num)), ui.ModelID(e.Model), e.ElementID.String())
		}
		fmt.Print(t.String())
		fmt.Println(ui.Hint(rerunCommand(lq)))
		return nil
	},
}

// rerunCommand renders the shell command that repeats lq.
func rerunCommand(lq *lastquery.LastQuery) string {
	args := []string{"ifcq", "query", lq.Query}
	if lq.Model == "" {
		args = append(args, "--all")
	} else {
		args = append(args, "--model", lq.Model)
	}
	return shellquote.Join(args...)
}

// showLastProps prints the properties of selected results, loading each
// model once.
func showLastProps(entries []lastquery.ResultEntry) error {
	store, _, err := openStore()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()

	snaps := make(map[string]*index.Snapshot)
	var out []elementProps
	for _, e := range entries {
		snap, ok := snaps[e.Model]
		if !ok {
			snap, err = store.Load(e.Model)
			if err != nil {
				return modelError(err)
			}
			snaps[e.Model] = snap
		}
		props, err := collectProps(snap, []model.ElementID{e.ElementID})
		if err != nil {
			return handleError(ErrElementNotFound, err, "The index changed since the query ran; run it again")
		}
		out = append(out, props...)
	}

	if jsonOutput {
		outputSuccess(out, counted(len(out)))
		return nil
	}
	printProps(out)
	return nil
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format(time.DateOnly)
}

func init() {
	lastCmd.Flags().Bool("props", false, "Show properties of the selected results")
	rootCmd.AddCommand(lastCmd)
}
