package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/lastquery"
	"github.com/aidanlsb/ifcq/internal/model"
	"github.com/aidanlsb/ifcq/internal/query"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// queryMatch is one matching element.
type queryMatch struct {
	Num   int             `json:"num"`
	Model string          `json:"model"`
	ID    model.ElementID `json:"id"`
	Type  string          `json:"type,omitempty"`
	Name  string          `json:"name,omitempty"`
}

// queryResult is the JSON form of a query run.
type queryResult struct {
	Query     string       `json:"query"`
	Canonical string       `json:"canonical,omitempty"`
	Models    []string     `json:"models"`
	Matches   []queryMatch `json:"matches"`
}

var queryCmd = &cobra.Command{
	Use:   "query <query>",
	Short: "Select elements matching a property query",
	Long: `Evaluates a property query against the stored index of a model and lists
the matching elements.

A query is a sequence of parenthesised groups joined by AND or OR; each group
is a sequence of bracketed evaluations joined the same way. Operators are
applied strictly left to right with no precedence. See 'ifcq syntax'.

Malformed query text matches nothing unless --strict (or strict = true in
config.toml) is set. An unknown comparator is always an error.

Results are numbered and remembered, so 'ifcq last' can refer to them.

Examples:
  ifcq query "['IfcType' = 'IFCBEAM']"
  ifcq query "(['IfcType' = 'IFCWALL'] AND ['IsExternal' = 'true'])" --model house
  ifcq query "['Name' . 'Door']" --all
  ifcq query "['Storey' sw 'Level 1']" --ids`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	start := time.Now()
	text := strings.Join(args, " ")
	modelFlag, _ := cmd.Flags().GetString("model")
	all, _ := cmd.Flags().GetBool("all")
	idsOnly, _ := cmd.Flags().GetBool("ids")
	strict, _ := cmd.Flags().GetBool("strict")
	strict = strict || getConfig().Strict

	if all && modelFlag != "" {
		return handleErrorMsg(ErrInvalidInput, "--all and --model cannot be combined", "")
	}

	q, warnings, err := parseQuery(text, strict)
	if err != nil {
		return handleError(errorCode(err), err, "Run 'ifcq syntax' for the query language")
	}

	store, storeWarnings, err := openStore()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer store.Close()
	warnings = append(storeWarnings, warnings...)

	var snaps []*index.Snapshot
	var results []query.ModelResult
	if all {
		registry := index.NewRegistry()
		if _, err := store.LoadInto(registry); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		snaps = registry.Snapshots()
		results = query.EvaluateAll(q, registry.Indexes())
	} else {
		snap, err := loadModel(store, modelFlag)
		if err != nil {
			return modelError(err)
		}
		snaps = []*index.Snapshot{snap}
		results = []query.ModelResult{{ModelID: snap.ModelID, IDs: query.Evaluate(q, snap.Index)}}
	}

	res := queryResult{Query: text, Models: make([]string, 0, len(snaps)), Matches: []queryMatch{}}
	if q != nil {
		res.Canonical = q.String()
	}
	for i, r := range results {
		res.Models = append(res.Models, r.ModelID)
		for _, id := range r.IDs.Sorted() {
			ifcType, name := elementLabel(snaps[i], id)
			res.Matches = append(res.Matches, queryMatch{
				Num:   len(res.Matches) + 1,
				Model: r.ModelID,
				ID:    id,
				Type:  ifcType,
				Name:  name,
			})
		}
	}

	saveLastQuery(text, res, all)

	if jsonOutput {
		outputSuccessWithWarnings(res, warnings, &Meta{Count: len(res.Matches), QueryTimeMs: time.Since(start).Milliseconds()})
		return nil
	}

	for _, w := range warnings {
		fmt.Println(ui.Warning(w.Message))
	}
	if idsOnly {
		for _, m := range res.Matches {
			if all {
				fmt.Printf("%s:%d\n", m.Model, m.ID)
			} else {
				fmt.Println(m.ID)
			}
		}
		return nil
	}
	printMatches(res.Matches, all)
	return nil
}

// parseQuery parses query text. Malformed text becomes a warning and a nil
// query unless strict is set.
func parseQuery(text string, strict bool) (*query.Query, []Warning, error) {
	q, err := query.Parse(text)
	if err == nil {
		return q, nil, nil
	}
	if errors.Is(err, query.ErrMalformed) && !strict {
		getLogger().Debug("malformed query", "query", text, "error", err)
		return nil, []Warning{{Code: WarnQueryMalformed, Message: err.Error() + "; nothing matches"}}, nil
	}
	return nil, nil, err
}

func printMatches(matches []queryMatch, withModel bool) {
	if len(matches) == 0 {
		fmt.Println(ui.Hint("No elements match."))
		return
	}

	cols := 4
	if withModel {
		cols = 5
	}
	t := ui.NewTable(cols)
	for _, m := range matches {
		cells := []string{ui.Hint(strconv.Itoa(m.Num))}
		if withModel {
			cells = append(cells, ui.ModelID(m.Model))
		}
		cells = append(cells, m.ID.String(), m.Type, m.Name)
		t.AddRow(cells...)
	}
	fmt.Print(t.String())
	fmt.Println(ui.Hint(ui.Count(len(matches), "element", "elements")))
}

func saveLastQuery(text string, res queryResult, all bool) {
	entries := make([]lastquery.ResultEntry, len(res.Matches))
	for i, m := range res.Matches {
		entries[i] = lastquery.ResultEntry{Model: m.Model, ElementID: m.ID}
	}
	modelID := ""
	if !all && len(res.Models) == 1 {
		modelID = res.Models[0]
	}
	if err := lastquery.Write(getStateDir(), lastquery.New(text, modelID, entries)); err != nil {
		getLogger().Warn("failed to save last query", "error", err)
	}
}

func init() {
	queryCmd.Flags().StringP("model", "m", "", "Model to query (default: default_model, or the only indexed model)")
	queryCmd.Flags().BoolP("all", "a", false, "Query every indexed model")
	queryCmd.Flags().Bool("strict", false, "Fail on malformed query text instead of matching nothing")
	queryCmd.Flags().Bool("ids", false, "Print only element ids, one per line")
	rootCmd.AddCommand(queryCmd)
}
