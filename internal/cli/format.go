package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/query"
	"github.com/aidanlsb/ifcq/internal/ui"
)

// formatResult is the JSON form of 'format'.
type formatResult struct {
	Query      string   `json:"query"`
	Canonical  string   `json:"canonical"`
	Serialized string   `json:"serialized"`
	Tree       string   `json:"tree"`
	Groups     int      `json:"groups"`
	Properties []string `json:"properties"`
}

var formatCmd = &cobra.Command{
	Use:   "format <query>",
	Short: "Validate and normalize query text",
	Long: `Parses a query and prints it in canonical form: single spaces around
operators and comparators, operators in upper case, every evaluation inside a
group.

With --tree the query is printed as an editor tree document (YAML), the form
'ifcq build' reads. With --serialize it is printed the way a query editor
serializes its tree.

Unlike 'ifcq query', malformed text is always an error here.

Examples:
  ifcq format "(['IfcType'='IFCBEAM']and['Span'>'4'])"
  ifcq format "['IfcType' = 'IFCBEAM']" --tree > beams.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asTree, _ := cmd.Flags().GetBool("tree")
		asSerialized, _ := cmd.Flags().GetBool("serialize")
		if asTree && asSerialized {
			return handleErrorMsg(ErrInvalidInput, "--tree and --serialize cannot be combined", "")
		}

		text := strings.Join(args, " ")
		q, err := query.Parse(text)
		if err != nil {
			return handleError(errorCode(err), err, "Run 'ifcq syntax' for the query language")
		}

		tree := query.Tree(q)
		treeDoc, err := query.EncodeTree(tree)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if jsonOutput {
			outputSuccess(formatResult{
				Query:      text,
				Canonical:  q.String(),
				Serialized: query.Serialize(tree),
				Tree:       string(treeDoc),
				Groups:     len(q.Groups),
				Properties: q.Properties(),
			}, nil)
			return nil
		}

		switch {
		case asTree:
			fmt.Print(string(treeDoc))
		case asSerialized:
			fmt.Println(query.Serialize(tree))
		default:
			fmt.Println(q.String())
			if q.IsEmpty() {
				fmt.Println(ui.Hint("empty query: matches nothing"))
			}
		}
		return nil
	},
}

func init() {
	formatCmd.Flags().Bool("tree", false, "Print the query as an editor tree (YAML)")
	formatCmd.Flags().Bool("serialize", false, "Print the query as a query editor serializes it")
	rootCmd.AddCommand(formatCmd)
}
