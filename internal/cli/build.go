package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/query"
)

var buildCmd = &cobra.Command{
	Use:   "build <tree-file>",
	Short: "Build query text from an editor tree",
	Long: `Reads a query editor tree (YAML or JSON) and prints the query text it
serializes to. Use - to read the tree from stdin.

A tree is a list of components; each is an evaluation, an operator or a nested
group:

  - property: IfcType
    comparator: "="
    value: IFCWALL
  - operator: AND
  - group:
      - property: Storey
        comparator: sw
        value: Level

Examples:
  ifcq build walls.yaml
  ifcq format "['IfcType' = 'IFCBEAM']" --tree | ifcq build -
  ifcq query "$(ifcq build walls.yaml)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}

		root, err := query.DecodeTree(data)
		if err != nil {
			return handleError(ErrTreeInvalid, err, "")
		}
		text := query.Serialize(root)

		// The serialized text must parse back; an evaluation value containing
		// a quote or bracket cannot be expressed in the query language.
		if _, err := query.Parse(text); err != nil && len(root.Children) > 0 {
			return handleError(ErrTreeInvalid, fmt.Errorf("tree does not serialize to a valid query: %w", err), "")
		}

		if jsonOutput {
			outputSuccess(map[string]string{"query": text}, nil)
			return nil
		}
		fmt.Println(text)
		return nil
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
