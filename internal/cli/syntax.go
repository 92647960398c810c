package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/docs"
	"github.com/aidanlsb/ifcq/internal/ui"
)

const syntaxDoc = "query-syntax.md"

var syntaxCmd = &cobra.Command{
	Use:   "syntax",
	Short: "Describe the query language",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := docs.Read(syntaxDoc)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if jsonOutput {
			outputSuccess(map[string]string{"name": syntaxDoc, "markdown": content}, nil)
			return nil
		}
		if raw {
			fmt.Print(content)
			return nil
		}

		display := ui.NewDisplayContext()
		rendered, err := ui.RenderMarkdown(content, display.AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			fmt.Print(content)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	syntaxCmd.Flags().Bool("raw", false, "Print the Markdown source")
	rootCmd.AddCommand(syntaxCmd)
}
