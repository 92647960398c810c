package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/config"
	"github.com/aidanlsb/ifcq/internal/slugs"
	"github.com/aidanlsb/ifcq/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the global configuration",
	Long: `Shows the resolved configuration. Subcommands create the config file and
register model dumps.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		timeout, _ := c.ServerTimeout()
		data := map[string]interface{}{
			"path":           getConfigPath(),
			"default_model":  c.DefaultModel,
			"workers":        c.Workers,
			"strict":         c.Strict,
			"models":         c.Models,
			"server_addr":    c.ServerAddr(),
			"server_timeout": timeout.String(),
			"log_level":      c.LogLevel(),
			"log_format":     c.LogFormat(),
		}
		if jsonOutput {
			outputSuccess(data, nil)
			return nil
		}

		fmt.Println(ui.Header(getConfigPath()))
		t := ui.NewTable(2)
		t.AddRow(ui.Hint("default_model"), c.DefaultModel)
		t.AddRow(ui.Hint("workers"), fmt.Sprint(c.Workers))
		t.AddRow(ui.Hint("strict"), fmt.Sprint(c.Strict))
		t.AddRow(ui.Hint("server"), c.ServerAddr()+" "+ui.Hint("timeout "+timeout.String()))
		t.AddRow(ui.Hint("log"), c.LogLevel()+" "+c.LogFormat())
		for _, id := range c.ModelIDs() {
			t.AddRow(ui.Hint("model"), ui.ModelID(id)+" "+c.Models[id])
		}
		fmt.Print(t.String())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefault(getConfigPath())
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if jsonOutput {
			outputSuccess(map[string]string{"path": path}, nil)
			return nil
		}
		fmt.Println(ui.Checkf("Config at %s", path))
		return nil
	},
}

var configAddModelCmd = &cobra.Command{
	Use:   "add-model <dump> [id]",
	Short: "Register a model dump under an id",
	Long: `Adds a model dump to [models] in config.toml so that 'ifcq index', 'ifcq watch'
and 'ifcq serve --watch' pick it up without arguments. The id defaults to the
dump's file name.

Examples:
  ifcq config add-model exports/house.ifc.json
  ifcq config add-model exports/house.ifc.json house --default`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		makeDefault, _ := cmd.Flags().GetBool("default")

		dump, err := filepath.Abs(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}
		if _, err := os.Stat(dump); err != nil {
			return handleError(ErrFileNotFound, err, "")
		}

		id := slugs.ModelIDFromPath(dump)
		if len(args) == 2 {
			id = args[1]
		}
		if !slugs.Valid(id) {
			return handleErrorMsg(ErrInvalidInput,
				fmt.Sprintf("invalid model id %q", id),
				fmt.Sprintf("Use lowercase letters, digits and dashes, e.g. %q", slugs.ModelID(id)))
		}

		c := *getConfig()
		c.Models = make(map[string]string, len(getConfig().Models)+1)
		for k, v := range getConfig().Models {
			c.Models[k] = v
		}
		c.Models[id] = dump
		if makeDefault {
			c.DefaultModel = id
		}

		if err := config.SaveTo(getConfigPath(), &c); err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if jsonOutput {
			outputSuccess(map[string]string{"model": id, "dump": dump, "config": getConfigPath()}, nil)
			return nil
		}
		fmt.Println(ui.Checkf("Added %s (%s)", ui.ModelID(id), dump))
		return nil
	},
}

func init() {
	configAddModelCmd.Flags().Bool("default", false, "Also make it the default model")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configAddModelCmd)
	rootCmd.AddCommand(configCmd)
}
