// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/config"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/logging"
	"github.com/aidanlsb/ifcq/internal/ui"
)

var (
	// Global flags
	configPath   string
	projectDir   string
	logLevelFlag string

	// Resolved values
	resolvedConfigPath string
	resolvedProjectDir string
	cfg                *config.Config
	logger             *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ifcq",
	Short: "ifcq - query building models by their properties",
	Long: `ifcq indexes the properties of building model elements and selects elements
with a small boolean query language:

  (['IfcType' = 'IFCBEAM'] AND ['Storey' sw 'Level']) OR (['Name' . 'Door'])

Model property dumps are indexed once with 'ifcq index'; queries then run
against the stored index of a project directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return preRunError(ErrConfigInvalid, err, "Fix the config file or pass --config")
		}

		level := logLevelFlag
		if level == "" {
			level = cfg.LogLevel()
		}
		logger, err = logging.Init(logging.Config{Level: level, Format: cfg.LogFormat()})
		if err != nil {
			return preRunError(ErrConfigInvalid, err, "")
		}

		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		dir := projectDir
		if dir == "" {
			dir = "."
		}
		resolvedProjectDir, err = filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve project directory: %w", err)
		}
		return nil
	},
}

// errReported stops a command whose error was already written as JSON.
var errReported = errors.New("error reported")

// preRunError reports a setup failure. Unlike handleError it always returns
// an error so cobra does not go on to run the command.
func preRunError(code string, err error, suggestion string) error {
	if jsonOutput {
		outputError(code, err.Error(), nil, suggestion)
		return errReported
	}
	return err
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", "", "Project directory holding the .ifcq index (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// getConfigPath returns the resolved global config path.
func getConfigPath() string {
	return resolvedConfigPath
}

// getProjectDir returns the resolved project directory.
func getProjectDir() string {
	return resolvedProjectDir
}

// getStateDir returns the directory holding the index and last query.
func getStateDir() string {
	return filepath.Join(resolvedProjectDir, index.StateDir)
}

func getLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// loadGlobalConfigWithPath loads --config or the default config. A missing
// file yields an empty config.
func loadGlobalConfigWithPath() (*config.Config, string, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.Config{}, path, nil
	}
	loaded, err := config.LoadFrom(path)
	if err != nil {
		return nil, "", err
	}
	return loaded, path, nil
}
