package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/ifcq/internal/extract"
	"github.com/aidanlsb/ifcq/internal/index"
	"github.com/aidanlsb/ifcq/internal/model"
)

// openStore opens the index of the project directory. A store recreated
// because of a schema change is reported as a warning.
func openStore() (*index.Store, []Warning, error) {
	store, rebuilt, err := index.Open(getProjectDir())
	if err != nil {
		return nil, nil, err
	}
	var warnings []Warning
	if rebuilt {
		msg := "index schema was outdated and has been recreated; run 'ifcq index' to rebuild"
		getLogger().Warn(msg, "dir", getProjectDir())
		warnings = append(warnings, Warning{Code: WarnIndexRebuilt, Message: msg})
	}
	return store, warnings, nil
}

// resolveModelID picks the model a command works on: the --model flag, then
// default_model from config, then the only stored model.
func resolveModelID(store *index.Store, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if def := getConfig().DefaultModel; def != "" {
		return def, nil
	}
	infos, err := store.Models()
	if err != nil {
		return "", err
	}
	switch len(infos) {
	case 0:
		return "", fmt.Errorf("%w: no models in %s", index.ErrModelNotFound, getProjectDir())
	case 1:
		return infos[0].ModelID, nil
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ModelID
	}
	return "", &ambiguousModelError{ids: ids}
}

type ambiguousModelError struct {
	ids []string
}

func (e *ambiguousModelError) Error() string {
	return fmt.Sprintf("several models are indexed (%s); pass --model", strings.Join(e.ids, ", "))
}

// loadModel resolves and loads one stored model.
func loadModel(store *index.Store, flag string) (*index.Snapshot, error) {
	id, err := resolveModelID(store, flag)
	if err != nil {
		return nil, err
	}
	return store.Load(id)
}

// modelError converts a model lookup failure into a CLI error.
func modelError(err error) error {
	var amb *ambiguousModelError
	switch {
	case errors.As(err, &amb):
		return handleErrorWithDetails(ErrModelAmbiguous, "several models are indexed", "Pass --model or set default_model in config.toml", amb.ids)
	case errors.Is(err, index.ErrModelNotFound):
		return handleError(ErrModelNotIndexed, err, "Run 'ifcq index <dump>' first")
	}
	return handleError(ErrDatabaseError, err, "")
}

// dumpTargets lists the dump files a build command works on: the given paths,
// or every model configured in config.toml.
func dumpTargets(args []string, modelFlag string, opts extract.Options) ([]index.FileBuild, error) {
	if len(args) > 1 && modelFlag != "" {
		return nil, fmt.Errorf("--model can only be used with a single dump file")
	}
	var builds []index.FileBuild
	for _, path := range args {
		builds = append(builds, index.FileBuild{Path: path, ModelID: modelFlag, Options: opts})
	}
	if len(args) > 0 {
		return builds, nil
	}

	c := getConfig()
	ids := c.ModelIDs()
	if modelFlag != "" {
		ids = []string{modelFlag}
	}
	for _, id := range ids {
		path, err := c.ModelPath(id)
		if err != nil {
			return nil, err
		}
		builds = append(builds, index.FileBuild{Path: configRelative(path), ModelID: id, Options: opts})
	}
	if len(builds) == 0 {
		return nil, fmt.Errorf("no dump files given and no models configured")
	}
	return builds, nil
}

// configRelative resolves a dump path from config.toml: ~ is expanded and
// relative paths are taken from the config file's directory.
func configRelative(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) || getConfigPath() == "" {
		return path
	}
	return filepath.Join(filepath.Dir(getConfigPath()), path)
}

// elementLabel returns the IfcType and Name of an element for listings.
func elementLabel(snap *index.Snapshot, id model.ElementID) (ifcType, name string) {
	props := snap.Elements[id]
	return props[model.PropertyType].Value, props[model.PropertyName].Value
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
