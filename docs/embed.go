// Package docs bundles the long-form help shown by the CLI.
package docs

import (
	"embed"
	"io/fs"
)

// FS contains long-form Markdown docs bundled with the ifcq binary.
//
//go:embed *.md
var FS embed.FS

// Read returns one bundled document by file name.
func Read(name string) (string, error) {
	data, err := fs.ReadFile(FS, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
