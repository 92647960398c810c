// Package slugs derives model identifiers from file names and labels.
package slugs

import (
	"path/filepath"
	"strings"

	goslug "github.com/gosimple/slug"
)

// modelExtensions are stripped from dump file names before slugging, longest
// first so "x.ifc.json" loses both.
var modelExtensions = []string{".ifc.json", ".ifc.yaml", ".ifc.yml", ".json", ".yaml", ".yml", ".ifc"}

// ModelID converts a label such as a project name into a model identifier.
func ModelID(label string) string {
	s := strings.TrimSpace(label)
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return slugged
}

// ModelIDFromPath derives a model identifier from a dump file path:
// "exports/SRR CGC T01.ifc.json" -> "srr-cgc-t01".
func ModelIDFromPath(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, ext := range modelExtensions {
		if strings.HasSuffix(lower, ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	return ModelID(base)
}

// Valid reports whether id is already in model identifier form.
func Valid(id string) bool {
	return id != "" && goslug.IsSlug(id)
}
