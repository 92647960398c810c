package docs

import (
	"strings"
	"testing"
)

func TestReadQuerySyntax(t *testing.T) {
	content, err := Read("query-syntax.md")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !strings.HasPrefix(content, "# ") {
		t.Errorf("expected a Markdown heading, got %q", content[:min(len(content), 20)])
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read("missing.md"); err == nil {
		t.Fatal("expected error for missing document")
	}
}
