package slugs

import "testing"

func TestModelID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tower A", "tower-a"},
		{"SRR-CGC-T01-ZZZ-M3D-EST-001", "srr-cgc-t01-zzz-m3d-est-001"},
		{"  Edificio Ñandú ", "edificio-nandu"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ModelID(tt.in); got != tt.want {
				t.Errorf("ModelID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModelIDFromPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"exports/Tower A.ifc.json", "tower-a"},
		{"/tmp/site.yaml", "site"},
		{"model.IFC", "model"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ModelIDFromPath(tt.in); got != tt.want {
				t.Errorf("ModelIDFromPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid("tower-a") {
		t.Error("expected tower-a to be valid")
	}
	if Valid("Tower A") {
		t.Error("expected 'Tower A' to be invalid")
	}
	if Valid("") {
		t.Error("expected empty id to be invalid")
	}
}
