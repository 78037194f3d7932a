package dtc

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	path := writeFile(t, "defs.json", `{
		"SPN:100 FMI:1": {"description": "Oil pressure low", "suggestion": "Check oil level"},
		"SPN:520 FMI:12": {"description": "Controller fault"}
	}`)
	defs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if defs.Len() != 2 {
		t.Fatalf("len = %d", defs.Len())
	}

	def, ok := defs.Lookup(100, 1)
	if !ok || def.Description != "Oil pressure low" || def.Suggestion != "Check oil level" {
		t.Fatalf("lookup = %+v/%v", def, ok)
	}
	if _, ok := defs.Lookup(999, 9); ok {
		t.Fatal("unknown pair should miss")
	}
}

func TestLoadMissingFile(t *testing.T) {
	defs, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	// still usable as an empty table
	if _, ok := defs.Lookup(1, 1); ok {
		t.Fatal("empty table should miss")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "bad.json", `{not json`)
	if _, err := Load(path); err == nil {
		t.Fatal("malformed file must be an error")
	}
}
