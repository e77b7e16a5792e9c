package registry

import (
	"os"
	"path/filepath"
	"testing"

	"tokstream/pkg/types"
)

func TestLoadDir_FiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.gguf", "b.GGUF", "not-model.txt", "model.bin"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %+v", models)
	}
	ids := map[string]string{}
	for _, m := range models {
		ids[m.ID] = m.Path
	}
	if ids["a"] != filepath.Join(dir, "a.gguf") || ids["b"] != filepath.Join(dir, "b.GGUF") {
		t.Fatalf("unexpected ids/paths: %+v", ids)
	}
}

func TestLoadDir_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "tokstream-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	if err := os.WriteFile(filepath.Join(hTmp, "x.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	models, err := LoadDir("~/" + filepath.Base(hTmp))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestMerge_ConfiguredWins(t *testing.T) {
	scanned := []types.Model{{ID: "b", Path: "/scan/b.gguf"}, {ID: "a", Path: "/scan/a.gguf"}}
	configured := []types.Model{{ID: "b", Path: "/cfg/b.gguf"}, {ID: "echo"}}
	got := Merge(configured, scanned)
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "echo" {
		t.Fatalf("unexpected merge order: %+v", got)
	}
	if got[1].Path != "/cfg/b.gguf" {
		t.Fatalf("configured entry did not win: %+v", got[1])
	}
	if got[2].Name != "echo" {
		t.Fatalf("name not defaulted: %+v", got[2])
	}
}
