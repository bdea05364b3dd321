package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLockfileRoundTripSortsSources(t *testing.T) {
	manifest := &Manifest{
		Path: filepath.Join(t.TempDir(), "aspects.yml"),
		Sources: map[string]*SourceSpec{
			"zeta":  {Git: "https://example.com/zeta.git", Tag: "v2"},
			"alpha": {Git: "https://example.com/alpha.git", Rev: "abc"},
		},
	}
	lock := NewLockfile("weave test", manifest, []FetchedSource{
		{Name: "zeta", Version: "v2@def", Commit: "def"},
		{Name: "alpha", Version: "abc", Commit: "abc"},
	})
	path := LockfilePath(manifest)
	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("WriteLockfile: %v", err)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if loaded.Tool != "weave test" || loaded.Generated == "" {
		t.Fatalf("metadata = %q / %q", loaded.Tool, loaded.Generated)
	}
	if len(loaded.Sources) != 2 || loaded.Sources[0].Name != "alpha" {
		t.Fatalf("sources = %+v", loaded.Sources)
	}
	zeta, ok := loaded.Find("zeta")
	if !ok || zeta.Source != "git+https://example.com/zeta.git@def" || zeta.Version != "v2@def" {
		t.Fatalf("zeta = %+v", zeta)
	}
	if _, ok := loaded.Find("missing"); ok {
		t.Fatal("Find reported a missing source")
	}
}

func TestLoadLockfileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockfileName)
	if err := os.WriteFile(path, []byte("sources: []\nextra: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLockfile(path); err == nil || !strings.Contains(err.Error(), "lockfile: parse") {
		t.Fatalf("err = %v", err)
	}
}

func TestWriteLockfileRequiresPath(t *testing.T) {
	if err := WriteLockfile(&Lockfile{}, ""); err == nil {
		t.Fatal("expected missing path error")
	}
	if err := WriteLockfile(nil, "x"); err == nil {
		t.Fatal("expected nil lockfile error")
	}
}
