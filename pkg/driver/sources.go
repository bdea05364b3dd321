package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourceManifestName is the manifest a source repository keeps at its root.
const SourceManifestName = "aspects.yml"

// ErrNotLocked is returned by LoadSources when a manifest declares sources but
// no lockfile has been written next to it.
var ErrNotLocked = errors.New("sources are not locked (run weave fetch)")

// CheckoutDir returns where the Fetcher places version of source name.
func CheckoutDir(cacheDir, name, version string) string {
	return filepath.Join(cacheDir, sanitizePathSegment(name), sanitizePathSegment(version))
}

// LoadSources reads the lockfile next to m and loads the manifest of every
// source m declares from its checkout under cacheDir, in source name order.
// Advice names are checked against catalog when it is non-nil. Sources
// declared by a source manifest are not followed and its settings are
// ignored.
func LoadSources(m *Manifest, cacheDir string, catalog *Catalog) ([]*Manifest, error) {
	if len(m.Sources) == 0 {
		return nil, nil
	}
	lock, err := LoadLockfile(LockfilePath(m))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLocked
		}
		return nil, err
	}
	if cacheDir == "" {
		return nil, fmt.Errorf("sources: cache directory not configured")
	}

	out := make([]*Manifest, 0, len(m.Sources))
	for _, name := range m.SourceNames() {
		locked, ok := lock.Find(name)
		if !ok {
			return nil, fmt.Errorf("sources.%s: missing from %s (run weave fetch)", name, lock.Path)
		}
		if err := checkLocked(m.Sources[name], locked); err != nil {
			return nil, fmt.Errorf("sources.%s: %w", name, err)
		}
		dir := CheckoutDir(cacheDir, name, locked.Version)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("sources.%s: checkout %s missing (run weave fetch)", name, dir)
		}
		src, err := LoadManifest(filepath.Join(dir, SourceManifestName), catalog)
		if err != nil {
			return nil, fmt.Errorf("sources.%s: %w", name, err)
		}
		out = append(out, src)
	}
	return out, nil
}

// checkLocked reports a lock entry that no longer matches its declaration.
func checkLocked(src *SourceSpec, locked *LockedSource) error {
	if !strings.HasPrefix(locked.Source, "git+"+src.Git+"@") {
		return fmt.Errorf("lockfile entry %q is stale for %s (run weave fetch)", locked.Source, src.Git)
	}
	_, descriptor, err := gitRevision(src)
	if err != nil {
		return err
	}
	if locked.Version != descriptor && !strings.HasPrefix(locked.Version, descriptor+"@") {
		return fmt.Errorf("locked version %q does not match %q (run weave fetch)", locked.Version, descriptor)
	}
	return nil
}
