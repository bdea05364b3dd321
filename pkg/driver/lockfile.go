package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName is written next to the manifest by `weave fetch`.
const LockfileName = "aspects.lock"

// Lockfile records the exact commit each manifest source was checked out at.
type Lockfile struct {
	Path      string
	Generated string
	Tool      string
	Sources   []*LockedSource
}

// LockedSource is one resolved manifest source.
type LockedSource struct {
	Name    string
	Version string
	Source  string
	Commit  string
}

type lockfileDisk struct {
	Generated string             `yaml:"generated,omitempty"`
	Tool      string             `yaml:"tool,omitempty"`
	Sources   []lockedSourceDisk `yaml:"sources"`
}

type lockedSourceDisk struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  string `yaml:"source"`
	Commit  string `yaml:"commit"`
}

// NewLockfile builds a lockfile from fetched sources.
func NewLockfile(tool string, m *Manifest, fetched []FetchedSource) *Lockfile {
	lock := &Lockfile{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
	}
	for _, f := range fetched {
		url := ""
		if src := m.Sources[f.Name]; src != nil {
			url = src.Git
		}
		lock.Sources = append(lock.Sources, &LockedSource{
			Name:    f.Name,
			Version: f.Version,
			Source:  fmt.Sprintf("git+%s@%s", url, f.Commit),
			Commit:  f.Commit,
		})
	}
	lock.normalize()
	return lock
}

// LockfilePath returns the lockfile location for a manifest.
func LockfilePath(m *Manifest) string {
	return filepath.Join(filepath.Dir(m.Path), LockfileName)
}

// LoadLockfile parses a lockfile from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := &Lockfile{Path: abs, Generated: raw.Generated, Tool: raw.Tool}
	for _, src := range raw.Sources {
		lock.Sources = append(lock.Sources, &LockedSource{
			Name:    src.Name,
			Version: src.Version,
			Source:  src.Source,
			Commit:  src.Commit,
		})
	}
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises the lockfile to path, or to lock.Path when path is
// empty.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	lock.Path = abs
	lock.normalize()

	data := lockfileDisk{Generated: lock.Generated, Tool: lock.Tool, Sources: []lockedSourceDisk{}}
	for _, src := range lock.Sources {
		data.Sources = append(data.Sources, lockedSourceDisk{
			Name:    src.Name,
			Version: src.Version,
			Source:  src.Source,
			Commit:  src.Commit,
		})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked entry for name.
func (l *Lockfile) Find(name string) (*LockedSource, bool) {
	for _, src := range l.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return nil, false
}

func (l *Lockfile) normalize() {
	l.Tool = strings.TrimSpace(l.Tool)
	kept := l.Sources[:0]
	for _, src := range l.Sources {
		if src == nil {
			continue
		}
		src.Name = strings.TrimSpace(src.Name)
		src.Version = strings.TrimSpace(src.Version)
		src.Source = strings.TrimSpace(src.Source)
		src.Commit = strings.TrimSpace(src.Commit)
		kept = append(kept, src)
	}
	l.Sources = kept
	sort.SliceStable(l.Sources, func(i, j int) bool {
		return l.Sources[i].Name < l.Sources[j].Name
	})
}
