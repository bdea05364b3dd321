package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"able/aspect-go/pkg/logger"
)

// FetchedSource records where a manifest source was checked out.
type FetchedSource struct {
	Name    string
	Dir     string
	Version string
	Commit  string
}

// Fetcher checks manifest sources out into a cache directory laid out as
// <cache>/<name>/<version>. Existing checkouts are reused.
type Fetcher struct {
	CacheDir string
	Log      *logger.Logger
}

// NewFetcher returns a fetcher rooted at cacheDir.
func NewFetcher(cacheDir string, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{CacheDir: cacheDir, Log: log}
}

// FetchAll checks out every source of m in name order.
func (f *Fetcher) FetchAll(ctx context.Context, m *Manifest) ([]FetchedSource, error) {
	out := make([]FetchedSource, 0, len(m.Sources))
	for _, name := range m.SourceNames() {
		fetched, err := f.Fetch(ctx, name, m.Sources[name])
		if err != nil {
			return out, fmt.Errorf("sources.%s: %w", name, err)
		}
		out = append(out, fetched)
	}
	return out, nil
}

// Fetch checks out one source.
func (f *Fetcher) Fetch(ctx context.Context, name string, src *SourceSpec) (FetchedSource, error) {
	if f.CacheDir == "" {
		return FetchedSource{}, fmt.Errorf("fetch: cache directory not configured")
	}
	if src == nil {
		return FetchedSource{}, fmt.Errorf("fetch: source %q is empty", name)
	}
	if issues := src.validate(); len(issues) > 0 {
		return FetchedSource{}, &ValidationError{Issues: issues}
	}
	baseDir := filepath.Join(f.CacheDir, sanitizePathSegment(name))
	version, commit, err := ensureGitCheckout(ctx, baseDir, src)
	if err != nil {
		return FetchedSource{}, err
	}
	dir := CheckoutDir(f.CacheDir, name, version)
	f.Log.Info("source ready", "name", name, "version", version, "commit", commit, "dir", dir)
	return FetchedSource{Name: name, Dir: dir, Version: version, Commit: commit}, nil
}

func ensureGitCheckout(ctx context.Context, baseDir string, src *SourceSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor, err := gitRevision(src)
	if err != nil {
		return "", "", err
	}

	if src.Rev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(src.Rev))
		if _, err := os.Stat(existing); err == nil {
			return src.Rev, src.Rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL: src.Git,
	})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", src.Git, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := pinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func pinnedVersion(descriptor, commit string) string {
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return descriptor + "@" + commit
}

// gitRevision picks the revision to resolve. Tags and branches resolve
// against the remote-tracking refs created by the clone.
func gitRevision(src *SourceSpec) (plumbing.Revision, string, error) {
	switch {
	case src.Rev != "":
		return plumbing.Revision(src.Rev), src.Rev, nil
	case src.Tag != "":
		return plumbing.Revision("refs/tags/" + src.Tag), src.Tag, nil
	case src.Branch != "":
		return plumbing.Revision("refs/remotes/origin/" + src.Branch), src.Branch, nil
	}
	return "", "", fmt.Errorf("git sources require rev, tag, or branch")
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
