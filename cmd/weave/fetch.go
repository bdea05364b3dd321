package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"able/aspect-go/pkg/driver"
)

const cacheEnvVar = "ABLE_ASPECTS_CACHE"

func runFetch(args []string, flags globalFlags) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "weave fetch expects exactly one manifest path")
		return 1
	}
	cache := flags.cache
	var err error
	if cache == "" {
		cache, err = defaultCacheDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	manifest, err := driver.LoadManifest(args[0], nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := driver.ResolveConfig(manifest)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	if len(manifest.Sources) == 0 {
		fmt.Fprintln(os.Stdout, "no sources to fetch")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fetched, err := driver.NewFetcher(cache, log).FetchAll(ctx, manifest)
	for _, f := range fetched {
		fmt.Fprintf(os.Stdout, "%s %s %s\n", f.Name, f.Version, f.Dir)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	lockPath := driver.LockfilePath(manifest)
	if err := driver.WriteLockfile(driver.NewLockfile(cliToolVersion, manifest, fetched), lockPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Debug("lockfile written", "path", lockPath, "sources", len(fetched))
	return 0
}

func defaultCacheDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(cacheEnvVar)); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w (set %s)", err, cacheEnvVar)
	}
	return filepath.Join(base, "able-aspects"), nil
}
