package main

import (
	"errors"

	"able/aspect-go/pkg/aspect"
	"able/aspect-go/pkg/driver"
	"able/aspect-go/pkg/logger"
)

// session is a loaded manifest with its registry populated.
type session struct {
	manifest *driver.Manifest
	config   driver.Config
	log      *logger.Logger
	catalog  *driver.Catalog
	registry *aspect.Registry
	sources  []*driver.Manifest
	aspects  []*aspect.Aspect
	specs    []*driver.AspectSpec
}

// openSession loads the manifest at path and registers its aspects. Aspects
// of fetched sources are registered first, in source name order, followed by
// the manifest's own aspects.

func openSession(path string, flags globalFlags) (*session, error) {
	validator := driver.NewCatalog(driver.CatalogOptions{})
	manifest, err := driver.LoadManifest(path, validator)
	if err != nil {
		return nil, err
	}
	cfg, err := driver.ResolveConfig(manifest)
	if err != nil {
		return nil, err
	}
	if flags.optimizedSet {
		cfg.Optimized = flags.optimized
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	cfg.Activate()

	cache := flags.cache
	if cache == "" && len(manifest.Sources) > 0 {
		if cache, err = defaultCacheDir(); err != nil {
			aspect.SetOptimized(false)
			return nil, err
		}
	}
	sources, err := driver.LoadSources(manifest, cache, validator)
	switch {
	case errors.Is(err, driver.ErrNotLocked):
		log.Warn("sources skipped", "manifest", manifest.Path, "error", err)
	case err != nil:
		aspect.SetOptimized(false)
		return nil, err
	}

	catalog := driver.NewCatalog(driver.CatalogOptions{Logger: log})
	registry := aspect.NewRegistry()
	registry.SetLogger(log)
	var built []*aspect.Aspect
	var specs []*driver.AspectSpec
	for _, m := range append(sources, manifest) {
		applied, err := m.Apply(registry, catalog)
		if err != nil {
			aspect.SetOptimized(false)
			return nil, err
		}
		built = append(built, applied...)
		specs = append(specs, m.Aspects...)
	}
	return &session{
		manifest: manifest,
		config:   cfg,
		log:      log,
		catalog:  catalog,
		registry: registry,
		sources:  sources,
		aspects:  built,
		specs:    specs,
	}, nil
}

func (s *session) close() {
	s.log.Sync()
	aspect.SetOptimized(false)
}
