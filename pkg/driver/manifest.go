package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"able/aspect-go/pkg/aspect"
)

// Manifest represents the parsed contents of an aspects.yml file.
type Manifest struct {
	Path     string
	Settings Settings
	Sources  map[string]*SourceSpec
	Aspects  []*AspectSpec
}

// Settings carries the process-level switches a manifest may set.
type Settings struct {
	Optimized bool
	Log       string
}

// AspectSpec describes one aspect: a name pattern and its ordered advice.
type AspectSpec struct {
	Name    string
	Pattern string
	Advice  []AdviceSpec
}

// AdviceSpec binds an event to a catalog entry, with an optional argument.
type AdviceSpec struct {
	Event string
	Use   string
	Arg   string
}

// SourceSpec names a git repository holding shared manifests.
type SourceSpec struct {
	Git    string
	Rev    string
	Tag    string
	Branch string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type manifestFile struct {
	Settings *settingsFile          `yaml:"settings"`
	Sources  map[string]*sourceFile `yaml:"sources"`
	Aspects  []aspectFile           `yaml:"aspects"`
}

type settingsFile struct {
	Optimized bool   `yaml:"optimized"`
	Log       string `yaml:"log"`
}

type sourceFile struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
}

type aspectFile struct {
	Name    string       `yaml:"name"`
	Pattern string       `yaml:"pattern"`
	Advice  []adviceFile `yaml:"advice"`
}

type adviceFile struct {
	Event string `yaml:"event"`
	Use   string `yaml:"use"`
	Arg   string `yaml:"arg"`
}

// LoadManifest parses a manifest from disk, returning a validated manifest.
// Advice names are checked against catalog when it is non-nil.
func LoadManifest(path string, catalog *Catalog) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(catalog); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (raw manifestFile) toManifest(path string) *Manifest {
	m := &Manifest{Path: path, Sources: make(map[string]*SourceSpec, len(raw.Sources))}
	if raw.Settings != nil {
		m.Settings = Settings{
			Optimized: raw.Settings.Optimized,
			Log:       strings.TrimSpace(raw.Settings.Log),
		}
	}
	for name, src := range raw.Sources {
		if src == nil {
			m.Sources[name] = nil
			continue
		}
		m.Sources[name] = &SourceSpec{
			Git:    strings.TrimSpace(src.Git),
			Rev:    strings.TrimSpace(src.Rev),
			Tag:    strings.TrimSpace(src.Tag),
			Branch: strings.TrimSpace(src.Branch),
		}
	}
	for _, a := range raw.Aspects {
		spec := &AspectSpec{Name: strings.TrimSpace(a.Name), Pattern: a.Pattern}
		for _, adv := range a.Advice {
			spec.Advice = append(spec.Advice, AdviceSpec{
				Event: strings.ToLower(strings.TrimSpace(adv.Event)),
				Use:   strings.ToLower(strings.TrimSpace(adv.Use)),
				Arg:   adv.Arg,
			})
		}
		m.Aspects = append(m.Aspects, spec)
	}
	return m
}

func (m *Manifest) validate(catalog *Catalog) error {
	var errs ValidationError
	if m.Settings.Log != "" && !validLogMode(m.Settings.Log) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("settings.log has unsupported value %q", m.Settings.Log))
	}

	for _, name := range m.SourceNames() {
		src := m.Sources[name]
		if src == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sources.%s must not be empty", name))
			continue
		}
		for _, issue := range src.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("sources.%s: %s", name, issue))
		}
	}

	names := make(map[string]int, len(m.Aspects))
	for i, a := range m.Aspects {
		label := fmt.Sprintf("aspects[%d]", i)
		if a.Name != "" {
			label = fmt.Sprintf("aspects[%d] (%s)", i, a.Name)
			if prev, exists := names[a.Name]; exists {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s reuses the name of aspects[%d]", label, prev))
			} else {
				names[a.Name] = i
			}
		}
		if a.Pattern == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%s missing pattern", label))
		} else if _, err := aspect.CompilePattern(a.Pattern); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%s: %v", label, err))
		}
		if len(a.Advice) == 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("%s must declare at least one advice", label))
		}
		for j, adv := range a.Advice {
			if _, err := aspect.ParseEvent(adv.Event); err != nil {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s.advice[%d]: %v", label, j, err))
			}
			if adv.Use == "" {
				errs.Issues = append(errs.Issues, fmt.Sprintf("%s.advice[%d] missing use", label, j))
				continue
			}
			if catalog != nil {
				if issue := catalog.check(adv); issue != "" {
					errs.Issues = append(errs.Issues, fmt.Sprintf("%s.advice[%d]: %s", label, j, issue))
				}
			}
		}
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (s *SourceSpec) validate() []string {
	var issues []string
	if s.Git == "" {
		issues = append(issues, "git url must be provided")
	}
	set := 0
	for _, v := range []string{s.Rev, s.Tag, s.Branch} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		issues = append(issues, "one of rev, tag or branch must be provided")
	case set > 1:
		issues = append(issues, "rev, tag and branch are mutually exclusive")
	}
	return issues
}

// SourceNames returns the declared source names in sorted order.
func (m *Manifest) SourceNames() []string {
	names := make([]string, 0, len(m.Sources))
	for name := range m.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply builds every aspect through catalog and registers them on registry
// in manifest order. Nothing is registered when any aspect fails to build.
func (m *Manifest) Apply(registry *aspect.Registry, catalog *Catalog) ([]*aspect.Aspect, error) {
	built := make([]*aspect.Aspect, 0, len(m.Aspects))
	for i, spec := range m.Aspects {
		var advice []aspect.Advice
		for j, adv := range spec.Advice {
			made, err := catalog.Build(adv)
			if err != nil {
				return nil, fmt.Errorf("manifest: aspects[%d].advice[%d]: %w", i, j, err)
			}
			advice = append(advice, made...)
		}
		a, err := aspect.NewAspect(spec.Pattern, advice...)
		if err != nil {
			return nil, fmt.Errorf("manifest: aspects[%d]: %w", i, err)
		}
		built = append(built, a.Named(spec.Name))
	}
	for _, a := range built {
		if err := registry.Add(a); err != nil {
			return nil, err
		}
	}
	return built, nil
}
