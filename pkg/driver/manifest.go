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
)

// ManifestFileName is the project manifest the CLI looks for.
const ManifestFileName = "rift.yml"

// Manifest represents the parsed contents of rift.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	Entry        string
	Dependencies map[string]*DependencySpec
}

// DependencySpec describes one dependency: a git source pinned by rev, tag
// or branch, or a local path.
type DependencySpec struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

type manifestFile struct {
	Name         string                     `yaml:"name"`
	Version      string                     `yaml:"version"`
	Entry        string                     `yaml:"entry"`
	Dependencies map[string]*DependencySpec `yaml:"dependencies"`
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

// ErrManifestNotFound is returned when no rift.yml exists in the directory
// chain.
var ErrManifestNotFound = errors.New("rift.yml not found")

// LoadManifest parses rift.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
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

	manifest := &Manifest{
		Path:         absPath,
		Name:         raw.Name,
		Version:      raw.Version,
		Entry:        raw.Entry,
		Dependencies: raw.Dependencies,
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks from dir towards the filesystem root looking for
// rift.yml.
func FindManifest(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(current, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrManifestNotFound
		}
		current = parent
	}
}

// EntryPath resolves the manifest's entry script relative to the manifest
// location.
func (m *Manifest) EntryPath() (string, error) {
	if m.Entry == "" {
		return "", fmt.Errorf("manifest: no entry script defined")
	}
	if filepath.IsAbs(m.Entry) {
		return m.Entry, nil
	}
	return filepath.Join(filepath.Dir(m.Path), m.Entry), nil
}

// DependencyNames returns dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry != "" && !strings.HasSuffix(m.Entry, ".rf") {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must point at a .rf script", m.Entry))
	}
	for name, dep := range m.Dependencies {
		if name == "" {
			errs.Issues = append(errs.Issues, "dependencies must not use empty keys")
			continue
		}
		if dep == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: descriptor must not be empty", name))
			continue
		}
		for _, issue := range dep.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var issues []string
	if d.Git == "" && d.Path == "" {
		issues = append(issues, "requires either git or path")
	}
	if d.Git != "" && d.Path != "" {
		issues = append(issues, "git and path are mutually exclusive")
	}
	pins := 0
	for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
		if pin != "" {
			pins++
		}
	}
	if pins > 1 {
		issues = append(issues, "rev, tag and branch are mutually exclusive")
	}
	if d.Path != "" && pins > 0 {
		issues = append(issues, "path dependencies cannot be pinned")
	}
	return issues
}
