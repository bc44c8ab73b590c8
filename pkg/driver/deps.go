package driver

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// EnsureDependencies materializes the manifest's dependencies under
// cacheDir, one directory per dependency name. Git sources are cloned and
// pinned; path sources are only checked for existence. Returns the names
// that were freshly installed.
func EnsureDependencies(m *Manifest, cacheDir string) ([]string, error) {
	if len(m.Dependencies) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("deps: create cache %s: %w", cacheDir, err)
	}

	var installed []string
	for _, name := range m.DependencyNames() {
		dep := m.Dependencies[name]
		if dep.Path != "" {
			target := dep.Path
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(m.Path), target)
			}
			if _, err := os.Stat(target); err != nil {
				return installed, fmt.Errorf("deps: %s: path dependency %s: %w", name, dep.Path, err)
			}
			continue
		}

		dest := filepath.Join(cacheDir, name)
		if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
			continue // already installed
		}
		if err := cloneDependency(dep, dest); err != nil {
			return installed, fmt.Errorf("deps: %s: %w", name, err)
		}
		installed = append(installed, name)
	}
	return installed, nil
}

func cloneDependency(dep *DependencySpec, dest string) error {
	options := &git.CloneOptions{URL: dep.Git}
	switch {
	case dep.Tag != "":
		options.ReferenceName = plumbing.NewTagReferenceName(dep.Tag)
		options.SingleBranch = true
	case dep.Branch != "":
		options.ReferenceName = plumbing.NewBranchReferenceName(dep.Branch)
		options.SingleBranch = true
	}

	repo, err := git.PlainClone(dest, false, options)
	if err != nil {
		return fmt.Errorf("clone %s: %w", dep.Git, err)
	}

	if dep.Rev != "" {
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree: %w", err)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(dep.Rev)}); err != nil {
			return fmt.Errorf("checkout %s: %w", dep.Rev, err)
		}
	}
	return nil
}
