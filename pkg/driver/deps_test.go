package driver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initSourceRepo creates a local git repository usable as a dependency
// source and returns its path along with the hash of each commit made.
func initSourceRepo(t *testing.T, commits ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	var hashes []string
	for idx, contents := range commits {
		if err := os.WriteFile(filepath.Join(dir, "mod.rf"), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := worktree.Add("mod.rf"); err != nil {
			t.Fatal(err)
		}
		hash, err := worktree.Commit("commit", &git.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.com",
				When:  time.Now().Add(time.Duration(idx) * time.Second),
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		hashes = append(hashes, hash.String())
	}
	return dir, hashes
}

func projectManifest(t *testing.T, deps map[string]*DependencySpec) *Manifest {
	t.Helper()
	dir := t.TempDir()
	return &Manifest{
		Path:         filepath.Join(dir, ManifestFileName),
		Name:         "project",
		Dependencies: deps,
	}
}

func TestEnsureDependenciesNoDeps(t *testing.T) {
	m := projectManifest(t, nil)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	installed, err := EnsureDependencies(m, cacheDir)
	if err != nil {
		t.Fatalf("EnsureDependencies: %v", err)
	}
	if installed != nil {
		t.Fatalf("installed = %v, want nil", installed)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatal("cache directory should not be created when there is nothing to install")
	}
}

func TestEnsureDependenciesClonesGitSource(t *testing.T) {
	src, _ := initSourceRepo(t, `print("lib");`)
	m := projectManifest(t, map[string]*DependencySpec{
		"lib": {Git: src},
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")

	installed, err := EnsureDependencies(m, cacheDir)
	if err != nil {
		t.Fatalf("EnsureDependencies: %v", err)
	}
	if len(installed) != 1 || installed[0] != "lib" {
		t.Fatalf("installed = %v", installed)
	}

	cloned := filepath.Join(cacheDir, "lib", "mod.rf")
	contents, err := os.ReadFile(cloned)
	if err != nil {
		t.Fatalf("clone missing source file: %v", err)
	}
	if string(contents) != `print("lib");` {
		t.Fatalf("cloned contents = %q", contents)
	}
}

func TestEnsureDependenciesIsIdempotent(t *testing.T) {
	src, _ := initSourceRepo(t, `print("lib");`)
	m := projectManifest(t, map[string]*DependencySpec{
		"lib": {Git: src},
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")

	if _, err := EnsureDependencies(m, cacheDir); err != nil {
		t.Fatal(err)
	}
	installed, err := EnsureDependencies(m, cacheDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(installed) != 0 {
		t.Fatalf("second run reinstalled %v", installed)
	}
}

func TestEnsureDependenciesPinsRevision(t *testing.T) {
	src, hashes := initSourceRepo(t, "first version", "second version")
	m := projectManifest(t, map[string]*DependencySpec{
		"pinned": {Git: src, Rev: hashes[0]},
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")

	if _, err := EnsureDependencies(m, cacheDir); err != nil {
		t.Fatalf("EnsureDependencies: %v", err)
	}
	contents, err := os.ReadFile(filepath.Join(cacheDir, "pinned", "mod.rf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "first version" {
		t.Fatalf("pinned checkout has %q, want the first commit's contents", contents)
	}
}

func TestEnsureDependenciesInstallsInNameOrder(t *testing.T) {
	srcA, _ := initSourceRepo(t, "a")
	srcB, _ := initSourceRepo(t, "b")
	m := projectManifest(t, map[string]*DependencySpec{
		"zeta":  {Git: srcB},
		"alpha": {Git: srcA},
	})
	cacheDir := filepath.Join(t.TempDir(), "cache")

	installed, err := EnsureDependencies(m, cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 2 || installed[0] != "alpha" || installed[1] != "zeta" {
		t.Fatalf("installed = %v, want [alpha zeta]", installed)
	}
}

func TestEnsureDependenciesPathSource(t *testing.T) {
	projectDir := t.TempDir()
	local := filepath.Join(projectDir, "vendor", "local-lib")
	if err := os.MkdirAll(local, 0o755); err != nil {
		t.Fatal(err)
	}
	m := &Manifest{
		Path: filepath.Join(projectDir, ManifestFileName),
		Name: "project",
		Dependencies: map[string]*DependencySpec{
			"local-lib": {Path: filepath.Join("vendor", "local-lib")},
		},
	}

	installed, err := EnsureDependencies(m, filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("EnsureDependencies: %v", err)
	}
	if len(installed) != 0 {
		t.Fatalf("path dependencies are not installed into the cache: %v", installed)
	}
}

func TestEnsureDependenciesMissingPathSource(t *testing.T) {
	m := projectManifest(t, map[string]*DependencySpec{
		"ghost": {Path: "does/not/exist"},
	})
	_, err := EnsureDependencies(m, filepath.Join(t.TempDir(), "cache"))
	if err == nil {
		t.Fatal("expected error for a missing path dependency")
	}
}

func TestEnsureDependenciesCloneFailure(t *testing.T) {
	m := projectManifest(t, map[string]*DependencySpec{
		"broken": {Git: filepath.Join(t.TempDir(), "no-repo-here")},
	})
	_, err := EnsureDependencies(m, filepath.Join(t.TempDir(), "cache"))
	if err == nil {
		t.Fatal("expected clone error for a nonexistent repository")
	}
}
