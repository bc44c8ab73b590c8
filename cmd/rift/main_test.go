package main

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func writeScript(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunDispatch(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want int
	}{
		{"help flag", []string{"--help"}, 0},
		{"help command", []string{"help"}, 0},
		{"version flag", []string{"--version"}, 0},
		{"version command", []string{"version"}, 0},
		{"unknown command", []string{"frobnicate"}, 2},
		{"run without file or manifest", []string{"run", "a.rf", "b.rf"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.args); got != tc.want {
				t.Fatalf("run(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	path := writeScript(t, "ok.rf", `print(1 + 1);`)
	if got := run([]string{"run", path}); got != 0 {
		t.Fatalf("exit = %d, want 0", got)
	}
}

func TestBareScriptArgument(t *testing.T) {
	path := writeScript(t, "ok.rf", `let x = 2;`)
	if got := run([]string{path}); got != 0 {
		t.Fatalf("exit = %d, want 0", got)
	}
}

func TestRunScriptWithRuntimeError(t *testing.T) {
	path := writeScript(t, "bad.rf", `print(1 / 0);`)
	if got := run([]string{"run", path}); got != 1 {
		t.Fatalf("exit = %d, want 1", got)
	}
}

func TestRunScriptWithStaticError(t *testing.T) {
	path := writeScript(t, "bad.rf", `return 1;`)
	if got := run([]string{"run", path}); got != 1 {
		t.Fatalf("exit = %d, want 1", got)
	}
}

func TestRunMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.rf")
	if got := run([]string{"run", missing}); got != 1 {
		t.Fatalf("exit = %d, want 1", got)
	}
}

func TestRunUsesManifestEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rift.yml"), []byte("name: demo\nentry: main.rf\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.rf"), []byte(`let greeting = "hi";`), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if got := run([]string{"run"}); got != 0 {
		t.Fatalf("exit = %d, want 0", got)
	}
}

func TestRunWithoutFileOrManifest(t *testing.T) {
	chdir(t, t.TempDir())
	if got := run([]string{"run"}); got != 2 {
		t.Fatalf("exit = %d, want 2", got)
	}
}

func TestDepsWithoutManifest(t *testing.T) {
	chdir(t, t.TempDir())
	if got := run([]string{"deps"}); got != 1 {
		t.Fatalf("exit = %d, want 1", got)
	}
}

func TestDepsUpToDate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rift.yml"), []byte("name: demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if got := run([]string{"deps"}); got != 0 {
		t.Fatalf("exit = %d, want 0", got)
	}
}

func TestDepsRejectsArguments(t *testing.T) {
	if got := run([]string{"deps", "extra"}); got != 2 {
		t.Fatalf("exit = %d, want 2", got)
	}
}
