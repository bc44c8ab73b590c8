// Command rift runs Rift scripts, hosts the interactive REPL, and installs
// project dependencies declared in rift.yml.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jmahotiedu/rift/pkg/driver"
)

const (
	appName     = "rift"
	toolVersion = "rift 0.1.0"
	historyFile = ".rift_history"
	promptMain  = "> "
	promptCont  = "... "
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return cmdRepl()
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return 0
	case "-V", "--version", "version":
		fmt.Fprintln(os.Stdout, toolVersion)
		return 0
	case "run":
		return cmdRun(args[1:])
	case "repl":
		return cmdRepl()
	case "deps":
		return cmdDeps(args[1:])
	default:
		if strings.HasSuffix(args[0], ".rf") {
			return cmdRun(args)
		}
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, args[0])
		printUsage(os.Stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  %s                      Start the REPL.
  %s run [file.rf]        Run a script (defaults to the rift.yml entry).
  %s repl                 Start the REPL.
  %s deps                 Install dependencies declared in rift.yml.
  %s version              Print the version.
`, appName, appName, appName, appName, appName)
}

//-----------------------------------------------------------------------------
// run
//-----------------------------------------------------------------------------

func cmdRun(args []string) int {
	var path string
	switch len(args) {
	case 0:
		manifestPath, err := driver.FindManifest(".")
		if err != nil {
			if errors.Is(err, driver.ErrManifestNotFound) {
				fmt.Fprintf(os.Stderr, "%s run requires a source file (no rift.yml found)\n", appName)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			}
			return 2
		}
		manifest, err := driver.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
		path, err = manifest.EntryPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			return 1
		}
	case 1:
		path = args[0]
	default:
		fmt.Fprintf(os.Stderr, "usage: %s run [file.rf]\n", appName)
		return 2
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}

	diags := driver.Run(string(source), os.Stdout, os.Stdin)
	for _, d := range diags {
		fmt.Fprint(os.Stderr, driver.RenderSnippet(d, string(source)))
	}
	if len(diags) > 0 {
		return 1
	}
	return 0
}

//-----------------------------------------------------------------------------
// deps
//-----------------------------------------------------------------------------

func cmdDeps(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "usage: %s deps\n", appName)
		return 2
	}
	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	cacheDir := filepath.Join(filepath.Dir(manifestPath), ".rift", "deps")
	installed, err := driver.EnsureDependencies(manifest, cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	for _, name := range installed {
		fmt.Printf("installed %s\n", name)
	}
	if len(installed) == 0 {
		fmt.Println("dependencies up to date")
	}
	return 0
}

//-----------------------------------------------------------------------------
// repl
//-----------------------------------------------------------------------------

func cmdRepl() int {
	fmt.Printf("Rift %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.\n", toolVersion)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	session := driver.NewSession(os.Stdout, os.Stdin)

	for {
		source, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(source)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		// The REPL reports diagnostics and keeps going; only the file
		// runner treats them as fatal.
		for _, d := range session.Execute(source) {
			fmt.Fprint(os.Stderr, driver.RenderSnippet(d, source))
		}
		ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))
	}
}

// readInput gathers lines until the buffer stops looking like a truncated
// program, so multi-line declarations can be typed naturally.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		source := b.String()
		if !driver.IsIncomplete(source) {
			return source, true
		}
	}
}
