package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new lumen project",
	Long: `Initialize a new lumen project by creating a project manifest (lumen.toml)
and a starter fullscreen shader under shaders/. If [path|name] is omitted,
initializes the current directory. If a non-existing name is provided, a
directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit writes lumen.toml and the starter shaders into the target
// directory. Existing shader files are left untouched; an existing manifest
// is an error.
func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if st, statErr := os.Stat(target); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return statErr
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	// Determine project name from directory basename
	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "lumen-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err = os.WriteFile(manifestPath, []byte(project.DefaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	files := project.StarterFiles()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	rel := target
	if wd, wdErr := os.Getwd(); wdErr == nil {
		if r, relErr := filepath.Rel(wd, target); relErr == nil {
			rel = r
		}
	}
	fmt.Fprintf(out, "Initialized lumen project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	for _, p := range paths {
		full := filepath.Join(target, "shaders", filepath.FromSlash(p))
		shown := filepath.ToSlash(filepath.Join("shaders", p))
		if _, statErr := os.Stat(full); statErr == nil {
			fmt.Fprintf(out, "  - %s (existing)\n", shown)
			continue
		}
		if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("failed to create %q: %w", filepath.Dir(full), err)
		}
		if err = os.WriteFile(full, []byte(files[p]), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", shown, err)
		}
		fmt.Fprintf(out, "  - %s\n", shown)
	}
	return nil
}
