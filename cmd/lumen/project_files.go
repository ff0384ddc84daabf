package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lumen/internal/program"
	"lumen/internal/project"
)

// projectContext is what a command knows about the shaders it works on.
type projectContext struct {
	// manifest is nil when the command runs outside a project.
	manifest *project.Manifest
	root     string
	specs    []program.Spec
}

func addSpecFlags(cmd *cobra.Command) {
	cmd.Flags().String("vertex", "", "vertex entry file (ad-hoc program, ignores lumen.toml programs)")
	cmd.Flags().String("fragment", "", "fragment entry file (ad-hoc program)")
	cmd.Flags().String("compute", "", "compute entry file (ad-hoc program)")
}

// loadProject resolves the source root and the programs named in args.
// Ad-hoc --vertex/--fragment/--compute flags take precedence over the
// manifest's programs; with neither, every manifest program is selected.
func loadProject(cmd *cobra.Command, args []string) (*projectContext, error) {
	rootFlag, err := cmd.Root().PersistentFlags().GetString("root")
	if err != nil {
		return nil, fmt.Errorf("failed to get root flag: %w", err)
	}

	pc := &projectContext{}
	m, err := project.Load(".")
	switch {
	case err == nil:
		pc.manifest = m
		pc.root = m.SourceRoot()
	case errors.Is(err, project.ErrNoManifest):
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		pc.root = wd
	default:
		return nil, err
	}
	if rootFlag != "" {
		abs, absErr := filepath.Abs(rootFlag)
		if absErr != nil {
			return nil, absErr
		}
		pc.root = abs
	}

	adhoc, ok, err := adhocSpec(cmd)
	if err != nil {
		return nil, err
	}
	if ok {
		pc.specs = []program.Spec{adhoc}
		return pc, nil
	}
	if pc.manifest == nil {
		if len(args) > 0 {
			return nil, fmt.Errorf("program %q requested but %s", args[0], project.ErrNoManifest)
		}
		return pc, nil
	}
	if len(args) == 0 {
		pc.specs = pc.manifest.Specs()
		return pc, nil
	}
	for _, name := range args {
		spec, found := pc.manifest.Program(name)
		if !found {
			return nil, fmt.Errorf("%s: no program named %q", pc.manifest.Path, name)
		}
		pc.specs = append(pc.specs, spec)
	}
	return pc, nil
}

func adhocSpec(cmd *cobra.Command) (program.Spec, bool, error) {
	if cmd.Flags().Lookup("vertex") == nil {
		return program.Spec{}, false, nil
	}
	vertex, err := cmd.Flags().GetString("vertex")
	if err != nil {
		return program.Spec{}, false, err
	}
	fragment, err := cmd.Flags().GetString("fragment")
	if err != nil {
		return program.Spec{}, false, err
	}
	compute, err := cmd.Flags().GetString("compute")
	if err != nil {
		return program.Spec{}, false, err
	}
	if vertex == "" && fragment == "" && compute == "" {
		return program.Spec{}, false, nil
	}
	spec := program.Spec{Name: "adhoc", Vertex: vertex, Fragment: fragment, Compute: compute}
	if err := spec.Validate(); err != nil {
		return program.Spec{}, false, err
	}
	return spec, true, nil
}

func (pc *projectContext) requireSpecs() error {
	if len(pc.specs) > 0 {
		return nil
	}
	if pc.manifest == nil {
		return fmt.Errorf("%w\nor pass --vertex/--fragment or --compute", project.ErrNoManifest)
	}
	return fmt.Errorf("%s: no programs selected", pc.manifest.Path)
}

func (pc *projectContext) names() []string {
	out := make([]string, len(pc.specs))
	for i, s := range pc.specs {
		out[i] = s.Name
	}
	return out
}
