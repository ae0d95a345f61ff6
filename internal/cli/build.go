// Package cli — build.go implements the "lpkpack build" command, which is
// also what the bare "lpkpack" invocation runs.
//
// Orchestration steps:
//  1. Resolve the kit directory and load the project (config file optional)
//  2. Collect the included files, dropping excluded ones
//  3. Write <name>.zip
//  4. Move <name>.zip onto <name>.lpk, replacing an existing package
//  5. Output results (text or JSON)
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/heap3d/lpkpack/internal/config"
	"github.com/heap3d/lpkpack/internal/kit"
	"github.com/heap3d/lpkpack/internal/model"
	"github.com/heap3d/lpkpack/internal/pack"
)

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build <directory-name>.lpk from the kit directory",
		Long: `Build the package for the kit directory.

Examples:
  lpkpack
  lpkpack build
  lpkpack build --dir ~/kits/h3d_utilities
  lpkpack build --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd)
		},
	}
}

// runBuild is the main logic function for the build command.
func runBuild(cmd *cobra.Command) error {
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()

	proj, configPath, err := config.LoadProject(fs, dir)
	if err != nil {
		return err
	}
	if configPath != "" {
		log.Info().Str("config", configPath).Msg("Using project config")
	}

	// Kit metadata is informational; problems never fail the build.
	meta, metaErr := kit.Read(fs, proj.Dir)
	if metaErr != nil {
		log.Warn().Err(metaErr).Msg("Kit metadata incomplete")
	}

	result, err := pack.NewPacker(fs).Build(cmd.Context(), proj)
	if err != nil {
		return err
	}

	return printBuildResult(cmd.OutOrStdout(), proj, result, meta)
}

// buildResultJSON is the JSON output structure of the build command.
type buildResultJSON struct {
	Package string   `json:"package"`
	Files   []string `json:"files"`
	Bytes   int64    `json:"bytes"`
	Kit     *kit.Kit `json:"kit,omitempty"`
}

// printBuildResult outputs the build result in text or JSON format,
// depending on the global --json flag.
func printBuildResult(w io.Writer, proj *model.Project, result *model.PackResult, meta kit.Kit) error {
	if IsJSONOutput() {
		out := buildResultJSON{
			Package: result.Package,
			Files:   make([]string, 0, len(result.Entries)),
			Bytes:   result.Bytes,
		}
		for _, e := range result.Entries {
			out.Files = append(out.Files, e.Path)
		}
		if !meta.IsZero() {
			out.Kit = &meta
		}
		return writeJSON(w, out)
	}

	if _, err := fmt.Fprintf(w, "Created %s (%s, %s)\n",
		proj.PackageName(), pluralize(len(result.Entries), "file"), FormatSize(result.Bytes)); err != nil {
		return err
	}
	if line := FormatKit(meta); line != "" {
		fmt.Fprintf(w, "Kit: %s\n", line)
	}
	return nil
}
