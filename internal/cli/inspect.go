// Package cli — inspect.go implements the "lpkpack inspect" command, which
// lists the contents of an existing package together with the kit
// metadata stored inside it.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/heap3d/lpkpack/internal/kit"
	"github.com/heap3d/lpkpack/internal/pack"
)

// NewInspectCommand creates the "inspect" cobra command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <package>",
		Short: "Show the contents of an existing package",
		Long: `Show the files and kit metadata of an existing package.

Examples:
  lpkpack inspect h3d_utilities.lpk
  lpkpack inspect --json h3d_utilities.lpk`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	insp, err := pack.NewPacker(afero.NewOsFs()).Inspect(path)
	if err != nil {
		return err
	}
	if insp.KitErr != nil {
		log.Warn().Err(insp.KitErr).Str("package", path).Msg("Kit metadata incomplete")
	}

	return printInspectResult(cmd.OutOrStdout(), insp)
}

// inspectResultJSON is the JSON output structure of the inspect command.
type inspectResultJSON struct {
	Package string          `json:"package"`
	Bytes   int64           `json:"bytes"`
	Kit     *kit.Kit        `json:"kit,omitempty"`
	Files   []listEntryJSON `json:"files"`
}

func printInspectResult(w io.Writer, insp *pack.Inspection) error {
	if IsJSONOutput() {
		out := inspectResultJSON{
			Package: insp.Path,
			Bytes:   insp.Bytes,
			Files:   make([]listEntryJSON, 0, len(insp.Entries)),
		}
		if !insp.Kit.IsZero() {
			k := insp.Kit
			out.Kit = &k
		}
		for _, e := range insp.Entries {
			out.Files = append(out.Files, listEntryJSON{Path: e.Path, Size: e.Size})
		}
		return writeJSON(w, out)
	}

	if _, err := fmt.Fprintf(w, "Package: %s (%s)\n", insp.Path, FormatSize(insp.Bytes)); err != nil {
		return err
	}
	if line := FormatKit(insp.Kit); line != "" {
		fmt.Fprintf(w, "Kit: %s\n", line)
	}
	if insp.Kit.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", insp.Kit.Description)
	}
	fmt.Fprintln(w)
	printEntriesText(w, insp.Entries)
	return nil
}
