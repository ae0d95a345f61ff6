// Package cli — list.go implements the "lpkpack list" command.
//
// The list command is a dry run of build: it loads the project, collects
// the files that would be packaged and prints them as a text table or a
// JSON document. Nothing is written to disk.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/heap3d/lpkpack/internal/config"
	"github.com/heap3d/lpkpack/internal/kit"
	"github.com/heap3d/lpkpack/internal/model"
	"github.com/heap3d/lpkpack/internal/pack"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the files that would be packaged",
		Long: `List the files build would put into the package, without writing anything.

Examples:
  lpkpack list
  lpkpack list --dir ~/kits/h3d_utilities
  lpkpack list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
}

// runList is the main logic function for the list command.
func runList(cmd *cobra.Command) error {
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()

	proj, _, err := config.LoadProject(fs, dir)
	if err != nil {
		return err
	}

	entries, err := pack.NewPacker(fs).Collect(cmd.Context(), proj)
	if err != nil {
		return err
	}

	return printListResult(cmd.OutOrStdout(), proj, entries)
}

// listEntryJSON is the JSON output structure for a single file.
type listEntryJSON struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// listResultJSON is the JSON output structure of the list command.
type listResultJSON struct {
	Package string          `json:"package"`
	Files   []listEntryJSON `json:"files"`
	Bytes   int64           `json:"bytes"`
}

// printListResult outputs the collected files in text or JSON format,
// depending on the global --json flag.
func printListResult(w io.Writer, proj *model.Project, entries []model.Entry) error {
	if IsJSONOutput() {
		out := listResultJSON{
			Package: proj.PackageName(),
			// Use an empty slice instead of nil so the JSON shows []
			// instead of null when nothing would be packaged.
			Files: make([]listEntryJSON, 0, len(entries)),
		}
		for _, e := range entries {
			out.Files = append(out.Files, listEntryJSON{Path: e.Path, Size: e.Size})
			out.Bytes += e.Size
		}
		return writeJSON(w, out)
	}

	printEntriesText(w, entries)
	total := (&model.PackResult{Entries: entries}).TotalSize()
	_, err := fmt.Fprintf(w, "%s, %s -> %s\n", pluralize(len(entries), "file"), FormatSize(total), proj.PackageName())
	return err
}

// printEntriesText prints entries as an aligned two-column table.
//
//	SIZE      PATH
//	1.2 KiB   index.cfg
//	312 B     scripts/h3d_utils.py
func printEntriesText(w io.Writer, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No files to package.")
		return
	}

	fmt.Fprintf(w, "%-10s%s\n", "SIZE", "PATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%-10s%s\n", FormatSize(e.Size), e.Path)
	}
}

// FormatSize renders a byte count with a binary unit suffix.
//
//	512  → "512 B"
//	1536 → "1.5 KiB"
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatKit renders kit metadata as a single line, or "" when nothing
// is known about the kit.
//
//	{Name: "h3d_utilities", Version: "1.4", Author: "me"} → "h3d_utilities 1.4 by me"
func FormatKit(k kit.Kit) string {
	parts := make([]string, 0, 4)
	if k.Name != "" {
		parts = append(parts, k.Name)
	}
	if k.Version != "" {
		parts = append(parts, k.Version)
	}
	if k.Author != "" {
		parts = append(parts, "by "+k.Author)
	}
	return strings.Join(parts, " ")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
