// Package cli implements the cobra-based CLI commands for lpkpack.
//
// Each subcommand (build, list, inspect) is defined in its own file within
// this package. This file defines the root command, which doubles as the
// build command so that running "lpkpack" with no arguments inside a kit
// directory produces the package.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/heap3d/lpkpack/internal/logging"
	"github.com/heap3d/lpkpack/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbosity is the number of -v flags given: 0 warn, 1 info,
	// 2 debug, 3 trace.
	verbosity int

	// projectDir is the kit directory to operate on. Empty means the
	// current working directory.
	projectDir string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Without a subcommand the root command builds the package for the
// current directory, exactly like "lpkpack build".
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lpkpack",
		Short: "Package a kit directory into an .lpk archive",
		Long: `lpkpack packages the current kit directory into <directory-name>.lpk.

The package is a zip archive containing scripts/, index.cfg and index.xml.
Files matching *.lpk, *.zip, *.ps1, .git/ and .gitignore are never packaged.
An existing package with the same name is replaced.

A .lpkpack.yaml or .lpkpack.jsonc file in the kit directory may override
the package name, the extension, the include list and add exclusions.`,

		// No positional arguments: the kit is always the (working) directory.
		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity, cmd.ErrOrStderr())
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Kit directory (default: current directory)")

	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewInspectCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code carried by the
// returned error, if any.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(int(ExitCodeFor(err)))
	}
}

// ExitCodeFor maps an error to the process exit code. CLIError values
// anywhere in the chain carry their own code; other errors map to
// ExitGeneralError.
func ExitCodeFor(err error) model.ExitCode {
	if err == nil {
		return model.ExitSuccess
	}
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, err error) {
	message := err.Error()
	var underlying error

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		underlying = cliErr.Err
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
			"code":    int(ExitCodeFor(err)),
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		// stdout is reserved for successful command output, so JSON
		// errors go to stderr as well.
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// resolveProjectDir returns the absolute kit directory selected by --dir,
// defaulting to the current working directory.
func resolveProjectDir() (string, error) {
	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to determine current directory", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to resolve directory %s", dir), err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", model.WrapCLIError(model.ExitInputNotFound,
			fmt.Sprintf("directory %s not found", abs), err)
	}
	if !info.IsDir() {
		return "", model.NewCLIError(model.ExitInputNotFound,
			fmt.Sprintf("%s is not a directory", abs))
	}

	return abs, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
