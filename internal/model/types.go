// Package model defines the domain types for the lpkpack CLI.
//
// These types are passed between the config loader, the packer and the
// CLI layer. None of them are persisted; a Project is rebuilt from the
// working directory (and an optional config file) on every invocation.
package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default extensions used when naming the intermediate archive and the
// final package.
const (
	// ArchiveExt is the extension of the intermediate zip archive. The
	// archive only exists between the write and the rename steps.
	ArchiveExt = ".zip"

	// PackageExt is the default extension of the produced package. The
	// package is a plain zip archive; only the name differs.
	PackageExt = ".lpk"
)

// DefaultIncludes lists the paths, relative to the project directory, that
// are packaged when no config file overrides them. A trailing slash marks
// a directory that is included recursively.
var DefaultIncludes = []string{
	"scripts/",
	"index.cfg",
	"index.xml",
}

// DefaultExcludes lists the patterns that are never packaged. Patterns
// without a slash match a base name at any depth; a trailing slash
// restricts the pattern to directories.
var DefaultExcludes = []string{
	"*.lpk",
	"*.zip",
	"*.ps1",
	".git/",
	".gitignore",
}

// Project describes a single kit directory to package.
//
// It is built by the config package from the working directory and an
// optional .lpkpack config file, and consumed by the pack package.
type Project struct {
	// Dir is the absolute path to the project directory. All include
	// entries are resolved relative to it and both the archive and the
	// package are written into it.
	Dir string

	// Name is the base name of the produced files. By default it is the
	// leaf segment of Dir, case preserved (e.g., "Foo" → "Foo.lpk").
	Name string

	// Extension is the package extension including the leading dot.
	Extension string

	// Includes lists the files and directories to package, relative to Dir.
	Includes []string

	// Excludes lists the exclusion patterns applied while collecting files.
	Excludes []string
}

// NewProject creates a Project for dir using the default name, extension,
// include list and exclude patterns.
func NewProject(dir string) (*Project, error) {
	name, err := DeriveName(dir)
	if err != nil {
		return nil, err
	}

	return &Project{
		Dir:       filepath.Clean(dir),
		Name:      name,
		Extension: PackageExt,
		Includes:  append([]string(nil), DefaultIncludes...),
		Excludes:  append([]string(nil), DefaultExcludes...),
	}, nil
}

// ArchiveName returns the file name of the intermediate zip archive.
func (p *Project) ArchiveName() string {
	return p.Name + ArchiveExt
}

// PackageName returns the file name of the final package.
func (p *Project) PackageName() string {
	return p.Name + p.Extension
}

// ArchivePath returns the absolute path of the intermediate zip archive.
func (p *Project) ArchivePath() string {
	return filepath.Join(p.Dir, p.ArchiveName())
}

// PackagePath returns the absolute path of the final package.
func (p *Project) PackagePath() string {
	return filepath.Join(p.Dir, p.PackageName())
}

// DeriveName returns the leaf segment of dir, which becomes the package
// name. The case of the directory name is preserved.
//
// An error is returned for paths without a usable leaf, such as a
// filesystem root.
func DeriveName(dir string) (string, error) {
	cleaned := filepath.Clean(dir)
	name := filepath.Base(cleaned)

	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("cannot derive a package name from directory %q", dir)
	}

	// On Windows filepath.Base("C:\\") returns "\\", and a bare volume
	// name leaves "C:" behind.
	if filepath.VolumeName(cleaned) == cleaned || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("cannot derive a package name from directory %q", dir)
	}

	return name, nil
}

// ValidateName checks that a package name can be used as a file name in
// the project directory.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid package name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("package name %q must not contain path separators", name)
	}
	return nil
}

// NormalizeExtension adds the leading dot to ext if it is missing.
// An empty extension yields the default package extension.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return PackageExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Entry describes a single file stored in (or about to be stored in)
// a package.
type Entry struct {
	// Path is the slash-separated path relative to the project directory.
	// It is also the name of the entry inside the zip archive.
	Path string

	// Size is the uncompressed size in bytes.
	Size int64

	// Mode is the file mode of the source file.
	Mode os.FileMode

	// ModTime is the modification time recorded in the archive.
	ModTime time.Time
}

// PackResult summarizes a completed build.
type PackResult struct {
	// Package is the absolute path of the produced package.
	Package string

	// Entries lists the packaged files in archive order.
	Entries []Entry

	// Bytes is the size of the produced package on disk.
	Bytes int64
}

// TotalSize returns the sum of the uncompressed sizes of all entries.
func (r *PackResult) TotalSize() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInputNotFound indicates an include entry (scripts/, index.cfg,
	// index.xml or a configured path) does not exist.
	ExitInputNotFound ExitCode = 2

	// ExitArchiveFailed indicates the zip archive could not be written.
	ExitArchiveFailed ExitCode = 3

	// ExitRenameFailed indicates the archive could not be moved onto the
	// package path.
	ExitRenameFailed ExitCode = 4

	// ExitConfigInvalid indicates the project config file could not be
	// parsed or failed validation.
	ExitConfigInvalid ExitCode = 5

	// ExitInvalidPackage indicates a file given to inspect is not a
	// readable package.
	ExitInvalidPackage ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
