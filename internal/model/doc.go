// Package model defines the domain types and value objects for the
// lpkpack CLI.
//
// This package contains pure data structures with no external dependencies.
// A Project describes one kit directory to be packaged (its name, the
// include list and the exclude patterns); Entry and PackResult describe
// what ended up inside the produced package.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
