// Package pack builds .lpk packages from a kit project directory.
//
// A build runs three strictly sequential steps:
//   - Collect walks the include list and drops everything matched by the
//     exclusion rules
//   - WriteArchive writes the collected files into <name>.zip
//   - Finalize moves <name>.zip onto <name>.lpk, replacing any previous package
//
// All filesystem access goes through an afero.Fs. The CLI uses the OS
// filesystem; tests use an in-memory one. Zip encoding uses
// github.com/klauspost/compress/zip, a drop-in replacement for archive/zip
// with a faster Deflate implementation.
package pack
