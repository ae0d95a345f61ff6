// Package rules implements the exclusion patterns applied while collecting
// files for a package.
//
// Patterns follow a small subset of gitignore syntax:
//   - "*.lpk" (no slash) matches the base name of any path component,
//     at any depth
//   - ".git/" (trailing slash) matches directories only; everything below
//     a matched directory is excluded with it
//   - "scripts/tmp/*.py" (inner slash) is matched against the whole
//     slash-separated relative path
//
// Matching uses path.Match glob syntax.
package rules
