package pack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/heap3d/lpkpack/internal/logging"
	"github.com/heap3d/lpkpack/internal/model"
	"github.com/heap3d/lpkpack/internal/rules"
)

// Packer builds packages on a filesystem.
type Packer struct {
	fs  afero.Fs
	log zerolog.Logger
}

// NewPacker creates a Packer operating on fs.
func NewPacker(fs afero.Fs) *Packer {
	return &Packer{
		fs:  fs,
		log: logging.Get("pack"),
	}
}

// Build packages the project: collect, write the archive, rename it onto
// the package path. Each step starts only after the previous one finished.
func (p *Packer) Build(ctx context.Context, proj *model.Project) (*model.PackResult, error) {
	entries, err := p.Collect(ctx, proj)
	if err != nil {
		return nil, err
	}

	if err := p.WriteArchive(ctx, proj, entries); err != nil {
		return nil, err
	}

	if err := p.Finalize(proj); err != nil {
		return nil, err
	}

	result := &model.PackResult{
		Package: proj.PackagePath(),
		Entries: entries,
	}
	if info, err := p.fs.Stat(result.Package); err == nil {
		result.Bytes = info.Size()
	}

	p.log.Info().
		Str("package", result.Package).
		Int("files", len(entries)).
		Int64("bytes", result.Bytes).
		Msg("Package created")

	return result, nil
}

// Collect returns the files to package, sorted by path.
//
// Every include entry must exist. Directories are walked recursively;
// excluded directories are pruned together with their contents. Only
// regular files are packaged. A symlinked include entry is followed;
// symlinks met inside a walked directory are skipped.
//
// The project's own archive and package are never collected, whatever the
// extension. They are compared by name rather than compiled into rules, so
// a directory leaf such as "kit[1]" cannot turn into a glob.
func (p *Packer) Collect(ctx context.Context, proj *model.Project) ([]model.Entry, error) {
	matcher, err := rules.Compile(proj.Excludes)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigInvalid, "invalid exclude pattern", err)
	}

	seen := make(map[string]model.Entry)

	for _, inc := range proj.Includes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.collectInclude(ctx, proj, matcher, inc, seen); err != nil {
			return nil, err
		}
	}

	entries := make([]model.Entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	p.log.Debug().Int("files", len(entries)).Msg("Collected files")
	return entries, nil
}

// collectInclude adds the files reachable from a single include entry.
func (p *Packer) collectInclude(ctx context.Context, proj *model.Project, matcher *rules.Matcher, inc string, seen map[string]model.Entry) error {
	slashed := filepath.ToSlash(inc)
	wantDir := strings.HasSuffix(slashed, "/")
	rel := strings.TrimSuffix(slashed, "/")
	if rel == "" {
		rel = "."
	}
	root := filepath.Join(proj.Dir, filepath.FromSlash(rel))

	info, err := p.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return model.WrapCLIError(model.ExitInputNotFound,
				fmt.Sprintf("include entry %q not found in %s", inc, proj.Dir), err)
		}
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to stat include entry %q", inc), err)
	}
	if wantDir && !info.IsDir() {
		return model.NewCLIError(model.ExitInputNotFound,
			fmt.Sprintf("include entry %q is not a directory", inc))
	}

	if r, ok := matcher.Match(rel, info.IsDir()); ok {
		p.log.Debug().Str("path", rel).Str("pattern", r.Pattern).Msg("Include entry excluded")
		return nil
	}

	if !info.IsDir() {
		if isOwnOutput(proj, rel) {
			return nil
		}
		p.add(seen, rel, info)
		return nil
	}

	// afero.Walk lstats its root. With a trailing separator the link is
	// resolved, so the walk descends into the target directory.
	walkRoot := root
	if li, err := p.lstat(root); err == nil && li.Mode()&os.ModeSymlink != 0 {
		walkRoot = root + string(filepath.Separator)
	}

	return afero.Walk(p.fs, walkRoot, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == walkRoot {
			return nil
		}

		relPath, err := filepath.Rel(proj.Dir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if r, ok := matcher.Match(relPath, fi.IsDir()); ok {
			p.log.Trace().Str("path", relPath).Str("pattern", r.Pattern).Msg("Excluded")
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() || isOwnOutput(proj, relPath) {
			return nil
		}

		p.add(seen, relPath, fi)
		return nil
	})
}

// isOwnOutput reports whether rel is the project's archive or package.
func isOwnOutput(proj *model.Project, rel string) bool {
	return rel == proj.ArchiveName() || rel == proj.PackageName()
}

// add records a regular file; anything else is skipped with a log line.
func (p *Packer) add(seen map[string]model.Entry, rel string, fi os.FileInfo) {
	if !fi.Mode().IsRegular() {
		p.log.Warn().Str("path", rel).Str("mode", fi.Mode().String()).Msg("Skipping non-regular file")
		return
	}
	p.log.Trace().Str("path", rel).Int64("size", fi.Size()).Msg("Collected")
	seen[rel] = model.Entry{
		Path:    rel,
		Size:    fi.Size(),
		Mode:    fi.Mode(),
		ModTime: fi.ModTime(),
	}
}

// lstat does not follow symlinks when the filesystem supports it.
func (p *Packer) lstat(name string) (os.FileInfo, error) {
	if l, ok := p.fs.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(name)
		return fi, err
	}
	return p.fs.Stat(name)
}

// WriteArchive writes entries into the project's intermediate zip archive,
// truncating any archive left over from a previous run. A partially
// written archive is removed on failure.
func (p *Packer) WriteArchive(ctx context.Context, proj *model.Project, entries []model.Entry) (err error) {
	archivePath := proj.ArchivePath()

	f, err := p.fs.OpenFile(archivePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return model.WrapCLIError(model.ExitArchiveFailed,
			fmt.Sprintf("failed to create %s", proj.ArchiveName()), err)
	}

	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := p.fs.Remove(archivePath); rmErr != nil && !os.IsNotExist(rmErr) {
				p.log.Warn().Err(rmErr).Str("archive", archivePath).Msg("Failed to remove partial archive")
			}
		}
	}()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = p.writeEntry(zw, proj, e); err != nil {
			return model.WrapCLIError(model.ExitArchiveFailed,
				fmt.Sprintf("failed to add %s to %s", e.Path, proj.ArchiveName()), err)
		}
	}

	if err = zw.Close(); err != nil {
		return model.WrapCLIError(model.ExitArchiveFailed,
			fmt.Sprintf("failed to finish %s", proj.ArchiveName()), err)
	}
	if err = f.Close(); err != nil {
		return model.WrapCLIError(model.ExitArchiveFailed,
			fmt.Sprintf("failed to close %s", proj.ArchiveName()), err)
	}

	p.log.Debug().Str("archive", archivePath).Int("files", len(entries)).Msg("Archive written")
	return nil
}

func (p *Packer) writeEntry(zw *zip.Writer, proj *model.Project, e model.Entry) error {
	src, err := p.fs.Open(filepath.Join(proj.Dir, filepath.FromSlash(e.Path)))
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	hdr := &zip.FileHeader{
		Name:     e.Path,
		Method:   zip.Deflate,
		Modified: e.ModTime,
	}
	hdr.SetMode(e.Mode)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// Finalize moves the intermediate archive onto the package path. An
// existing package is replaced. When the filesystem refuses to rename
// over an existing file, the old package is removed and the rename is
// retried once.
func (p *Packer) Finalize(proj *model.Project) error {
	archivePath := proj.ArchivePath()
	packagePath := proj.PackagePath()

	err := p.fs.Rename(archivePath, packagePath)
	if err == nil {
		return nil
	}

	if _, statErr := p.fs.Stat(packagePath); statErr == nil {
		p.log.Debug().Err(err).Str("package", packagePath).Msg("Rename refused, replacing existing package")
		if rmErr := p.fs.Remove(packagePath); rmErr != nil {
			return model.WrapCLIError(model.ExitRenameFailed,
				fmt.Sprintf("failed to replace %s", proj.PackageName()), rmErr)
		}
		err = p.fs.Rename(archivePath, packagePath)
		if err == nil {
			return nil
		}
	}

	return model.WrapCLIError(model.ExitRenameFailed,
		fmt.Sprintf("failed to rename %s to %s", proj.ArchiveName(), proj.PackageName()), err)
}
