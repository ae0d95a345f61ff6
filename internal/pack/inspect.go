package pack

import (
	"fmt"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/heap3d/lpkpack/internal/kit"
	"github.com/heap3d/lpkpack/internal/model"
)

// Inspection describes the contents of an existing package.
type Inspection struct {
	// Path is the package path as given by the caller.
	Path string

	// Bytes is the package size on disk.
	Bytes int64

	// Entries lists the archive entries in archive order. Directory
	// entries written by other tools are included.
	Entries []model.Entry

	// Kit holds the metadata read from index.cfg / index.xml inside the
	// package. KitErr reports why some of it could not be read.
	Kit    kit.Kit
	KitErr error
}

// Inspect opens the package at path and lists its contents.
func (p *Packer) Inspect(path string) (*Inspection, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitInputNotFound,
				fmt.Sprintf("package %s not found", path), err)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return nil, model.NewCLIError(model.ExitInvalidPackage,
			fmt.Sprintf("%s is a directory, not a package", path))
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidPackage,
			fmt.Sprintf("%s is not a valid package", path), err)
	}

	result := &Inspection{
		Path:    path,
		Bytes:   info.Size(),
		Entries: make([]model.Entry, 0, len(zr.File)),
	}
	for _, zf := range zr.File {
		result.Entries = append(result.Entries, model.Entry{
			Path:    zf.Name,
			Size:    int64(zf.UncompressedSize64),
			Mode:    zf.Mode(),
			ModTime: zf.Modified,
		})
	}

	result.Kit, result.KitErr = kit.ReadArchive(zr)

	p.log.Debug().Str("package", path).Int("entries", len(result.Entries)).Msg("Package inspected")
	return result, nil
}
