// Package kit reads the kit metadata stored in a project's index files.
//
// Two files describe a kit:
//
//	index.cfg  <configuration kit="name" version="1.0"> ... </configuration>
//	index.xml  <package><name/><version/><author/><description/></package>
//
// Metadata is informational only. Callers log read errors as warnings and
// keep going; a package is built even when neither file parses.
package kit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
)

// File names of the kit index files inside a project (and inside a package).
const (
	ConfigFile   = "index.cfg"
	ManifestFile = "index.xml"
)

// Kit holds the metadata found in index.cfg and index.xml.
type Kit struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsZero reports whether no metadata was found.
func (k Kit) IsZero() bool {
	return k == Kit{}
}

// merge fills the empty fields of k from other.
func (k Kit) merge(other Kit) Kit {
	if k.Name == "" {
		k.Name = other.Name
	}
	if k.Version == "" {
		k.Version = other.Version
	}
	if k.Author == "" {
		k.Author = other.Author
	}
	if k.Description == "" {
		k.Description = other.Description
	}
	return k
}

// ParseConfig extracts the kit name and version from index.cfg content.
func ParseConfig(data []byte) (Kit, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Kit{}, fmt.Errorf("%s: %w", ConfigFile, err)
	}

	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "configuration") {
		return Kit{}, fmt.Errorf("%s: missing <configuration> root element", ConfigFile)
	}

	return Kit{
		Name:    strings.TrimSpace(root.SelectAttrValue("kit", "")),
		Version: strings.TrimSpace(root.SelectAttrValue("version", "")),
	}, nil
}

// ParseManifest extracts kit metadata from index.xml content. Element
// names are matched case-insensitively; attributes on the root element
// are used when the matching child element is absent.
func ParseManifest(data []byte) (Kit, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return Kit{}, fmt.Errorf("%s: %w", ManifestFile, err)
	}

	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "package") {
		return Kit{}, fmt.Errorf("%s: missing <package> root element", ManifestFile)
	}

	return Kit{
		Name:        field(root, "name"),
		Version:     field(root, "version"),
		Author:      field(root, "author"),
		Description: field(root, "description"),
	}, nil
}

// field returns the trimmed text of the first child named key, falling
// back to an attribute of the same name.
func field(root *etree.Element, key string) string {
	for _, child := range root.ChildElements() {
		if strings.EqualFold(child.Tag, key) {
			return strings.TrimSpace(child.Text())
		}
	}
	for _, attr := range root.Attr {
		if strings.EqualFold(attr.Key, key) {
			return strings.TrimSpace(attr.Value)
		}
	}
	return ""
}

// Read loads the kit metadata of the project in dir. index.cfg takes
// precedence; index.xml fills in whatever index.cfg leaves empty.
//
// The returned error joins every problem encountered. The Kit is still
// populated from whichever file could be read.
func Read(fs afero.Fs, dir string) (Kit, error) {
	return read(func(name string) ([]byte, error) {
		return afero.ReadFile(fs, filepath.Join(dir, name))
	})
}

// ReadArchive loads the kit metadata from the index files stored at the
// root of a package.
func ReadArchive(r *zip.Reader) (Kit, error) {
	return read(func(name string) ([]byte, error) {
		for _, zf := range r.File {
			if zf.Name != name {
				continue
			}
			rc, err := zf.Open()
			if err != nil {
				return nil, err
			}
			defer func() { _ = rc.Close() }()
			return io.ReadAll(rc)
		}
		return nil, os.ErrNotExist
	})
}

func read(readFile func(name string) ([]byte, error)) (Kit, error) {
	var (
		result Kit
		errs   []error
	)

	parsers := []struct {
		name  string
		parse func([]byte) (Kit, error)
	}{
		{ConfigFile, ParseConfig},
		{ManifestFile, ParseManifest},
	}

	for _, p := range parsers {
		data, err := readFile(p.name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("%s not found", p.name))
			} else {
				errs = append(errs, fmt.Errorf("failed to read %s: %w", p.name, err))
			}
			continue
		}
		k, err := p.parse(data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = result.merge(k)
	}

	return result, errors.Join(errs...)
}
