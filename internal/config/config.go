// Package config builds a model.Project for a kit directory.
//
// Without a config file the project uses the built-in defaults: the
// directory leaf as name, ".lpk" as extension, scripts/ + index.cfg +
// index.xml as includes and the default exclusion patterns.
//
// A project may override these with a config file in its root. The first
// existing file from FileNames is used:
//
//	.lpkpack.yaml / .lpkpack.yml    parsed with gopkg.in/yaml.v3
//	.lpkpack.jsonc / .lpkpack.json  cleaned with github.com/tidwall/jsonc,
//	                                then parsed with encoding/json
//
// Unknown keys are rejected in both formats so that typos do not silently
// fall back to defaults.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/heap3d/lpkpack/internal/model"
)

// FileNames lists the recognized config file names in lookup order.
var FileNames = []string{
	".lpkpack.yaml",
	".lpkpack.yml",
	".lpkpack.jsonc",
	".lpkpack.json",
}

// File is the on-disk representation of a project config file.
// Every field is optional.
type File struct {
	// Name overrides the package name derived from the directory.
	Name string `yaml:"name" json:"name"`

	// Extension overrides the package extension. The leading dot is optional.
	Extension string `yaml:"extension" json:"extension"`

	// Include replaces the default include list when non-empty.
	Include []string `yaml:"include" json:"include"`

	// Exclude adds patterns on top of the default exclusions.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Find returns the path of the first config file present in dir.
// The boolean is false when the project has no config file.
func Find(fs afero.Fs, dir string) (string, bool, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		info, err := fs.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			continue
		}
		return p, true, nil
	}
	return "", false, nil
}

// LoadFile reads and parses a single config file. The format is picked
// from the file extension.
func LoadFile(fs afero.Fs, configPath string) (*File, error) {
	data, err := afero.ReadFile(fs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty YAML document decodes to io.EOF; treat it as "no overrides".
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	case ".json", ".jsonc":
		// Strip comments and trailing commas before handing the data
		// to encoding/json.
		clean := jsonc.ToJSON(data)
		if len(bytes.TrimSpace(clean)) == 0 {
			break
		}
		dec := json.NewDecoder(bytes.NewReader(clean))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", configPath)
	}

	return &f, nil
}

// Apply merges the config file values into p and validates the result.
func Apply(p *model.Project, f *File) error {
	if f == nil {
		return nil
	}

	if f.Name != "" {
		if err := model.ValidateName(f.Name); err != nil {
			return err
		}
		p.Name = f.Name
	}

	if f.Extension != "" {
		ext := model.NormalizeExtension(f.Extension)
		if strings.EqualFold(ext, model.ArchiveExt) {
			return fmt.Errorf("extension %q collides with the intermediate archive", ext)
		}
		if strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("extension %q must not contain path separators", ext)
		}
		p.Extension = ext
	}

	if len(f.Include) > 0 {
		includes := make([]string, 0, len(f.Include))
		for _, inc := range f.Include {
			cleaned, err := NormalizeInclude(inc)
			if err != nil {
				return err
			}
			includes = append(includes, cleaned)
		}
		p.Includes = includes
	}

	for _, exc := range f.Exclude {
		if strings.TrimSpace(exc) == "" {
			return fmt.Errorf("exclude patterns must not be empty")
		}
		p.Excludes = append(p.Excludes, exc)
	}

	return nil
}

// NormalizeInclude converts an include entry to a clean slash-separated
// path relative to the project directory. A trailing slash is preserved
// as a directory marker. Absolute paths and paths escaping the project
// are rejected.
func NormalizeInclude(entry string) (string, error) {
	raw := strings.TrimSpace(filepath.ToSlash(entry))
	if raw == "" {
		return "", fmt.Errorf("include entries must not be empty")
	}
	if strings.HasPrefix(raw, "/") || filepath.IsAbs(entry) || filepath.VolumeName(entry) != "" {
		return "", fmt.Errorf("include entry %q must be relative to the project directory", entry)
	}

	dirMarker := strings.HasSuffix(raw, "/")
	cleaned := path.Clean(raw)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("include entry %q escapes the project directory", entry)
	}
	if dirMarker && cleaned != "." {
		cleaned += "/"
	}
	return cleaned, nil
}

// LoadProject builds the project for dir, applying the config file when
// one is present. It returns the path of the config file used, or an
// empty string.
//
// Config file names are always added to the exclusions so that a project
// including "." does not package its own config.
func LoadProject(fs afero.Fs, dir string) (*model.Project, string, error) {
	p, err := model.NewProject(dir)
	if err != nil {
		return nil, "", model.WrapCLIError(model.ExitGeneralError, "invalid project directory", err)
	}

	for _, name := range FileNames {
		p.Excludes = append(p.Excludes, "/"+name)
	}

	configPath, found, err := Find(fs, p.Dir)
	if err != nil {
		return nil, "", model.WrapCLIError(model.ExitConfigInvalid, "failed to look up config file", err)
	}
	if !found {
		log.Debug().Str("dir", p.Dir).Msg("No config file, using defaults")
		return p, "", nil
	}

	f, err := LoadFile(fs, configPath)
	if err != nil {
		return nil, "", model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("invalid config file %s", filepath.Base(configPath)), err)
	}
	if err := Apply(p, f); err != nil {
		return nil, "", model.WrapCLIError(model.ExitConfigInvalid,
			fmt.Sprintf("invalid config file %s", filepath.Base(configPath)), err)
	}

	log.Debug().
		Str("config", configPath).
		Str("name", p.Name).
		Str("extension", p.Extension).
		Strs("include", p.Includes).
		Strs("exclude", p.Excludes).
		Msg("Loaded project config")

	return p, configPath, nil
}
