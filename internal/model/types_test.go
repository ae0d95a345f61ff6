package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeriveName verifies that the package name is the leaf of the
// working directory with its case preserved.
func TestDeriveName(t *testing.T) {
	tests := []struct {
		name     string
		dir      string
		expected string
		hasError bool
	}{
		{"simple leaf", filepath.Join("work", "Foo"), "Foo", false},
		{"case preserved", filepath.Join("work", "h3d_Utilities"), "h3d_Utilities", false},
		{"trailing separator", filepath.Join("work", "Foo") + string(filepath.Separator), "Foo", false},
		{"dots in name", filepath.Join("work", "kit.v2"), "kit.v2", false},
		{"root directory", string(filepath.Separator), "", true},
		{"dot", ".", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveName(tt.dir)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestNewProject checks the defaults applied to a freshly created project.
func TestNewProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Foo")

	p, err := NewProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "Foo", p.Name)
	assert.Equal(t, ".lpk", p.Extension)
	assert.Equal(t, DefaultIncludes, p.Includes)
	assert.Equal(t, DefaultExcludes, p.Excludes)

	assert.Equal(t, "Foo.zip", p.ArchiveName())
	assert.Equal(t, "Foo.lpk", p.PackageName())
	assert.Equal(t, filepath.Join(dir, "Foo.zip"), p.ArchivePath())
	assert.Equal(t, filepath.Join(dir, "Foo.lpk"), p.PackagePath())
}

// TestNewProject_CopiesDefaults makes sure that mutating a project's lists
// does not leak into the package-level defaults.
func TestNewProject_CopiesDefaults(t *testing.T) {
	p, err := NewProject(filepath.Join(t.TempDir(), "Foo"))
	require.NoError(t, err)

	p.Excludes = append(p.Excludes[:0], "*.tmp")
	p.Includes[0] = "other/"

	assert.Equal(t, "*.lpk", DefaultExcludes[0])
	assert.Equal(t, "scripts/", DefaultIncludes[0])
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input    string
		hasError bool
	}{
		{"Foo", false},
		{"my-kit_1.0", false},
		{"", true},
		{".", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, ".lpk", NormalizeExtension(""))
	assert.Equal(t, ".lpk", NormalizeExtension("lpk"))
	assert.Equal(t, ".lpk", NormalizeExtension(".lpk"))
	assert.Equal(t, ".kit", NormalizeExtension(" kit "))
}

func TestPackResult_TotalSize(t *testing.T) {
	r := &PackResult{Entries: []Entry{
		{Path: "index.cfg", Size: 10},
		{Path: "scripts/a.py", Size: 32},
	}}
	assert.Equal(t, int64(42), r.TotalSize())
	assert.Equal(t, int64(0), (&PackResult{}).TotalSize())
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitInputNotFound, "scripts/ not found")
		assert.Equal(t, ExitInputNotFound, err.Code)
		assert.Equal(t, "scripts/ not found", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitRenameFailed, "failed to rename archive", inner)
		assert.Equal(t, ExitRenameFailed, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.Is chain", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitRenameFailed, "failed to rename archive", inner)
		assert.True(t, errors.Is(err, inner))
	})
}
