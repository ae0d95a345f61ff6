// Package cli — cli_test.go drives the cobra commands end to end against
// real temporary kit directories.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heap3d/lpkpack/internal/model"
)

// setupKitDir creates <tmp>/<name> populated with a small kit, including
// files that must never be packaged. Returns the kit directory.
func setupKitDir(t *testing.T, name string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	files := map[string]string{
		"index.cfg":            `<configuration kit="foo" version="1.0"/>`,
		"index.xml":            `<package><name>Foo</name><author>Kit Author</author></package>`,
		"scripts/h3d_utils.py": "print('utils')\n",
		"scripts/sub/deep.py":  "print('deep')\n",
		"scripts/old.lpk":      "old",
		"scripts/backup.zip":   "old",
		"setup.ps1":            "Compress-Archive\n",
		".gitignore":           "*.lpk\n",
		".git/HEAD":            "ref: refs/heads/main\n",
	}
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// TestRoot_NoArgsBuildsWorkingDirectory runs the bare command from inside
// the kit directory, the way the packaging step is normally invoked.
func TestRoot_NoArgsBuildsWorkingDirectory(t *testing.T) {
	dir := setupKitDir(t, "Foo")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	stdout, _, err := executeCommand(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Created Foo.lpk (4 files,")
	assert.Contains(t, stdout, "Kit: foo 1.0 by Kit Author")

	_, err = os.Stat(filepath.Join(dir, "Foo.lpk"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "Foo.zip"))
	assert.True(t, os.IsNotExist(err), "intermediate archive must be consumed")
}

func TestBuild_JSON(t *testing.T) {
	dir := setupKitDir(t, "Foo")

	stdout, _, err := executeCommand(t, "build", "--json", "--dir", dir)
	require.NoError(t, err)

	var out buildResultJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, filepath.Join(dir, "Foo.lpk"), out.Package)
	assert.Equal(t, []string{"index.cfg", "index.xml", "scripts/h3d_utils.py", "scripts/sub/deep.py"}, out.Files)
	assert.Greater(t, out.Bytes, int64(0))
	require.NotNil(t, out.Kit)
	assert.Equal(t, "foo", out.Kit.Name)
}

// TestBuild_MissingScripts verifies the exit code mapping for missing inputs.
func TestBuild_MissingScripts(t *testing.T) {
	dir := setupKitDir(t, "Foo")
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "scripts")))

	_, _, err := executeCommand(t, "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, model.ExitInputNotFound, ExitCodeFor(err))
}

// TestBuild_ConfigOverrides verifies a project config file is honored.
func TestBuild_ConfigOverrides(t *testing.T) {
	dir := setupKitDir(t, "Foo")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lpkpack.yaml"),
		[]byte("name: custom\nextension: kit\nexclude:\n  - sub/\n"), 0o644))

	stdout, _, err := executeCommand(t, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created custom.kit (3 files,")

	_, err = os.Stat(filepath.Join(dir, "custom.kit"))
	assert.NoError(t, err)
}

// TestList_DryRun verifies list prints the file set without writing.
func TestList_DryRun(t *testing.T) {
	dir := setupKitDir(t, "Foo")

	stdout, _, err := executeCommand(t, "list", "--dir", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "scripts/h3d_utils.py")
	assert.Contains(t, stdout, "4 files")
	assert.Contains(t, stdout, "-> Foo.lpk")
	assert.NotContains(t, stdout, "setup.ps1")
	assert.NotContains(t, stdout, "old.lpk")

	_, err = os.Stat(filepath.Join(dir, "Foo.lpk"))
	assert.True(t, os.IsNotExist(err), "list must not create the package")
}

func TestList_JSON(t *testing.T) {
	dir := setupKitDir(t, "Foo")

	stdout, _, err := executeCommand(t, "list", "--json", "--dir", dir)
	require.NoError(t, err)

	var out listResultJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "Foo.lpk", out.Package)
	assert.Len(t, out.Files, 4)
}

// TestInspect_BuiltPackage builds a package and inspects it.
func TestInspect_BuiltPackage(t *testing.T) {
	dir := setupKitDir(t, "Foo")

	_, _, err := executeCommand(t, "--dir", dir)
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "inspect", filepath.Join(dir, "Foo.lpk"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Kit: foo 1.0 by Kit Author")
	assert.Contains(t, stdout, "scripts/sub/deep.py")
}

func TestInspect_NotAPackage(t *testing.T) {
	dir := setupKitDir(t, "Foo")

	_, _, err := executeCommand(t, "inspect", filepath.Join(dir, "setup.ps1"))
	require.Error(t, err)
	assert.Equal(t, model.ExitInvalidPackage, ExitCodeFor(err))
}

func TestRoot_RejectsArguments(t *testing.T) {
	_, _, err := executeCommand(t, "unexpected")
	assert.Error(t, err)
}

func TestRoot_MissingDirectory(t *testing.T) {
	_, _, err := executeCommand(t, "--dir", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, model.ExitInputNotFound, ExitCodeFor(err))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, model.ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, model.ExitGeneralError, ExitCodeFor(errors.New("boom")))
	assert.Equal(t, model.ExitRenameFailed,
		ExitCodeFor(model.NewCLIError(model.ExitRenameFailed, "rename failed")))

	// CLIError wrapped by another layer still carries its code.
	wrapped := errors.Join(errors.New("context"), model.NewCLIError(model.ExitConfigInvalid, "bad config"))
	assert.Equal(t, model.ExitConfigInvalid, ExitCodeFor(wrapped))
}

func TestPrintError(t *testing.T) {
	orig := jsonOutput
	t.Cleanup(func() { jsonOutput = orig })

	err := model.WrapCLIError(model.ExitInputNotFound, "include entry \"scripts/\" not found", os.ErrNotExist)

	t.Run("text", func(t *testing.T) {
		jsonOutput = false
		var buf bytes.Buffer
		printError(&buf, err)
		assert.Equal(t, "Error: include entry \"scripts/\" not found: file does not exist\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		jsonOutput = true
		var buf bytes.Buffer
		printError(&buf, err)

		var out struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
				Detail  string `json:"detail"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, 2, out.Error.Code)
		assert.Equal(t, "file does not exist", out.Error.Detail)
	})
}
