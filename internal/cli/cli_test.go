package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project writes a manifest with two copy assets and returns the manifest
// path and an output folder.
func project(t *testing.T, extra map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"assets.hcl": `
content_root = "content"

asset "a.txt" {
  processor = "copy"
}

asset "b.txt" {
  processor = "copy"
}
`,
		"content/a.txt": "alpha",
		"content/b.txt": "beta",
	}
	for k, v := range extra {
		files[k] = v
	}
	testutil.WriteFiles(t, dir, files)
	return filepath.Join(dir, "assets.hcl"), filepath.Join(dir, "out")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &testutil.SafeBuffer{}
	err := Run(context.Background(), args, out)
	return out.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
	return exitErr
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "assetgrid dev\n", out)
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out, err := run(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "processors")
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"build", "--no-such-flag"}, wantMsg: "unknown flag: --no-such-flag"},
		{name: "bad log format", args: []string{"processors", "--log-format", "xml"}, wantMsg: "invalid log-format"},
		{name: "bad tracker format", args: []string{"status", "--tracker-format", "csv"}, wantMsg: "invalid tracker-format"},
		{name: "bad parameter", args: []string{"status", "--param", "nokey"}, wantMsg: "expected key=value"},
		{name: "bad workers value", args: []string{"build", "-j", "lots"}, wantMsg: "invalid argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tc.args...)

			exitErr := requireExitCode(t, err, 2)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestRun_BuildThenStatus(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifest, outDir := project(t, nil)

	// --- Act ---
	buildOut, err := run(t, "build", manifest, "--output", outDir, "--workers", "2")
	require.NoError(t, err)
	statusOut, err := run(t, "status", manifest, "--output", outDir)
	require.NoError(t, err)
	rebuildOut, err := run(t, "build", manifest, "-o", outDir, "--force")
	require.NoError(t, err)

	// --- Assert ---
	assert.Contains(t, buildOut, "built 2, skipped 0, failed 0")
	assert.Equal(t, "alpha", testutil.ReadFile(t, filepath.Join(outDir, "a.txt")))
	assert.Contains(t, statusOut, "0 of 2 asset(s) out of date")
	assert.Contains(t, statusOut, "fresh")
	assert.Contains(t, rebuildOut, "built 2, skipped 0")
}

func TestRun_BuildFailureExitCode(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifest, outDir := project(t, map[string]string{
		"more.hcl": `asset "gone.txt" { processor = "copy" }`,
	})

	// --- Act ---
	out, err := run(t, "build", filepath.Dir(manifest), "--output", outDir)

	// --- Assert ---
	exitErr := requireExitCode(t, err, 1)
	assert.Contains(t, exitErr.Message, "1 asset(s) failed")
	assert.Contains(t, out, "built 2, skipped 0, failed 1")
}

func TestRun_Validate(t *testing.T) {
	t.Parallel()

	manifest, _ := project(t, nil)
	out, err := run(t, "validate", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "manifest is valid")

	broken, _ := project(t, map[string]string{
		"assets.hcl": `asset "a.txt" {
  processor = "copy"
  parameters {
    colour = "red"
  }
}`,
	})
	out, err = run(t, "validate", broken)
	exitErr := requireExitCode(t, err, 1)
	assert.Equal(t, "manifest has 1 problem(s)", exitErr.Message)
	assert.Contains(t, out, "a.txt: processor 'copy' has no parameter 'colour'")
}

func TestRun_PruneAndClean(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifest, outDir := project(t, nil)
	_, err := run(t, "build", manifest, "-o", outDir)
	require.NoError(t, err)
	testutil.WriteFiles(t, filepath.Dir(manifest), map[string]string{
		"assets.hcl": "content_root = \"content\"\n\nasset \"a.txt\" {\n  processor = \"copy\"\n}\n",
	})

	// --- Act ---
	pruneOut, err := run(t, "prune", manifest, "-o", outDir, "--remove-outputs")
	require.NoError(t, err)
	cleanOut, err := run(t, "clean", manifest, "-o", outDir)
	require.NoError(t, err)

	// --- Assert ---
	assert.Contains(t, pruneOut, "pruned b.txt")
	assert.Contains(t, pruneOut, "1 asset(s) pruned")
	assert.Contains(t, cleanOut, "1 file(s) removed")
	assert.NoFileExists(t, filepath.Join(outDir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(outDir, "b.txt"))
}

func TestRun_Processors(t *testing.T) {
	t.Parallel()

	out, err := run(t, "processors")

	require.NoError(t, err)
	for _, name := range []string{"atlas", "copy", "font", "script", "texture"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "nearest|bilinear|catmullrom")
}
