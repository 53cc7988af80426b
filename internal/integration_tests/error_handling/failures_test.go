package error_handling

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/cli"
	"github.com/specialistvlad/assetgrid/internal/integration_tests/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
content_root = "content"

asset "a.txt" {
  processor = "copy"
}

asset "broken.lua.txt" {
  processor = "script"
  parameters {
    script = "tools/broken.lua"
  }
}

asset "c.txt" {
  processor = "copy"
}
`

func newProject(t *testing.T) *harness.Project {
	t.Helper()
	return harness.NewProject(t, map[string]string{
		"assets.hcl":               manifest,
		"content/a.txt":            "a",
		"content/broken.lua.txt":   "input",
		"content/tools/broken.lua": `error("cannot convert " .. source())`,
		"content/c.txt":            "c",
	})
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

// TestFailure_IsIsolated verifies a failing asset does not stop the others.
func TestFailure_IsIsolated(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)

	// --- Act ---
	res := p.Run("build")

	// --- Assert ---
	assert.Equal(t, 1, exitCode(t, res.Err))
	assert.Contains(t, res.Output, "built 2, skipped 0, failed 1")
	assert.Contains(t, res.Output, "cannot convert broken.lua.txt")
	assert.Equal(t, "a", p.Output("a.txt"))
	assert.Equal(t, "c", p.Output("c.txt"))
}

// TestFailure_IsRetriedUntilFixed verifies a failed asset is not recorded as
// fresh and builds once its script is repaired.
func TestFailure_IsRetriedUntilFixed(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)
	first := p.Run("build")
	require.Error(t, first.Err)
	second := p.Run("build")
	require.Error(t, second.Err)

	p.Write(map[string]string{"content/tools/broken.lua": `write(source(), read(source()))`})

	// --- Act ---
	fixed := p.Run("build")

	// --- Assert ---
	assert.Contains(t, second.Output, "built 0, skipped 2, failed 1")
	require.NoError(t, fixed.Err, fixed.Output)
	assert.Contains(t, fixed.Output, "built 1, skipped 2, failed 0")
	assert.Equal(t, "input", p.Output("broken.lua.txt"))
}

// TestFailure_FailFastStopsStartingAssets verifies assets queued after the
// first failure are left unstarted.
func TestFailure_FailFastStopsStartingAssets(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)

	// --- Act ---
	res := p.Run("build", "--fail-fast", "--workers", "1")

	// --- Assert ---
	assert.Equal(t, 1, exitCode(t, res.Err))
	assert.Contains(t, res.Output, "built 1, skipped 0, failed 1, warnings 0, aborted 1")
	assert.Equal(t, "a", p.Output("a.txt"))
	assert.NoFileExists(t, filepath.Join(p.OutDir, "c.txt"))
}

// TestFailure_InvalidManifest verifies manifest errors fail the command
// before any asset runs.
func TestFailure_InvalidManifest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		hcl     string
		wantErr string
	}{
		{name: "syntax error", hcl: `asset "a.txt" {`, wantErr: "failed to load manifest"},
		{name: "duplicate asset", hcl: "asset \"a.txt\" {\n  processor = \"copy\"\n}\nasset \"./a.txt\" {\n  processor = \"copy\"\n}\n", wantErr: "a.txt"},
		{name: "escaping path", hcl: "asset \"../a.txt\" {\n  processor = \"copy\"\n}\n", wantErr: "escapes the content root"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := harness.NewProject(t, map[string]string{"assets.hcl": tc.hcl})

			res := p.Run("build")

			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), tc.wantErr)
			assert.NoFileExists(t, filepath.Join(p.OutDir, "a.txt"))
		})
	}
}
