package incremental_builds

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/assetgrid/internal/integration_tests/harness"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
content_root = "content"

asset "textures/stone.png" {
  processor = "texture"
  parameters {
    max_size = 8
  }
  bundle "mobile" {
    parameters {
      max_size = 4
    }
  }
}

asset "docs/readme.txt" {
  processor = "copy"
}
`

func newProject(t *testing.T) *harness.Project {
	t.Helper()
	return harness.NewProject(t, map[string]string{
		"assets.hcl":                 manifest,
		"content/textures/stone.png": harness.PNG(t, 16, 16, color.NRGBA{R: 120, G: 120, B: 120, A: 255}),
		"content/docs/readme.txt":    "read me",
	})
}

// TestBuild_SkipsFreshAssets verifies that an unchanged project is not
// rebuilt on the second run.
func TestBuild_SkipsFreshAssets(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)

	// --- Act ---
	first := p.Run("build")
	second := p.Run("build")

	// --- Assert ---
	require.NoError(t, first.Err, first.Output)
	assert.Contains(t, first.Output, "built 2, skipped 0, failed 0")
	assert.Equal(t, image.Pt(8, 8), p.OutputImage("textures/stone.png").Bounds().Size())
	assert.Equal(t, "read me", p.Output("docs/readme.txt"))

	require.NoError(t, second.Err, second.Output)
	assert.Contains(t, second.Output, "built 0, skipped 2, failed 0")
}

// TestBuild_RebuildTriggers verifies each reason an asset goes stale and that
// only the affected asset is rebuilt.
func TestBuild_RebuildTriggers(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		change func(t *testing.T, p *harness.Project)
	}{
		{
			name: "source modified",
			change: func(t *testing.T, p *harness.Project) {
				testutil.Touch(t, p.Path("content/textures/stone.png"), time.Now().Add(time.Hour))
			},
		},
		{
			name: "parameter changed",
			change: func(t *testing.T, p *harness.Project) {
				p.Write(map[string]string{"assets.hcl": `
content_root = "content"

asset "textures/stone.png" {
  processor = "texture"
  parameters {
    max_size = 2
  }
}

asset "docs/readme.txt" {
  processor = "copy"
}
`})
			},
		},
		{
			name: "output deleted",
			change: func(t *testing.T, p *harness.Project) {
				require.NoError(t, os.Remove(filepath.Join(p.OutDir, "textures", "stone.png")))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			p := newProject(t)
			require.NoError(t, p.Run("build").Err)
			tc.change(t, p)

			// --- Act ---
			res := p.Run("build")

			// --- Assert ---
			require.NoError(t, res.Err, res.Output)
			assert.Contains(t, res.Output, "built 1, skipped 1, failed 0")
		})
	}
}

// TestBuild_PlatformSelectsBundle verifies that bundles are keyed into the
// fingerprint, so switching platforms rebuilds with the bundle parameters.
func TestBuild_PlatformSelectsBundle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)
	require.NoError(t, p.Run("build").Err)

	// --- Act ---
	mobile := p.Run("build", "--platform", "mobile")
	again := p.Run("build", "--platform", "mobile")

	// --- Assert ---
	require.NoError(t, mobile.Err, mobile.Output)
	assert.Contains(t, mobile.Output, "built 1, skipped 1")
	assert.Equal(t, image.Pt(4, 4), p.OutputImage("textures/stone.png").Bounds().Size())
	assert.Contains(t, again.Output, "built 0, skipped 2")
}

// TestStatus_ReportsReasons verifies the dry run names why assets are stale.
func TestStatus_ReportsReasons(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newProject(t)
	before := p.Run("status")
	require.NoError(t, p.Run("build").Err)
	testutil.Touch(t, p.Path("content/docs/readme.txt"), time.Now().Add(time.Hour))

	// --- Act ---
	after := p.Run("status")

	// --- Assert ---
	require.NoError(t, before.Err)
	assert.Contains(t, before.Output, "2 of 2 asset(s) out of date")
	assert.Contains(t, before.Output, "untracked")

	require.NoError(t, after.Err)
	assert.Contains(t, after.Output, "1 of 2 asset(s) out of date")
	assert.Contains(t, after.Output, "input-newer")
}
