package copy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		rename string
		want   string
	}{
		{name: "same path", want: "docs/readme.txt"},
		{name: "renamed", rename: "README", want: "README"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			content, out := t.TempDir(), t.TempDir()
			testutil.WriteFiles(t, content, map[string]string{"docs/readme.txt": "hello"})
			a, err := asset.New("docs/readme.txt", "copy")
			require.NoError(t, err)
			if tc.rename != "" {
				a.BaseParameters.Set("rename", params.String(tc.rename))
			}
			h := testutil.NewProcessorHarness(a, content, out)

			// --- Act ---
			err = Processor{}.Process(context.Background(), h.Context)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, "hello", testutil.ReadFile(t, filepath.Join(out, filepath.FromSlash(tc.want))))
			assert.Equal(t, []string{"docs/readme.txt"}, h.Deps.Inputs())
			assert.Equal(t, []string{tc.want}, h.Deps.Outputs())
		})
	}
}

func TestProcess_MissingSource(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a, err := asset.New("missing.txt", "copy")
	require.NoError(t, err)
	h := testutil.NewProcessorHarness(a, t.TempDir(), t.TempDir())

	// --- Act ---
	err = Processor{}.Process(context.Background(), h.Context)

	// --- Assert ---
	require.Error(t, err)
	assert.Empty(t, h.Deps.Outputs())
}
