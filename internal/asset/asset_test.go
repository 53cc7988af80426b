package asset

import (
	"errors"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTexture(t *testing.T) *Asset {
	t.Helper()
	a, err := New("textures/stone.png", "texture")
	require.NoError(t, err)
	a.BaseParameters.Set("format", params.Enum("png"))
	a.BaseParameters.Set("max_size", params.Int(2048))

	android := params.NewSet()
	android.Set("format", params.Enum("etc2"))
	a.AddBundle(&Bundle{Name: "android", OverrideParameters: android})
	return a
}

func TestAsset_Name(t *testing.T) {
	t.Parallel()
	a := newTexture(t)
	assert.Equal(t, "stone.png", a.Name())
}

func TestAsset_ResolvedParameters(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	a := newTexture(t)

	// --- Act ---
	base, err := a.ResolvedParameters("")
	require.NoError(t, err)
	android, err := a.ResolvedParameters("android")
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, "png", base.GetString("format", ""))
	assert.Equal(t, "etc2", android.GetString("format", ""))
	assert.EqualValues(t, 2048, android.GetInt("max_size", 0))
	assert.Equal(t, "png", a.BaseParameters.GetString("format", ""), "resolving must not mutate the base set")
}

func TestAsset_ResolvedParametersUnknownBundle(t *testing.T) {
	t.Parallel()

	a := newTexture(t)
	_, err := a.ResolvedParameters("ios")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBundle))

	_, err = a.Fingerprint("ios")
	assert.ErrorIs(t, err, ErrUnknownBundle)
}

func TestAsset_FingerprintTracksParameters(t *testing.T) {
	t.Parallel()

	a := newTexture(t)
	base, err := a.Fingerprint("")
	require.NoError(t, err)
	again, err := a.Fingerprint("")
	require.NoError(t, err)
	android, err := a.Fingerprint("android")
	require.NoError(t, err)

	assert.Equal(t, base, again)
	assert.NotEqual(t, base, android)

	a.BaseParameters.Set("max_size", params.Int(1024))
	changed, err := a.Fingerprint("")
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestAsset_FingerprintTracksProcessor(t *testing.T) {
	t.Parallel()

	a := newTexture(t)
	before, err := a.Fingerprint("")
	require.NoError(t, err)
	a.ProcessorName = "copy"
	after, err := a.Fingerprint("")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "textures/stone.png", want: "textures/stone.png"},
		{in: "./textures//stone.png", want: "textures/stone.png"},
		{in: "textures/../ui/icon.png", want: "ui/icon.png"},
		{in: "café.png", want: "café.png"},
		{in: "../outside.png", wantErr: true},
		{in: "/abs/path.png", wantErr: true},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePath(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestManifest_RejectsDuplicatePaths(t *testing.T) {
	t.Parallel()

	m := NewManifest("content")
	a, err := New("a.png", "copy")
	require.NoError(t, err)
	dup, err := New("./a.png", "texture")
	require.NoError(t, err)

	require.NoError(t, m.Add(a))
	require.Error(t, m.Add(dup))

	found, ok := m.Lookup("a.png")
	require.True(t, ok)
	assert.Same(t, a, found)
	assert.Equal(t, 1, m.Len())
}
