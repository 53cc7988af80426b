package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depLog struct {
	mu      sync.Mutex
	inputs  []string
	outputs []string
}

func (d *depLog) AddInputDependency(_, file string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs = append(d.inputs, file)
	return nil
}

func (d *depLog) AddOutputDependency(_, file string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs = append(d.outputs, file)
	return nil
}

type messages struct{ got []buildlog.Message }

func (m *messages) OnMessage(msg buildlog.Message)   { m.got = append(m.got, msg) }
func (m *messages) OnStatus(buildlog.StatusChange) {}

func newTestContext(t *testing.T) (*Context, *depLog, *messages) {
	t.Helper()
	root := t.TempDir()
	a, err := asset.New("textures/stone.png", "texture")
	require.NoError(t, err)
	a.BaseParameters.Set("max_size", params.Int(64))

	bus := buildlog.New()
	msgs := &messages{}
	bus.Subscribe(msgs)
	deps := &depLog{}
	set, err := a.ResolvedParameters("")
	require.NoError(t, err)
	pc := NewContext(a, "", filepath.Join(root, "content"), filepath.Join(root, "out"), set, bus, deps)
	return pc, deps, msgs
}

func TestContext_Paths(t *testing.T) {
	t.Parallel()
	pc, _, _ := newTestContext(t)

	assert.Equal(t, filepath.Join(pc.ContentFolder, "textures", "stone.png"), pc.SourcePath())
	assert.Equal(t, filepath.Join(pc.OutputFolder, "textures", "stone.mip1.png"), pc.OutputPath("textures/stone.mip1.png"))
	assert.Equal(t, "textures/stone", pc.Stem())
	assert.Equal(t, "textures/detail.png", pc.SiblingPath("detail.png"))
}

func TestContext_ParametersAreACopy(t *testing.T) {
	t.Parallel()
	pc, _, _ := newTestContext(t)

	pc.Parameters.Set("max_size", params.Int(1))

	assert.Equal(t, int64(64), pc.Asset.BaseParameters.GetInt("max_size", 0))
}

func TestContext_LogCountsWarnings(t *testing.T) {
	t.Parallel()
	pc, _, msgs := newTestContext(t)

	pc.Infof("resized to %d", 32)
	pc.Warnf("not a power of two")
	pc.Verbosef("detail")
	pc.Warnf("again")

	assert.Equal(t, 2, pc.Warnings())
	require.Len(t, msgs.got, 4)
	assert.Equal(t, buildlog.Message{Level: buildlog.Info, Text: "resized to 32", Asset: "textures/stone.png"}, msgs.got[0])
}

func TestContext_Dependencies(t *testing.T) {
	t.Parallel()
	pc, deps, _ := newTestContext(t)

	require.NoError(t, pc.AddInputDependency("textures/stone.png"))
	require.NoError(t, pc.AddInputDependency(pc.ContentPath("textures/detail.png")))
	require.NoError(t, pc.AddOutputDependency("textures/stone.png"))

	assert.Equal(t, []string{"textures/stone.png", "textures/detail.png"}, deps.inputs)
	assert.Equal(t, []string{"textures/stone.png"}, deps.outputs)

	assert.Error(t, pc.AddInputDependency("../secret.txt"))
	assert.Error(t, pc.AddOutputDependency(filepath.Join(pc.OutputFolder, "..", "escape.png")))
}

func TestContext_WriteOutputAndReadInput(t *testing.T) {
	t.Parallel()
	pc, deps, _ := newTestContext(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(pc.SourcePath()), 0755))
	require.NoError(t, os.WriteFile(pc.SourcePath(), []byte("pixels"), 0644))

	data, err := pc.ReadInput(pc.Asset.Path)
	require.NoError(t, err)
	require.NoError(t, pc.WriteOutput("textures/stone.bin", data))

	got, err := os.ReadFile(pc.OutputPath("textures/stone.bin"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(got))
	assert.Equal(t, []string{"textures/stone.png"}, deps.inputs)
	assert.Equal(t, []string{"textures/stone.bin"}, deps.outputs)
}

func TestContext_EscapingPathsAreNotTouched(t *testing.T) {
	t.Parallel()
	pc, deps, _ := newTestContext(t)

	err := pc.WriteOutput("../stray.bin", []byte("x"))
	require.Error(t, err)
	_, err = pc.ReadInput("../../etc/hosts")
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(filepath.Dir(pc.OutputFolder), "stray.bin"))
	assert.Empty(t, deps.inputs)
	assert.Empty(t, deps.outputs)
}

func TestContext_NilCollaborators(t *testing.T) {
	t.Parallel()
	a, err := asset.New("a.txt", "copy")
	require.NoError(t, err)
	pc := NewContext(a, "", t.TempDir(), t.TempDir(), a.BaseParameters, nil, nil)

	assert.NotPanics(t, func() { pc.Warnf("x") })
	assert.NoError(t, pc.AddInputDependency("a.txt"))
	assert.Equal(t, 1, pc.Warnings())
}

func TestError_MatchesSentinel(t *testing.T) {
	t.Parallel()
	cause := errors.New("bad header")
	var err error = &Error{Asset: "a.png", Processor: "texture", Err: cause}
	wrapped := fmt.Errorf("build: %w", err)

	assert.ErrorIs(t, wrapped, ErrProcessorFailure)
	assert.ErrorIs(t, wrapped, cause)
	var perr *Error
	require.ErrorAs(t, wrapped, &perr)
	assert.Equal(t, "texture", perr.Processor)
	assert.Equal(t, "processor 'texture' failed on asset 'a.png': bad header", err.Error())
}

var textureDetails = Details{
	Name: "texture",
	Parameters: []Parameter{
		{Name: "max_size", Kind: params.KindInt, Default: params.Int(0)},
		{Name: "scale", Kind: params.KindFloat, Default: params.Float(1)},
		{Name: "mipmaps", Kind: params.KindBool, Default: params.Bool(false)},
		{Name: "filter", Kind: params.KindEnum, Default: params.Enum("bilinear"), Options: []string{"nearest", "bilinear"}},
		{Name: "label", Kind: params.KindString},
	},
}

func TestValidateParameters(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		set     map[string]params.Value
		wantErr []string
	}{
		{
			name: "all valid",
			set: map[string]params.Value{
				"max_size": params.String("1024"),
				"scale":    params.String("0.5"),
				"mipmaps":  params.String("true"),
				"filter":   params.String("nearest"),
				"label":    params.Int(3),
			},
		},
		{
			name:    "unknown name",
			set:     map[string]params.Value{"format": params.String("etc2")},
			wantErr: []string{"processor 'texture' has no parameter 'format'"},
		},
		{
			name:    "fractional int",
			set:     map[string]params.Value{"max_size": params.Float(1.5)},
			wantErr: []string{"parameter 'max_size': '1.5' is not a whole number"},
		},
		{
			name:    "not a number",
			set:     map[string]params.Value{"scale": params.String("big")},
			wantErr: []string{"parameter 'scale': 'big' is not a number"},
		},
		{
			name:    "not a bool",
			set:     map[string]params.Value{"mipmaps": params.String("maybe")},
			wantErr: []string{"parameter 'mipmaps': 'maybe' is not a bool"},
		},
		{
			name:    "enum outside options",
			set:     map[string]params.Value{"filter": params.Enum("lanczos")},
			wantErr: []string{"parameter 'filter': 'lanczos' is not one of [nearest bilinear]"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			set := params.NewSet()
			for k, v := range tc.set {
				set.Set(k, v)
			}

			errs := ValidateParameters(textureDetails, set)

			var got []string
			for _, err := range errs {
				got = append(got, err.Error())
			}
			assert.Equal(t, tc.wantErr, got)
		})
	}
}

func TestDetails_Defaults(t *testing.T) {
	t.Parallel()

	d := textureDetails.Defaults()

	assert.Equal(t, []string{"max_size", "scale", "mipmaps", "filter", "label"}, d.Keys())
	assert.Equal(t, "bilinear", d.GetString("filter", ""))
	_, ok := textureDetails.Parameter("nope")
	assert.False(t, ok)
}

func TestValidateParameters_ExtraParameters(t *testing.T) {
	t.Parallel()

	d := textureDetails
	d.ExtraParameters = true
	set := params.NewSet()
	set.Set("prefix", params.String("level:"))
	set.Set("mipmaps", params.String("maybe"))

	errs := ValidateParameters(d, set)

	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "parameter 'mipmaps': 'maybe' is not a bool")
}
