package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct{ details processor.Details }

func (s *stubProcessor) Describe() processor.Details { return s.details }

func (s *stubProcessor) Process(context.Context, *processor.Context) error { return nil }

type stubModule struct{ names []string }

func (m *stubModule) Register(r *Registry) {
	for _, n := range m.names {
		r.RegisterProcessor(&stubProcessor{details: processor.Details{Name: n}})
	}
}

func TestRegistry_LookupAndNames(t *testing.T) {
	t.Parallel()

	r := NewWithModules(&stubModule{names: []string{"texture", "copy"}}, &stubModule{names: []string{"atlas"}})

	p, err := r.Lookup("copy")
	require.NoError(t, err)
	assert.Equal(t, "copy", p.Describe().Name)
	assert.Equal(t, []string{"atlas", "copy", "texture"}, r.Names())
	assert.Len(t, r.Details(), 3)

	_, err = r.Lookup("mesh")
	assert.ErrorIs(t, err, ErrUnknownProcessor)
	assert.EqualError(t, err, "unknown processor 'mesh'")
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterProcessor(&stubProcessor{details: processor.Details{Name: "copy"}})

	assert.PanicsWithValue(t, "processor with name 'copy' already registered", func() {
		r.RegisterProcessor(&stubProcessor{details: processor.Details{Name: "copy"}})
	})
	assert.Panics(t, func() { r.RegisterProcessor(&stubProcessor{}) })
}

func TestValidateRegistry(t *testing.T) {
	t.Parallel()

	t.Run("consistent", func(t *testing.T) {
		r := New()
		r.RegisterProcessor(&stubProcessor{details: processor.Details{
			Name: "texture",
			Parameters: []processor.Parameter{
				{Name: "max_size", Description: "d", Kind: params.KindInt, Default: params.Int(0)},
				{Name: "filter", Description: "d", Kind: params.KindEnum, Default: params.Enum("nearest"), Options: []string{"nearest"}},
			},
		}})
		assert.NoError(t, r.ValidateRegistry(context.Background()))
	})

	t.Run("inconsistent", func(t *testing.T) {
		r := New()
		r.RegisterProcessor(&stubProcessor{details: processor.Details{
			Name: "texture",
			Parameters: []processor.Parameter{
				{Name: "max_size", Kind: params.KindInt, Default: params.Float(0.5)},
				{Name: "max_size", Kind: params.KindInt, Default: params.Int(1)},
				{Name: "filter", Kind: params.KindEnum, Default: params.Enum("x")},
			},
		}})

		err := r.ValidateRegistry(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameter 'max_size' declared twice")
		assert.Contains(t, err.Error(), "enum parameter 'filter' has no options")
		assert.Contains(t, err.Error(), "default parameter 'filter'")
	})
}
