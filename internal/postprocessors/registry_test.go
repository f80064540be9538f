package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/postprocessors/chunker"
)

type namedProcessor struct {
	name string
}

func (m *namedProcessor) Name() string { return m.name }

func (m *namedProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	return chunks, nil
}

func namedBuilder(name string) BuilderFunc {
	return func(_ map[string]any) (driven.PostProcessor, error) {
		return &namedProcessor{name: name}, nil
	}
}

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry()
	r.Register("label", func(cfg map[string]any) (driven.PostProcessor, error) {
		name, _ := cfg["name"].(string)
		return &namedProcessor{name: name}, nil
	})

	proc, err := r.Build("label", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
}

func TestRegistry_Build_Unknown(t *testing.T) {
	_, err := NewRegistry().Build("stemmer", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_Build_WrapsBuilderError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register("broken", func(map[string]any) (driven.PostProcessor, error) {
		return nil, boom
	})

	_, err := r.Build("broken", nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "build broken")
}

func TestRegistry_Register_Replaces(t *testing.T) {
	r := NewRegistry()
	r.Register("p", namedBuilder("first"))
	r.Register("p", namedBuilder("second"))

	proc, err := r.Build("p", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", proc.Name())
	assert.Equal(t, []string{"p"}, r.Names())
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())

	r.Register("beta", namedBuilder("beta"))
	r.Register("alpha", namedBuilder("alpha"))
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRegistry_BuildPipeline(t *testing.T) {
	r := NewRegistry()
	r.Register("a", namedBuilder("a"))
	r.Register("b", namedBuilder("b"))

	p, err := r.BuildPipeline(Stage{Name: "a"}, Stage{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestRegistry_BuildPipeline_Errors(t *testing.T) {
	r := NewRegistry()
	r.Register("a", namedBuilder("a"))

	_, err := r.BuildPipeline()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.BuildPipeline(Stage{Name: "a"}, Stage{Name: "missing"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, []string{chunker.Name}, r.Names())
}

func TestChunkerStage_Builds(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	stage := ChunkerStage(domain.ChunkerSettings{Size: 500, Overlap: 100})
	proc, err := r.Build(stage.Name, stage.Config)
	require.NoError(t, err)

	c, ok := proc.(*chunker.Processor)
	require.True(t, ok)
	assert.Equal(t, 500, c.Size())
	assert.Equal(t, 100, c.Overlap())
}

func TestBuildChunker_DecodedNumbers(t *testing.T) {
	proc, err := buildChunker(map[string]any{"chunk_size": int64(300), "overlap": float64(30)})
	require.NoError(t, err)

	c := proc.(*chunker.Processor)
	assert.Equal(t, 300, c.Size())
	assert.Equal(t, 30, c.Overlap())
}

func TestBuildChunker_NilConfigUsesDefaults(t *testing.T) {
	proc, err := buildChunker(nil)
	require.NoError(t, err)

	c := proc.(*chunker.Processor)
	assert.Equal(t, chunker.DefaultChunkSize, c.Size())
	assert.Equal(t, chunker.DefaultChunkOverlap, c.Overlap())
}

func TestBuildChunker_InvalidConfig(t *testing.T) {
	_, err := buildChunker(map[string]any{"chunk_size": 50, "overlap": 80})
	assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
}

func TestLookupInt(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want int
		ok   bool
	}{
		{"int", map[string]any{"n": 100}, 100, true},
		{"int64", map[string]any{"n": int64(200)}, 200, true},
		{"float64", map[string]any{"n": float64(300)}, 300, true},
		{"string", map[string]any{"n": "400"}, 0, false},
		{"missing", map[string]any{"other": 1}, 0, false},
		{"nil map", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookupInt(tt.cfg, "n")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
