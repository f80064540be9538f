package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"", ModeNormal, false},
		{"normal", ModeNormal, false},
		{"ELI5", ModeELI5, false},
		{" compare ", ModeCompare, false},
		{"summary", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestMode_IsValid(t *testing.T) {
	for _, m := range AllModes() {
		assert.True(t, m.IsValid(), m.String())
		assert.NotEqual(t, unknownDescription, m.Description())
	}
	assert.False(t, Mode("other").IsValid())
	assert.Equal(t, unknownDescription, Mode("other").Description())
}

func TestMode_GroupsByDocument(t *testing.T) {
	assert.True(t, ModeCompare.GroupsByDocument())
	assert.False(t, ModeNormal.GroupsByDocument())
	assert.False(t, ModeELI5.GroupsByDocument())
}

func TestNewScope(t *testing.T) {
	assert.Nil(t, NewScope(nil))
	assert.Nil(t, NewScope([]string{"", "  "}))

	scope := NewScope([]string{"a", "b", "a", " "})
	assert.Len(t, scope, 2)
	assert.Contains(t, scope, "a")
	assert.Contains(t, scope, "b")
}

func TestQuery_ScopeSet(t *testing.T) {
	q := Query{Text: "what?", Scope: []string{"docA"}}
	assert.Equal(t, map[string]struct{}{"docA": {}}, q.ScopeSet())
}

func TestRetrievalResult_DocumentIDs(t *testing.T) {
	r := RetrievalResult{Chunks: []ScoredChunk{
		{Chunk: Chunk{DocumentID: "b"}},
		{Chunk: Chunk{DocumentID: "a"}},
		{Chunk: Chunk{DocumentID: "b"}},
	}}

	assert.Equal(t, []string{"b", "a"}, r.DocumentIDs())
	assert.Equal(t, 3, r.Len())
	assert.False(t, r.IsEmpty())
	assert.True(t, RetrievalResult{}.IsEmpty())
}
