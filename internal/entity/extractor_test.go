package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconMatcher_Matches(t *testing.T) {
	matcher, err := NewLexiconMatcher("basketball", []string{"Lakers", "LeBron James", "Warriors"})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "case insensitive match",
			text: "How many points did LEBRON JAMES score?",
			want: []string{"lebron james"},
		},
		{
			name: "multiple terms",
			text: "lakers versus warriors tonight",
			want: []string{"lakers", "warriors"},
		},
		{
			name: "word boundary prevents partial match",
			text: "the lakersfan forum",
			want: nil,
		},
		{
			name: "no entities",
			text: "explain the offside rule",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.Matches(tt.text))
		})
	}
}

func TestLexiconMatcher_DeduplicatesTerms(t *testing.T) {
	matcher, err := NewLexiconMatcher("soccer", []string{"Haaland", "haaland", "  HAALAND ", ""})
	require.NoError(t, err)

	matches := matcher.Matches("haaland scored twice")
	assert.Equal(t, []string{"haaland"}, matches)
}

func TestRegistry_Extract(t *testing.T) {
	registry := NewRegistry()

	basketball, err := NewLexiconMatcher("basketball", []string{"lakers", "lebron james"})
	require.NoError(t, err)
	soccer, err := NewLexiconMatcher("soccer", []string{"manchester city", "haaland"})
	require.NoError(t, err)

	registry.Register("basketball", basketball)
	registry.Register("soccer", soccer)

	t.Run("unions across domains sorted", func(t *testing.T) {
		entities := registry.Extract("Did the Lakers sign Haaland?")
		assert.Equal(t, []string{"haaland", "lakers"}, entities)
	})

	t.Run("empty result for entity-free text", func(t *testing.T) {
		assert.Nil(t, registry.Extract("what time is kickoff"))
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		first := registry.Extract("lebron james and manchester city and lakers")
		second := registry.Extract("lebron james and manchester city and lakers")
		assert.Equal(t, first, second)
	})
}

func TestRegistry_Domains(t *testing.T) {
	registry := NewRegistry()

	m, err := NewLexiconMatcher("basketball", []string{"lakers"})
	require.NoError(t, err)

	registry.Register("basketball", m)
	registry.Register("basketball", m)

	assert.Equal(t, []string{"basketball"}, registry.Domains())
}
