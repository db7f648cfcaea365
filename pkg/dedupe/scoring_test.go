package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Similarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("identical strings score 100", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.Similarity("Acme Corp", "Acme Corp", MethodTokenSort))
	})

	t.Run("case and whitespace are normalized", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.Similarity("  ACME CORP ", "acme corp", MethodTokenSort))
	})

	t.Run("token order does not matter", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.Similarity("Corp Acme", "Acme Corp", MethodTokenSort))
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Similarity("", "Acme Corp", MethodTokenSort))
		assert.Equal(t, 0.0, scorer.Similarity("Acme Corp", "", MethodTokenSort))
		assert.Equal(t, 0.0, scorer.Similarity("   ", "   ", MethodTokenSort))
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := scorer.Similarity("Acme Corporation", "Acme Corp", MethodTokenSort)
		ba := scorer.Similarity("Acme Corp", "Acme Corporation", MethodTokenSort)
		assert.Equal(t, ab, ba)
	})

	t.Run("near duplicates score above 85", func(t *testing.T) {
		score := scorer.Similarity("Acme Corp", "Acme Corp.", MethodTokenSort)
		assert.Greater(t, score, 85.0)
	})

	t.Run("abbreviated forms score at least 90", func(t *testing.T) {
		score := scorer.Similarity("Acme Corp", "Acme Corporation", MethodTokenSort)
		assert.GreaterOrEqual(t, score, 90.0)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		score := scorer.Similarity("Acme Corp", "Zenith Holdings", MethodTokenSort)
		assert.Less(t, score, 70.0)
	})

	t.Run("token set ignores repeated tokens", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.Similarity("acme acme corp", "acme corp", MethodTokenSet))
	})

	t.Run("unknown method falls back to token sort", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.Similarity("corp acme", "acme corp", Method("bogus")))
	})
}

func TestScorer_LevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical", "acme", "acme", 0},
		{"one substitution", "acme", "acmi", 1},
		{"one insertion", "acme", "acmes", 1},
		{"one deletion", "acme", "ace", 1},
		{"empty left", "", "acme", 4},
		{"empty right", "acme", "", 4},
		{"classic", "kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestScorer_JaroWinkler(t *testing.T) {
	scorer := NewScorer()

	t.Run("identical strings score 100", func(t *testing.T) {
		assert.Equal(t, 100.0, scorer.JaroWinkler("acme", "acme"))
	})

	t.Run("shared prefix boosts score", func(t *testing.T) {
		withPrefix := scorer.JaroWinkler("martha", "marhta")
		assert.Greater(t, withPrefix, 90.0)
	})

	t.Run("disjoint strings score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.JaroWinkler("abc", "xyz"))
	})
}
