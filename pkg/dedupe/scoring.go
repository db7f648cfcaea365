package dedupe

import (
	"sort"
	"strings"
)

// Method selects the string comparison algorithm.
type Method string

const (
	// MethodRatio is a plain character-level comparison.
	MethodRatio Method = "ratio"
	// MethodTokenSort tokenizes and sorts before comparison, making the
	// score insensitive to word order. The default.
	MethodTokenSort Method = "token_sort_ratio"
	// MethodTokenSet compares the unique token sets of both strings.
	MethodTokenSet Method = "token_set_ratio"
)

// Scorer provides pairwise string similarity scoring on a 0-100 scale.
// All methods normalize input (trim, lowercase) first; empty input scores 0.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity scores two strings with the given method. Unknown methods fall
// back to token-sort.
func (s *Scorer) Similarity(a, b string, method Method) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}

	switch method {
	case MethodRatio:
		return s.Ratio(a, b)
	case MethodTokenSet:
		return s.TokenSetRatio(a, b)
	default:
		return s.TokenSortRatio(a, b)
	}
}

// Ratio is the Levenshtein similarity of two strings scaled to 0-100.
func (s *Scorer) Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100
	}
	distance := s.LevenshteinDistance(a, b)
	return (1.0 - float64(distance)/float64(maxLen)) * 100
}

// TokenSortRatio tokenizes both strings, sorts the tokens, and scores the
// rejoined strings with Jaro-Winkler. "acme corp" and "corp acme" score
// 100, and a truncated form like "corp" against "corporation" still scores
// high because of the shared prefix.
func (s *Scorer) TokenSortRatio(a, b string) float64 {
	return s.JaroWinkler(sortTokens(a), sortTokens(b))
}

// TokenSetRatio compares the deduplicated, sorted token sets of both
// strings. Repeated tokens do not affect the score.
func (s *Scorer) TokenSetRatio(a, b string) float64 {
	return s.JaroWinkler(uniqueSortedTokens(a), uniqueSortedTokens(b))
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// JaroWinkler calculates the Jaro-Winkler similarity scaled to 0-100.
// Prefix agreement is rewarded, so abbreviated company names score close
// to their expanded forms.
func (s *Scorer) JaroWinkler(a, b string) float64 {
	if a == b {
		return 100
	}

	jaro := s.jaro(a, b)

	// Winkler modification: boost for common prefix
	prefixLen := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] == b[i] {
			prefixLen++
		} else {
			break
		}
	}

	scalingFactor := 0.1
	return (jaro + float64(prefixLen)*scalingFactor*(1.0-jaro)) * 100
}

func (s *Scorer) jaro(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Maximum distance for character matching
	matchDist := max(len(a), len(b))/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, len(a))
	bMatches := make([]bool, len(b))

	matches := 0
	transpositions := 0

	for i := 0; i < len(a); i++ {
		start := max(0, i-matchDist)
		end := min(len(b), i+matchDist+1)

		for j := start; j < end; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len(a); i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2

	return (m/float64(len(a)) + m/float64(len(b)) + (m-t)/m) / 3
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func uniqueSortedTokens(s string) string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(s) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
