package matcher

import (
	"fmt"
	"strings"
	"unicode"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// Algo identifies the base fuzzy matching algorithm.
type Algo uint8

const (
	// Fzy is the default scoring algorithm.
	Fzy Algo = iota
	// Skim uses a linear-gap subsequence scorer.
	Skim
	// SubString requires the query to appear contiguously.
	SubString
)

// ParseAlgo parses the CLI/RPC spelling of an algorithm name.
func ParseAlgo(s string) (Algo, error) {
	switch strings.ToLower(s) {
	case "fzy", "":
		return Fzy, nil
	case "skim":
		return Skim, nil
	case "substring":
		return SubString, nil
	}
	return Fzy, fmt.Errorf("unknown fuzzy algorithm %q", s)
}

func (a Algo) String() string {
	switch a {
	case Skim:
		return "skim"
	case SubString:
		return "substring"
	default:
		return "fzy"
	}
}

// CaseMatching controls case sensitivity of the query.
type CaseMatching uint8

const (
	// Smart is case-sensitive iff the query contains an upper-case rune.
	Smart CaseMatching = iota
	// Respect is always case-sensitive.
	Respect
	// Ignore is never case-sensitive.
	Ignore
)

// ParseCaseMatching parses the CLI/RPC spelling of a case matching mode.
func ParseCaseMatching(s string) (CaseMatching, error) {
	switch strings.ToLower(s) {
	case "smart", "":
		return Smart, nil
	case "respect":
		return Respect, nil
	case "ignore":
		return Ignore, nil
	}
	return Smart, fmt.Errorf("unknown case matching %q", s)
}

func containsUpper(query string) bool {
	for _, r := range query {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// Sensitive resolves the effective case sensitivity for a query.
func (cm CaseMatching) Sensitive(query string) bool {
	switch cm {
	case Respect:
		return true
	case Ignore:
		return false
	default:
		return containsUpper(query)
	}
}

// Match runs the algorithm over text. It is a total function: ok reports
// whether the query matched at all. Indices are byte offsets into text,
// ascending. Identical inputs always produce identical output.
func (a Algo) Match(query, text string, sensitive bool) (int64, []int, bool) {
	if query == "" || text == "" {
		return 0, nil, false
	}
	switch a {
	case SubString:
		return substringMatch(query, text, sensitive)
	case Skim:
		return skimMatch(query, text, sensitive)
	default:
		return fzyMatch(query, text, sensitive)
	}
}

// subsequencePossible is a cheap O(n) reject before the quadratic
// scorers run.
func subsequencePossible(query, text string, sensitive bool) bool {
	if sensitive {
		return fuzzysearch.Match(query, text)
	}
	return fuzzysearch.MatchFold(query, text)
}

func fzyMatch(query, text string, sensitive bool) (int64, []int, bool) {
	if !subsequencePossible(query, text, sensitive) {
		return 0, nil, false
	}
	matches := fuzzy.Find(query, []string{text})
	if len(matches) == 0 {
		return 0, nil, false
	}
	m := matches[0]
	if sensitive && !indicesCaseExact(query, text, m.MatchedIndexes) {
		return 0, nil, false
	}
	indices := make([]int, len(m.MatchedIndexes))
	copy(indices, m.MatchedIndexes)
	return int64(m.Score), indices, true
}

// indicesCaseExact verifies that the matched positions reproduce the
// query byte-for-byte, which is how case-sensitive mode is layered on
// top of a case-folding scorer.
func indicesCaseExact(query, text string, indices []int) bool {
	if len(indices) != len(query) {
		return false
	}
	for i := 0; i < len(query); i++ {
		if text[indices[i]] != query[i] {
			return false
		}
	}
	return true
}

// Skim scoring constants. Word boundaries dominate adjacency, adjacency
// dominates scattered matches, and every skipped byte inside the match
// window costs a little.
const (
	skimMatchScore  = 16
	skimConsecutive = 8
	skimBoundary    = 12
	skimGapPenalty  = 1
)

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func skimBytesEqual(a, b byte, sensitive bool) bool {
	if sensitive {
		return a == b
	}
	return asciiLower(a) == asciiLower(b)
}

func isBoundary(text string, j int) bool {
	if j == 0 {
		return true
	}
	switch text[j-1] {
	case '/', '\\', '-', '_', ' ', '\t', '.', ':':
		return true
	}
	// lower-to-upper transition, e.g. camelCase.
	return text[j] >= 'A' && text[j] <= 'Z' && text[j-1] >= 'a' && text[j-1] <= 'z'
}

// skimMatch is a dynamic-programming subsequence scorer with adjacency
// and word-boundary bonuses and a linear gap penalty. best[i][j] holds
// the best score matching query[:i+1] with query[i] placed at text[j].
func skimMatch(query, text string, sensitive bool) (int64, []int, bool) {
	if !subsequencePossible(query, text, sensitive) {
		return 0, nil, false
	}
	m, n := len(query), len(text)
	if m > n {
		return 0, nil, false
	}

	const minScore = int64(-1) << 40
	best := make([][]int64, m)
	parent := make([][]int, m)
	for i := range best {
		best[i] = make([]int64, n)
		parent[i] = make([]int, n)
		for j := range best[i] {
			best[i][j] = minScore
			parent[i][j] = -1
		}
	}

	for i := 0; i < m; i++ {
		for j := i; j < n; j++ {
			if !skimBytesEqual(query[i], text[j], sensitive) {
				continue
			}
			placed := int64(skimMatchScore)
			if isBoundary(text, j) {
				placed += skimBoundary
			}
			if i == 0 {
				// Leading gap is charged so earlier matches win.
				best[i][j] = placed - int64(j)*skimGapPenalty
				continue
			}
			// Best predecessor for query[i-1] at any k < j.
			for k := i - 1; k < j; k++ {
				prev := best[i-1][k]
				if prev == minScore {
					continue
				}
				cand := prev + placed
				if k == j-1 {
					cand += skimConsecutive
				} else {
					cand -= int64(j-k-1) * skimGapPenalty
				}
				if cand > best[i][j] {
					best[i][j] = cand
					parent[i][j] = k
				}
			}
		}
	}

	bestScore, bestEnd := minScore, -1
	for j := m - 1; j < n; j++ {
		if best[m-1][j] > bestScore {
			bestScore = best[m-1][j]
			bestEnd = j
		}
	}
	if bestEnd < 0 {
		return 0, nil, false
	}

	indices := make([]int, m)
	j := bestEnd
	for i := m - 1; i >= 0; i-- {
		indices[i] = j
		j = parent[i][j]
	}
	return bestScore, indices, true
}

func substringMatch(query, text string, sensitive bool) (int64, []int, bool) {
	var start int
	if sensitive {
		start = strings.Index(text, query)
	} else {
		start = strings.Index(strings.ToLower(text), strings.ToLower(query))
	}
	if start < 0 {
		return 0, nil, false
	}
	indices := make([]int, len(query))
	for i := range indices {
		indices[i] = start + i
	}
	// Longer needles score higher, earlier occurrences break the tie.
	score := int64(len(query)*skimMatchScore) - int64(start)
	return score, indices, true
}
