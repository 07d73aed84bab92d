// Package matcher scores filter candidates against an interactive query.
// A Builder carries the session-level knobs (algorithm, match scope,
// case matching, bonuses); Build binds it to one query and yields a
// Matcher that is safe for concurrent use.
package matcher

// Builder accumulates matcher configuration. The zero value is usable:
// fzy algorithm, full scope, smart case, no bonuses.
type Builder struct {
	algo    Algo
	scope   MatchScope
	caseMat CaseMatching
	bonuses []Bonus
}

// NewBuilder returns a Builder with the default configuration.
func NewBuilder() *Builder { return &Builder{} }

// Algo sets the base fuzzy algorithm.
func (b *Builder) Algo(a Algo) *Builder {
	b.algo = a
	return b
}

// Scope sets the match-text projection.
func (b *Builder) Scope(s MatchScope) *Builder {
	b.scope = s
	return b
}

// CaseMatching sets the case sensitivity mode.
func (b *Builder) CaseMatching(cm CaseMatching) *Builder {
	b.caseMat = cm
	return b
}

// Bonuses sets the additive post-scores.
func (b *Builder) Bonuses(bonuses ...Bonus) *Builder {
	b.bonuses = bonuses
	return b
}

// Build binds the configuration to a query. The effective case
// sensitivity is resolved once, here.
func (b *Builder) Build(query string) *Matcher {
	return &Matcher{
		query:     query,
		algo:      b.algo,
		scope:     b.scope,
		sensitive: b.caseMat.Sensitive(query),
		bonuses:   b.bonuses,
	}
}

// Matcher matches items against a fixed query. Read-only after Build.
type Matcher struct {
	query     string
	algo      Algo
	scope     MatchScope
	sensitive bool
	bonuses   []Bonus
}

// Query returns the bound query string.
func (m *Matcher) Query() string { return m.query }

// Match scores one item. ok is false when the query does not match.
// Returned indices are byte offsets into the item's display text.
func (m *Matcher) Match(item Item) (MatchedItem, bool) {
	text, offset, ok := m.scope.Project(item.MatchText())
	if !ok {
		return MatchedItem{}, false
	}
	score, indices, ok := m.algo.Match(m.query, text, m.sensitive)
	if !ok {
		return MatchedItem{}, false
	}
	if offset != 0 {
		for i := range indices {
			indices[i] += offset
		}
	}
	final := score
	for _, bonus := range m.bonuses {
		final += bonus.delta(item, score, indices)
	}
	return MatchedItem{Item: item, Score: final, Indices: indices}, true
}
