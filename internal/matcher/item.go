package matcher

// Item is a single filter candidate. DisplayText is what the front-end
// renders; MatchText is what the query is matched against, which may be a
// different projection of the same underlying line. Items are immutable
// once created.
type Item interface {
	DisplayText() string
	MatchText() string
}

// SourceItem is the plain line-backed item produced by the streaming
// sources. LineNumber and ByteOffset are carried through untouched for
// consumers that need to jump to the origin of a match.
type SourceItem struct {
	Raw        string
	LineNumber int
	ByteOffset int
}

// NewSourceItem wraps a raw line into an item.
func NewSourceItem(raw string) *SourceItem {
	return &SourceItem{Raw: raw}
}

func (s *SourceItem) DisplayText() string { return s.Raw }

func (s *SourceItem) MatchText() string { return s.Raw }

// MatchedItem pairs an item with the score and highlight indices the
// matcher produced for it. Indices are byte offsets into DisplayText.
type MatchedItem struct {
	Item    Item
	Score   int64
	Indices []int
}
