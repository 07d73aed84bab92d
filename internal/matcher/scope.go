package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MatchScope selects which projection of a candidate is fed to the fuzzy
// algorithm.
type MatchScope uint8

const (
	// Full matches against the whole line.
	Full MatchScope = iota
	// FileName matches against the basename of a path-shaped line.
	FileName
	// GrepLine matches against a grep line with its `path:lnum:col:`
	// prefix stripped.
	GrepLine
	// TagName matches against the first whitespace-delimited token.
	TagName
)

// ParseMatchScope parses the CLI/RPC spelling of a match scope.
func ParseMatchScope(s string) (MatchScope, error) {
	switch strings.ToLower(s) {
	case "full", "":
		return Full, nil
	case "filename":
		return FileName, nil
	case "grepline":
		return GrepLine, nil
	case "tagname":
		return TagName, nil
	}
	return Full, fmt.Errorf("unknown match scope %q", s)
}

func (s MatchScope) String() string {
	switch s {
	case FileName:
		return "filename"
	case GrepLine:
		return "grepline"
	case TagName:
		return "tagname"
	default:
		return "full"
	}
}

var grepPrefix = regexp.MustCompile(`^.*?:\d+:\d+:`)

// Project extracts the scoped text from a full line and returns it
// together with the byte offset of the projection within the line, so
// that highlight indices can be mapped back to display coordinates.
// ok is false when the line has no such projection.
func (s MatchScope) Project(line string) (text string, offset int, ok bool) {
	switch s {
	case Full:
		return line, 0, true
	case FileName:
		base := filepath.Base(line)
		if base == "." || base == string(filepath.Separator) {
			return "", 0, false
		}
		return base, len(line) - len(base), true
	case GrepLine:
		loc := grepPrefix.FindStringIndex(line)
		if loc == nil {
			return line, 0, true
		}
		return line[loc[1]:], loc[1], true
	case TagName:
		trimmed := strings.TrimLeft(line, " \t")
		lead := len(line) - len(trimmed)
		if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
			trimmed = trimmed[:i]
		}
		if trimmed == "" {
			return "", 0, false
		}
		return trimmed, lead, true
	}
	return line, 0, true
}
