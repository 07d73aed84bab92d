package matcher

import (
	"path/filepath"
	"strings"
)

type bonusKind uint8

const (
	bonusNone bonusKind = iota
	bonusFileName
	bonusRecentFiles
	bonusLanguage
)

// Bonus is an additive post-score applied after the base algorithm
// accepts an item. The set is closed; construct values with the
// Bonus* helpers.
type Bonus struct {
	kind     bonusKind
	recent   []string
	language string
}

// BonusNone is the zero bonus.
func BonusNone() Bonus { return Bonus{kind: bonusNone} }

// BonusFileName rewards matches that land inside the basename of a
// path-shaped candidate.
func BonusFileName() Bonus { return Bonus{kind: bonusFileName} }

// BonusRecentFiles rewards candidates whose display text appears in the
// recently-opened list: +1000 for an exact path match, +100 for a
// basename match.
func BonusRecentFiles(paths []string) Bonus {
	return Bonus{kind: bonusRecentFiles, recent: paths}
}

// BonusLanguage rewards lines that look like declarations of the given
// language.
func BonusLanguage(lang string) Bonus { return Bonus{kind: bonusLanguage, language: lang} }

// ParseBonus parses the CLI spelling of a bonus. Unrecognised values
// degrade to the zero bonus, mirroring how the front-end treats them.
func ParseBonus(s string) Bonus {
	if strings.EqualFold(s, "filename") {
		return BonusFileName()
	}
	return BonusNone()
}

const (
	recentFileExactBonus    = 1000
	recentFileBasenameBonus = 100
)

// declarationKeywords maps a language to the tokens that start a
// definition line. The table only needs to cover what the buffer-lines
// provider feeds through it.
var declarationKeywords = map[string][]string{
	"go":     {"func ", "type ", "var ", "const "},
	"rust":   {"fn ", "struct ", "enum ", "trait ", "impl "},
	"python": {"def ", "class "},
	"vim":    {"function", "command"},
}

func (b Bonus) delta(item Item, base int64, indices []int) int64 {
	switch b.kind {
	case bonusFileName:
		return fileNameDelta(item.DisplayText(), base, indices)
	case bonusRecentFiles:
		return recentFilesDelta(item.DisplayText(), b.recent)
	case bonusLanguage:
		return languageDelta(item.DisplayText(), b.language, base)
	}
	return 0
}

func fileNameDelta(display string, base int64, indices []int) int64 {
	if len(indices) == 0 {
		return 0
	}
	baseName := filepath.Base(display)
	if baseName == display {
		return base / 8
	}
	start := len(display) - len(baseName)
	if indices[0] >= start {
		return base / 8
	}
	return 0
}

func recentFilesDelta(display string, recent []string) int64 {
	for _, path := range recent {
		if path == display {
			return recentFileExactBonus
		}
	}
	baseName := filepath.Base(display)
	for _, path := range recent {
		if filepath.Base(path) == baseName {
			return recentFileBasenameBonus
		}
	}
	return 0
}

func languageDelta(display, lang string, base int64) int64 {
	keywords, ok := declarationKeywords[lang]
	if !ok {
		return 0
	}
	trimmed := strings.TrimLeft(display, " \t")
	for _, kw := range keywords {
		if strings.HasPrefix(trimmed, kw) {
			return base / 4
		}
	}
	return 0
}
