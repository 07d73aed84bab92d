// Package printer turns ranked matches into display-ready payloads: it
// applies icon decoration and window-width truncation, then emits the
// line-delimited JSON messages the front-end renders.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/entrepeneur4lyf/sift/internal/matcher"
)

// Icon selects the decoration mode. The actual glyph tables live in the
// front-end; the core only reserves the prefix cells and shifts the
// highlight indices accordingly.
type Icon uint8

const (
	IconNull Icon = iota
	IconFile
	IconGrep
)

// ParseIcon parses the CLI/RPC spelling of an icon mode.
func ParseIcon(s string) Icon {
	switch s {
	case "file", "File":
		return IconFile
	case "grep", "Grep":
		return IconGrep
	}
	return IconNull
}

// Enabled reports whether lines get an icon prefix.
func (i Icon) Enabled() bool { return i != IconNull }

// iconPrefix is the placeholder glyph plus separator prepended to each
// line when icons are on; the front-end substitutes the real glyph.
const iconPrefix = " "

// DecoratedLines is one display window ready for the wire.
type DecoratedLines struct {
	Lines        []string          `json:"lines"`
	Indices      [][]int           `json:"indices"`
	TruncatedMap map[string]string `json:"truncated_map,omitempty"`
	IconAdded    bool              `json:"icon_added"`
}

// Decorate projects ranked matches into lines plus adjusted highlight
// indices, truncating to winwidth while keeping the matched region
// visible.
func Decorate(items []matcher.MatchedItem, winwidth int, icon Icon) DecoratedLines {
	lines := make([]string, 0, len(items))
	indices := make([][]int, 0, len(items))
	for _, item := range items {
		line := item.Item.DisplayText()
		idx := item.Indices
		if icon.Enabled() {
			line = iconPrefix + line
			shifted := make([]int, len(idx))
			for i, v := range idx {
				shifted[i] = v + len(iconPrefix)
			}
			idx = shifted
		}
		lines = append(lines, line)
		if idx == nil {
			idx = []int{}
		}
		indices = append(indices, idx)
	}
	truncated := truncateLines(lines, indices, winwidth)
	return DecoratedLines{
		Lines:        lines,
		Indices:      indices,
		TruncatedMap: truncated,
		IconAdded:    icon.Enabled(),
	}
}

// DecorateRaw decorates plain lines that carry no highlight indices,
// used to pre-populate the display right after session create.
func DecorateRaw(lines []string, winwidth int, icon Icon) DecoratedLines {
	out := make([]string, len(lines))
	indices := make([][]int, len(lines))
	for i, line := range lines {
		if icon.Enabled() {
			line = iconPrefix + line
		}
		out[i] = line
		indices[i] = []int{}
	}
	truncated := truncateLines(out, indices, winwidth)
	return DecoratedLines{
		Lines:        out,
		Indices:      indices,
		TruncatedMap: truncated,
		IconAdded:    icon.Enabled(),
	}
}

// truncateLines trims lines longer than winwidth in place, keeping the
// last matched position visible and marking the cut with a leading "..".
// Returns the 1-based line number -> original text map for lines that
// were cut.
func truncateLines(lines []string, indices [][]int, winwidth int) map[string]string {
	if winwidth <= 4 {
		return nil
	}
	var truncated map[string]string
	for n, line := range lines {
		if len(line) <= winwidth {
			continue
		}
		idx := indices[n]
		lastMatch := 0
		if len(idx) > 0 {
			lastMatch = idx[len(idx)-1]
		}
		if lastMatch < winwidth-2 {
			// Match fits; cut the tail.
			lines[n] = line[:winwidth-2] + ".."
		} else {
			// Slide the window so the match stays on screen.
			start := lastMatch + 2 - (winwidth - 2)
			end := start + winwidth - 2
			if end > len(line) {
				end = len(line)
			}
			lines[n] = ".." + line[start:end]
			shifted := make([]int, 0, len(idx))
			for _, v := range idx {
				v = v - start + 2
				if v >= 2 && v < winwidth {
					shifted = append(shifted, v)
				}
			}
			indices[n] = shifted
		}
		if truncated == nil {
			truncated = make(map[string]string)
		}
		truncated[strconv.Itoa(n+1)] = line
	}
	return truncated
}

// Writer serialises JSON messages onto a stream, one per line. All
// stdout traffic funnels through a single Writer so concurrent emitters
// cannot interleave partial lines.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter wraps out, normally os.Stdout.
func NewWriter(out io.Writer) *Writer { return &Writer{out: out} }

// Write marshals v and appends a newline.
func (w *Writer) Write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output message: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write output message: %w", err)
	}
	return nil
}

// progressMethod is the front-end hook for streaming updates.
const progressMethod = "clap#state#process_progress_full"

// ProgressUpdate is one streaming emission from the dyn/par-dyn drivers.
type ProgressUpdate struct {
	Method       string            `json:"method"`
	Matches      []string          `json:"matches"`
	Indices      [][]int           `json:"indices"`
	TruncatedMap map[string]string `json:"truncated_map,omitempty"`
	IconAdded    bool              `json:"icon_added"`
	TotalMatches uint64            `json:"total_matches"`
	Truncated    bool              `json:"truncated"`
}

// PrintProgress emits one progressive update over w. totalMatches counts
// every accepted match so far, truncated reports whether the window is a
// strict prefix of them.
func (w *Writer) PrintProgress(d DecoratedLines, totalMatches uint64, truncated bool) error {
	return w.Write(ProgressUpdate{
		Method:       progressMethod,
		Matches:      d.Lines,
		Indices:      d.Indices,
		TruncatedMap: d.TruncatedMap,
		IconAdded:    d.IconAdded,
		TotalMatches: totalMatches,
		Truncated:    truncated,
	})
}

// SyncResult is the one-shot payload of the synchronous driver.
type SyncResult struct {
	Total        uint64            `json:"total"`
	Lines        []string          `json:"lines"`
	Indices      [][]int           `json:"indices"`
	TruncatedMap map[string]string `json:"truncated_map,omitempty"`
	IconAdded    bool              `json:"icon_added"`
}

// PrintSync emits the final result of a synchronous run.
func (w *Writer) PrintSync(items []matcher.MatchedItem, total uint64, winwidth int, icon Icon) error {
	d := Decorate(items, winwidth, icon)
	return w.Write(SyncResult{
		Total:        total,
		Lines:        d.Lines,
		Indices:      d.Indices,
		TruncatedMap: d.TruncatedMap,
		IconAdded:    d.IconAdded,
	})
}

// Notify emits an arbitrary method call with flat fields, used for
// one-shot notifications such as the post-create total.
func (w *Writer) Notify(method string, fields map[string]any) error {
	msg := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		msg[k] = v
	}
	msg["method"] = method
	return w.Write(msg)
}
