// Package source provides the lazy candidate-line sequences the filter
// drivers pull from: the process's stdin, a regular file, the stdout of
// a spawned shell command, or a pre-materialised in-memory set.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/entrepeneur4lyf/sift/internal/matcher"
)

type kind uint8

const (
	kindStdin kind = iota
	kindFile
	kindExec
	kindInMemory
)

// Source is a tagged union over the supported candidate producers. The
// variant set is fixed; each has its own resource shape.
type Source struct {
	kind  kind
	path  string
	cmd   string
	cwd   string
	items []matcher.Item
}

// Stdin reads candidates from the process's standard input.
func Stdin() Source { return Source{kind: kindStdin} }

// File reads candidates from a regular file. Only absolute paths are
// accepted.
func File(path string) (Source, error) {
	if !filepath.IsAbs(path) {
		return Source{}, fmt.Errorf("input file must be an absolute path, got %q", path)
	}
	return Source{kind: kindFile, path: path}, nil
}

// Exec streams candidates from the stdout of a shell command. cwd may be
// empty to inherit the current directory.
func Exec(cmd, cwd string) Source {
	return Source{kind: kindExec, cmd: cmd, cwd: cwd}
}

// InMemory wraps pre-materialised items, used by providers that run
// their own producer.
func InMemory(items []matcher.Item) Source {
	return Source{kind: kindInMemory, items: items}
}

// scanBufSize bounds a single candidate line at 1 MiB.
const scanBufSize = 1 << 20

// Stream is an open source. Next yields items until the source is
// exhausted; a read error mid-stream ends the stream silently so the
// caller can report the partial result. Close is idempotent and kills
// any child process still running.
type Stream struct {
	scan    *bufio.Scanner
	file    *os.File
	cmd     *exec.Cmd
	items   []matcher.Item
	idx     int
	lineNum int
	offset  int
	closed  bool
}

// Open materialises the lazy sequence. Spawn failures for Exec sources
// are returned here; everything after Open degrades to end-of-stream.
func (s Source) Open(ctx context.Context) (*Stream, error) {
	switch s.kind {
	case kindStdin:
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 64*1024), scanBufSize)
		return &Stream{scan: sc}, nil
	case kindFile:
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", s.path, err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 64*1024), scanBufSize)
		return &Stream{scan: sc, file: f}, nil
	case kindExec:
		cmd := exec.CommandContext(ctx, "sh", "-c", s.cmd)
		if s.cwd != "" {
			cmd.Dir = s.cwd
		}
		cmd.Stderr = io.Discard
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("pipe stdout of %q: %w", s.cmd, err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("spawn %q: %w", s.cmd, err)
		}
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 64*1024), scanBufSize)
		return &Stream{scan: sc, cmd: cmd}, nil
	case kindInMemory:
		return &Stream{items: s.items, idx: -1}, nil
	}
	return nil, fmt.Errorf("unknown source kind %d", s.kind)
}

// Next returns the next item. ok is false once the source is exhausted
// or a read error occurred.
func (st *Stream) Next() (matcher.Item, bool) {
	if st.closed {
		return nil, false
	}
	if st.scan == nil {
		st.idx++
		if st.idx >= len(st.items) {
			return nil, false
		}
		return st.items[st.idx], true
	}
	if !st.scan.Scan() {
		// Scanner errors end the stream; the partial result stands.
		return nil, false
	}
	line := strings.TrimSuffix(st.scan.Text(), "\r")
	st.lineNum++
	item := &matcher.SourceItem{Raw: line, LineNumber: st.lineNum, ByteOffset: st.offset}
	st.offset += len(st.scan.Bytes()) + 1
	return item, true
}

// Close releases the underlying resource. Safe to call more than once.
func (st *Stream) Close() error {
	if st.closed {
		return nil
	}
	st.closed = true
	if st.file != nil {
		return st.file.Close()
	}
	if st.cmd != nil && st.cmd.Process != nil {
		_ = st.cmd.Process.Kill()
		_ = st.cmd.Wait()
	}
	return nil
}

// ParSource restricts sources to the variants whose producer is cheap to
// drain from parallel chunk consumers: File and Exec.
type ParSource struct {
	src Source
}

// ParFile wraps an absolute file path for the parallel driver.
func ParFile(path string) (ParSource, error) {
	src, err := File(path)
	if err != nil {
		return ParSource{}, err
	}
	return ParSource{src: src}, nil
}

// ParExec wraps a shell command for the parallel driver.
func ParExec(cmd, cwd string) ParSource {
	return ParSource{src: Exec(cmd, cwd)}
}

// Open opens the underlying source.
func (p ParSource) Open(ctx context.Context) (*Stream, error) {
	return p.src.Open(ctx)
}
