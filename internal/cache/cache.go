// Package cache manages the on-disk ripgrep output cache that backs the
// grep-family providers. One cache file per working directory, named by
// a hash of the directory path, written atomically via a temp file.
package cache

import (
	"bufio"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
)

// rgArgs produces the whole-tree listing the interactive grep filters
// against.
const rgArgs = "--column --line-number --no-heading --color=never ''"

// RgShellCommand is the full shell command the warmer runs; the grep
// provider reuses it when filtering without a cache.
func RgShellCommand() string { return "rg " + rgArgs }

// Dir returns the cache directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	dir := filepath.Join(base, "sift")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	return dir, nil
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, s)
	return h.Sum64()
}

// PathFor returns the cache file path for a working directory without
// touching the filesystem beyond the directory creation.
func PathFor(cwd string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, strconv.FormatUint(hashOf(cwd), 10)), nil
}

// Digest reports whether a usable cache exists for cwd, returning its
// path and line count.
func Digest(cwd string) (path string, total uint64, ok bool) {
	path, err := PathFor(cwd)
	if err != nil {
		return "", 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return "", 0, false
	}
	defer f.Close()
	total, err = countLines(f)
	if err != nil || total == 0 {
		return "", 0, false
	}
	return path, total, true
}

func countLines(r io.Reader) (uint64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	var n uint64
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

// RgCommand is a cache-warming run of ripgrep over one directory. Its
// identity doubles as the singleton job id.
type RgCommand struct {
	Dir string
}

// NewRgCommand binds a warmer to a working directory.
func NewRgCommand(dir string) RgCommand { return RgCommand{Dir: dir} }

// ID is the job id: a hash over the command line and the directory, so
// two warmers for the same tree collide.
func (r RgCommand) ID() uint64 {
	return hashOf("rg " + rgArgs + " " + r.Dir)
}

// CreateCache runs ripgrep and writes its stdout to the cache file,
// returning the path and line count. The write goes through a temp file
// so a concurrent Digest never sees a half-written cache.
func (r RgCommand) CreateCache(ctx context.Context) (string, uint64, error) {
	path, err := PathFor(r.Dir)
	if err != nil {
		return "", 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "rg-*")
	if err != nil {
		return "", 0, fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cmd := exec.CommandContext(ctx, "sh", "-c", "rg "+rgArgs)
	cmd.Dir = r.Dir
	cmd.Stderr = io.Discard
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("pipe ripgrep stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("spawn ripgrep: %w", err)
	}

	w := bufio.NewWriter(tmp)
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	var total uint64
	for sc.Scan() {
		w.Write(sc.Bytes())
		w.WriteByte('\n')
		total++
	}
	// rg exits non-zero on zero matches; only the stream matters here.
	_ = cmd.Wait()
	if err := ctx.Err(); err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, fmt.Errorf("publish cache file: %w", err)
	}
	log.Debug("Ripgrep cache created", "dir", r.Dir, "path", path, "total", total)
	return path, total, nil
}
