package session

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/entrepeneur4lyf/sift/internal/cache"
	"github.com/entrepeneur4lyf/sift/internal/filter"
	"github.com/entrepeneur4lyf/sift/internal/matcher"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
	"github.com/entrepeneur4lyf/sift/internal/source"
)

// Provider adapts one picker flavour to the session event loop. The set
// is closed and small; NewProvider is the only constructor.
type Provider interface {
	Context() *Context
	// Initialize produces the source-scale estimate; it must respect
	// ctx, which carries the create-time cap.
	Initialize(ctx context.Context) (SourceScale, error)
	OnTyped(call *rpc.Call) error
	OnMove(call *rpc.Call) error
}

// NewProvider picks the implementation for a provider id. Unrecognised
// ids get the generic shell-command provider.
func NewProvider(ctx *Context) Provider {
	base := providerBase{ctx: ctx}
	switch ctx.ProviderID {
	case "files":
		return &filesProvider{providerBase: base}
	case "grep", "live_grep":
		return &grepProvider{providerBase: base}
	case "blines":
		return &blinesProvider{providerBase: base}
	case "tags":
		return &tagsProvider{providerBase: base}
	}
	return &genericProvider{providerBase: base}
}

// smallScaleCap is the largest candidate set kept fully in memory after
// initialization.
const smallScaleCap = 10_000

type providerBase struct {
	ctx *Context
}

func (p *providerBase) Context() *Context { return p.ctx }

// OnMove is display-side business (preview rendering) owned by the
// front-end; the core only acknowledges it.
func (p *providerBase) OnMove(call *rpc.Call) error {
	log.Debug("OnMove", "provider_id", p.ctx.ProviderID, "msg_id", call.ID)
	return nil
}

// filterContext assembles a driver context wired to this session's
// output writer and running flag.
func (p *providerBase) filterContext(builder *matcher.Builder) *filter.Context {
	fc := filter.NewContext(p.ctx.Icon, p.ctx.DisplayCap, p.ctx.Winwidth, builder, p.ctx.Out)
	fc.ShareRunning(p.ctx.RunningFlag())
	return fc
}

// collectScale drains src under ctx and classifies the result: Small
// keeps the lines, anything larger keeps only the count. A deadline
// fired mid-read surfaces as ctx.Err so the caller can take the warm-up
// path.
func collectScale(ctx context.Context, src source.Source) (SourceScale, error) {
	st, err := src.Open(ctx)
	if err != nil {
		return SourceScale{}, err
	}
	defer st.Close()

	var lines []string
	for {
		if len(lines)%1000 == 0 {
			select {
			case <-ctx.Done():
				return SourceScale{}, ctx.Err()
			default:
			}
		}
		item, ok := st.Next()
		if !ok {
			break
		}
		lines = append(lines, item.DisplayText())
	}
	if err := ctx.Err(); err != nil {
		return SourceScale{}, err
	}
	total := uint64(len(lines))
	if len(lines) <= smallScaleCap {
		return SourceScale{Kind: ScaleSmall, Total: total, Lines: lines}, nil
	}
	return SourceScale{Kind: ScaleLarge, Total: total}, nil
}

func itemsFromLines(lines []string) []matcher.Item {
	items := make([]matcher.Item, len(lines))
	for i, line := range lines {
		items[i] = &matcher.SourceItem{Raw: line, LineNumber: i + 1}
	}
	return items
}

// readRecentFiles loads the recently-opened list; a missing or
// unreadable file simply yields no bonus.
func readRecentFiles(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// filesProvider lists the working tree with ripgrep and filters file
// paths.
type filesProvider struct {
	providerBase
}

const listFilesCmd = "rg --files"

func (p *filesProvider) Initialize(ctx context.Context) (SourceScale, error) {
	return collectScale(ctx, source.Exec(listFilesCmd, p.ctx.Cwd))
}

func (p *filesProvider) builder() *matcher.Builder {
	bonuses := []matcher.Bonus{matcher.BonusFileName()}
	if recent := readRecentFiles(p.ctx.Cfg.RecentFiles); len(recent) > 0 {
		bonuses = append(bonuses, matcher.BonusRecentFiles(recent))
	}
	return matcher.NewBuilder().Algo(matcher.Fzy).Scope(matcher.Full).Bonuses(bonuses...)
}

func (p *filesProvider) OnTyped(call *rpc.Call) error {
	fc := p.filterContext(p.builder())
	query := call.Query()
	switch scale := p.ctx.Scale(); scale.Kind {
	case ScaleSmall:
		return filter.DynRun(query, fc, source.InMemory(itemsFromLines(scale.Lines)))
	case ScaleLarge:
		return filter.ParDynRun(query, fc, source.ParExec(listFilesCmd, p.ctx.Cwd))
	default:
		return filter.DynRun(query, fc, source.Exec(listFilesCmd, p.ctx.Cwd))
	}
}

// grepProvider filters whole-tree ripgrep output, preferring the
// on-disk cache the forerunner maintains.
type grepProvider struct {
	providerBase
}

func (p *grepProvider) Initialize(ctx context.Context) (SourceScale, error) {
	if path, total, ok := cache.Digest(p.ctx.Cwd); ok {
		return SourceScale{Kind: ScaleCache, Total: total, CachePath: path}, nil
	}
	rg := cache.NewRgCommand(p.ctx.Cwd)
	path, total, err := rg.CreateCache(ctx)
	if err != nil {
		return SourceScale{}, err
	}
	return SourceScale{Kind: ScaleCache, Total: total, CachePath: path}, nil
}

func (p *grepProvider) builder() *matcher.Builder {
	return matcher.NewBuilder().Algo(matcher.Fzy).Scope(matcher.GrepLine)
}

func (p *grepProvider) OnTyped(call *rpc.Call) error {
	fc := p.filterContext(p.builder())
	query := call.Query()

	scale := p.ctx.Scale()
	if scale.Kind != ScaleCache {
		// The forerunner may have finished since create.
		if path, total, ok := cache.Digest(p.ctx.Cwd); ok {
			scale = SourceScale{Kind: ScaleCache, Total: total, CachePath: path}
			p.ctx.SetScale(scale)
		}
	}
	if scale.Kind == ScaleCache {
		src, err := source.File(scale.CachePath)
		if err != nil {
			return err
		}
		return filter.DynRun(query, fc, src)
	}
	return filter.ParDynRun(query, fc, source.ParExec(cache.RgShellCommand(), p.ctx.Cwd))
}

// blinesProvider filters the lines of one buffer file.
type blinesProvider struct {
	providerBase
}

func (p *blinesProvider) Initialize(ctx context.Context) (SourceScale, error) {
	src, err := source.File(p.ctx.SourceFile)
	if err != nil {
		return SourceScale{}, err
	}
	return collectScale(ctx, src)
}

var extLanguages = map[string]string{
	".go":  "go",
	".rs":  "rust",
	".py":  "python",
	".vim": "vim",
}

func (p *blinesProvider) builder() *matcher.Builder {
	b := matcher.NewBuilder().Algo(matcher.Fzy).Scope(matcher.Full)
	if lang, ok := extLanguages[filepath.Ext(p.ctx.SourceFile)]; ok {
		b.Bonuses(matcher.BonusLanguage(lang))
	}
	return b
}

func (p *blinesProvider) OnTyped(call *rpc.Call) error {
	src, err := source.File(p.ctx.SourceFile)
	if err != nil {
		return err
	}
	return filter.DynRun(call.Query(), p.filterContext(p.builder()), src)
}

// tagsProvider filters ctags output for one buffer file.
type tagsProvider struct {
	providerBase
}

func (p *tagsProvider) Initialize(ctx context.Context) (SourceScale, error) {
	// ctags runtime is unpredictable across file types.
	return SourceScale{Kind: ScaleIndefinite}, nil
}

func (p *tagsProvider) OnTyped(call *rpc.Call) error {
	cmd := fmt.Sprintf("ctags -x --sort=no %q", p.ctx.SourceFile)
	builder := matcher.NewBuilder().Algo(matcher.Fzy).Scope(matcher.TagName)
	return filter.DynRun(call.Query(), p.filterContext(builder), source.Exec(cmd, p.ctx.Cwd))
}

// genericProvider serves any provider id that ships its own shell
// command in the session parameters.
type genericProvider struct {
	providerBase
}

func (p *genericProvider) Initialize(ctx context.Context) (SourceScale, error) {
	if p.ctx.SourceCmd == "" {
		return SourceScale{Kind: ScaleIndefinite}, nil
	}
	return collectScale(ctx, source.Exec(p.ctx.SourceCmd, p.ctx.Cwd))
}

func (p *genericProvider) OnTyped(call *rpc.Call) error {
	builder := matcher.NewBuilder().Algo(matcher.Fzy).Scope(matcher.Full)
	fc := p.filterContext(builder)
	query := call.Query()
	if scale := p.ctx.Scale(); scale.Kind == ScaleSmall {
		return filter.DynRun(query, fc, source.InMemory(itemsFromLines(scale.Lines)))
	}
	if p.ctx.SourceCmd == "" {
		log.Warn("Provider has no source command", "provider_id", p.ctx.ProviderID)
		return nil
	}
	return filter.DynRun(query, fc, source.Exec(p.ctx.SourceCmd, p.ctx.Cwd))
}
