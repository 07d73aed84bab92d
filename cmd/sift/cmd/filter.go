package cmd

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrepeneur4lyf/sift/internal/filter"
	"github.com/entrepeneur4lyf/sift/internal/matcher"
	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/source"
)

var (
	filterQuery    string
	filterAlgo     string
	filterShellCmd string
	filterCmdDir   string
	filterRecent   string
	filterInput    string
	filterScope    string
	filterBonus    string
	filterSync     bool
	filterParRun   bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Fuzzy filter the input stream with the given query",
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := matcher.ParseAlgo(filterAlgo)
		if err != nil {
			return err
		}
		scope, err := matcher.ParseMatchScope(filterScope)
		if err != nil {
			return err
		}
		caseMat, err := matcher.ParseCaseMatching(caseMatching)
		if err != nil {
			return err
		}

		builder := matcher.NewBuilder().
			Algo(algo).
			Scope(scope).
			CaseMatching(caseMat).
			Bonuses(gatherBonuses()...)

		icon := printer.ParseIcon(iconMode)
		out := printer.NewWriter(os.Stdout)
		fc := filter.NewContext(icon, cfg.DisplayCap, cfg.Winwidth, builder, out)

		if filterSync {
			src, err := generateSource()
			if err != nil {
				return err
			}
			return filter.SyncRun(filterQuery, fc, src)
		}
		if filterParRun {
			psrc, err := generateParSource()
			if err != nil {
				return err
			}
			return filter.ParDynRun(filterQuery, fc, psrc)
		}
		src, err := generateSource()
		if err != nil {
			return err
		}
		return filter.DynRun(filterQuery, fc, src)
	},
}

// gatherBonuses combines the --bonus flag with the recent-files list.
// Error cases while reading the list are ignored; the bonus is simply
// empty.
func gatherBonuses() []matcher.Bonus {
	bonuses := []matcher.Bonus{matcher.ParseBonus(filterBonus)}
	path := filterRecent
	if path == "" {
		path = cfg.RecentFiles
	}
	if path == "" {
		return bonuses
	}
	f, err := os.Open(path)
	if err != nil {
		return bonuses
	}
	defer f.Close()
	var recent []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			recent = append(recent, line)
		}
	}
	if len(recent) > 0 {
		bonuses = append(bonuses, matcher.BonusRecentFiles(recent))
	}
	return bonuses
}

// generateSource tries the shell command first, then the input file,
// finally stdin.
func generateSource() (source.Source, error) {
	if filterShellCmd != "" {
		return source.Exec(filterShellCmd, filterCmdDir), nil
	}
	if filterInput != "" {
		return source.File(filterInput)
	}
	return source.Stdin(), nil
}

// generateParSource restricts to the variants the parallel driver can
// chunk: Exec and File.
func generateParSource() (source.ParSource, error) {
	if filterShellCmd != "" {
		return source.ParExec(filterShellCmd, filterCmdDir), nil
	}
	return source.ParFile(filterInput)
}

func init() {
	filterCmd.Flags().StringVar(&filterQuery, "query", "", "Query string")
	filterCmd.Flags().StringVar(&filterAlgo, "algo", "fzy", "Fuzzy matching algorithm (fzy|skim|substring)")
	filterCmd.Flags().StringVar(&filterShellCmd, "cmd", "", "Shell command producing the candidate set")
	filterCmd.Flags().StringVar(&filterCmdDir, "cmd-dir", "", "Working directory for --cmd")
	filterCmd.Flags().StringVar(&filterRecent, "recent-files", "", "Recently opened file list for score bonuses")
	filterCmd.Flags().StringVar(&filterInput, "input", "", "Read candidates from a file (absolute path)")
	filterCmd.Flags().StringVar(&filterScope, "match-scope", "full", "Match scope (full|filename|grepline|tagname)")
	filterCmd.Flags().StringVar(&filterBonus, "bonus", "none", "Score bonus (none|filename)")
	filterCmd.Flags().BoolVar(&filterSync, "sync", false, "Synchronous filtering, returns when the input is complete")
	filterCmd.Flags().BoolVar(&filterParRun, "par-run", false, "Filter with the parallel streaming driver")
	_ = filterCmd.MarkFlagRequired("query")
}
