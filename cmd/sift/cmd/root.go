package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/entrepeneur4lyf/sift/internal/config"
)

var (
	number       int
	winwidth     int
	iconMode     string
	caseMatching string
	logPath      string
	debug        bool

	logFile *os.File
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Interactive fuzzy filter core for editor front-ends",
	Long: `sift ingests a stream of candidate lines, applies an incrementally
updated query against them, and emits a ranked, display-ready window on
every keystroke. It is driven either by the filter subcommand or by an
editor over line-delimited JSON-RPC on stdin/stdout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if number > 0 {
			cfg.DisplayCap = number
		}
		if winwidth > 0 {
			cfg.Winwidth = winwidth
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanupLogging()
	},
}

// setupLogging keeps stdout clean for the wire: logs go to stderr, or to
// a file when --log-file is given.
func setupLogging() error {
	log.SetReportTimestamp(true)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if logPath == "" {
		return nil
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	log.SetOutput(f)
	return nil
}

func cleanupLogging() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sift version %s\n", version)
	},
}

// version is stamped by the release build via -ldflags.
var version = "dev"

func init() {
	rootCmd.PersistentFlags().IntVar(&number, "number", 0, "Maximum number of results to display")
	rootCmd.PersistentFlags().IntVar(&winwidth, "winwidth", 0, "Display window width")
	rootCmd.PersistentFlags().StringVar(&iconMode, "icon", "", "Icon decoration mode (file|grep)")
	rootCmd.PersistentFlags().StringVar(&caseMatching, "case-matching", "smart", "Case matching mode (smart|respect|ignore)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "Redirect logs to a file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(rpcCmd)
	rootCmd.AddCommand(forerunnerCmd)
}

// Execute runs the CLI. Fatal errors land on stderr with a non-zero
// exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
