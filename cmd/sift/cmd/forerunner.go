package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrepeneur4lyf/sift/internal/cache"
)

var forerunnerDir string

var forerunnerCmd = &cobra.Command{
	Use:   "ripgrep-forerunner",
	Short: "Warm the on-disk ripgrep cache for a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := forerunnerDir
		if dir == "" {
			var err error
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}
		rg := cache.NewRgCommand(dir)
		path, total, err := rg.CreateCache(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("cache created at %s (%d lines)\n", path, total)
		return nil
	},
}

func init() {
	forerunnerCmd.Flags().StringVar(&forerunnerDir, "cmd-dir", "", "Directory to index (defaults to the current directory)")
}
