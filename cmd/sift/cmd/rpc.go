package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/entrepeneur4lyf/sift/internal/printer"
	"github.com/entrepeneur4lyf/sift/internal/rpc"
	"github.com/entrepeneur4lyf/sift/internal/session"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Serve the editor front-end over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := printer.NewWriter(os.Stdout)
		manager := session.NewManager(cfg, out)
		log.Debug("Starting rpc loop")
		return rpc.Loop(os.Stdin, manager.HandleCall)
	},
}
