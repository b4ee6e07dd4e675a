package main

import (
	"github.com/spf13/cobra"

	"github.com/hejijunhao/kimo/internal/server"
	"github.com/hejijunhao/kimo/internal/tui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd, setupOpts{background: true})
		if err != nil {
			return err
		}
		defer s.Close()

		addr := serveAddr
		if addr == "" {
			addr = s.cfg.Server.Addr
		}
		return server.New(s.Assistant).ListenAndServe(cmd.Context(), addr)
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd, setupOpts{background: true, quietLogs: true})
		if err != nil {
			return err
		}
		defer s.Close()
		return tui.Run(cmd.Context(), s.Assistant, s.term)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}
