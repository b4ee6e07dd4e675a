package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the session history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd, setupOpts{jsonLogs: historyJSON, noModels: true})
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		entries := s.History()
		if historyJSON {
			data, err := sonic.ConfigStd.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-11s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Summary())
		}
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:       "theme [toggle]",
	Short:     "Show or toggle the light/dark display preference",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := setup(cmd, setupOpts{noModels: true})
		if err != nil {
			return err
		}
		defer s.Close()

		t := s.Theme()
		if len(args) == 1 {
			if t, err = s.ToggleTheme(cmd.Context()); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
}
