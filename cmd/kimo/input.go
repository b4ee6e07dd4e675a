package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/kimo/internal/upload"
	"github.com/hejijunhao/kimo/pkg/kimo"
)

var voiceTranscript string

var askCmd = &cobra.Command{
	Use:   "ask <text...>",
	Short: "Ask a question or run a web search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchOnce(cmd, kimo.Submit{Text: strings.Join(args, " ")})
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Analyze an image or score a plain-text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := upload.File(args[0])
		if err != nil {
			return err
		}
		return dispatchOnce(cmd, in)
	},
}

var drawCmd = &cobra.Command{
	Use:   "draw <png>",
	Short: "Recognize handwriting in a drawing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := upload.Drawing(args[0])
		if err != nil {
			return err
		}
		return dispatchOnce(cmd, in)
	},
}

var voiceCmd = &cobra.Command{
	Use:   "voice [audio]",
	Short: "Transcribe a recording and print the text for the input field",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in kimo.Input = kimo.Voice{Transcript: voiceTranscript}
		if len(args) == 1 {
			var err error
			if in, err = upload.Voice(args[0]); err != nil {
				return err
			}
		} else if voiceTranscript == "" {
			return fmt.Errorf("an audio file or --transcript is required")
		}

		s, err := setup(cmd, setupOpts{display: true, out: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer s.Close()

		res := s.Dispatch(cmd.Context(), in)
		if res.Prefill == "" {
			return errFailed
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Prefill)
		return nil
	},
}

func init() {
	voiceCmd.Flags().StringVar(&voiceTranscript, "transcript", "",
		"Use this transcript instead of an audio file")
}

func dispatchOnce(cmd *cobra.Command, in kimo.Input) error {
	s, err := setup(cmd, setupOpts{display: true, out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer s.Close()

	if failed(s.Dispatch(cmd.Context(), in)) {
		return errFailed
	}
	return nil
}
