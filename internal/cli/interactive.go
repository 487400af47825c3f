package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/dyike/bestfour/internal/codes"
)

// newInteractiveCmd creates the interactive command
func newInteractiveCmd(flags *globalFlags, o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for codes and show verdicts until exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, o)
			if err != nil {
				return err
			}
			defer a.Close()

			err = runInteractive(cmd.Context(), cmd.OutOrStdout(), a)
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		},
	}
}

func runInteractive(ctx context.Context, out io.Writer, a *app) error {
	idx, err := codes.NewIndex(a.registry)
	if err != nil {
		return err
	}
	defer idx.Close()

	for {
		input, err := PromptForCode()
		if err != nil {
			return err
		}

		code := input
		if isSearchQuery(input) {
			hits, err := idx.Search(input, 10)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(out, RenderCodeList(hits))
				continue
			}
			if code, err = PromptForMatch(hits); err != nil {
				return err
			}
		}

		fmt.Fprintln(out, RenderResult(a.analyzer.Analyze(ctx, code)))

		again, err := PromptForRestartOrExit()
		if err != nil || !again {
			return err
		}
	}
}
