// Package cmd is the command line interface for training and comparing
// tic-tac-toe policies.
package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tictactoe-rl",
		Short:        "Solve tic-tac-toe with dynamic programming and Q-learning",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(cmd.ErrOrStderr())
			if err := flags.Validate(); err != nil {
				return err
			}
			return errors.Wrap(flags.Record(), "recording config")
		},
	}
	flags.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		ValueIterationCommand(),
		PolicyIterationCommand(),
		QLearningCommand(),
		CompareCommand(),
		ShowCommand(),
	)

	return cmd
}
