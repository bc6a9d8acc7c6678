package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zeu5/tictactoe-rl/core"
	"github.com/zeu5/tictactoe-rl/tictactoe"
)

func ValueIterationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vi",
		Short: "Solve the game with value iteration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(cmd.OutOrStdout(), valueIteration)
		},
	}
}

func PolicyIterationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pi",
		Short: "Solve the game with policy iteration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(cmd.OutOrStdout(), policyIteration)
		},
	}
}

func QLearningCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ql",
		Short: "Learn a policy with tabular Q-learning against the opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(cmd.OutOrStdout(), qLearning)
		},
	}
}

func CompareCommand() *cobra.Command {
	var experiments []string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Train several solvers and compare their policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, e := range experiments {
				if !contains(allExperiments, e) {
					return errors.Errorf("unknown experiment %q, expected one of %v", e, allExperiments)
				}
			}
			return runExperiments(cmd.OutOrStdout(), experiments...)
		},
	}
	cmd.Flags().StringSliceVar(&experiments, "experiments", allExperiments, "Experiments to compare")
	return cmd
}

func ShowCommand() *cobra.Command {
	var games int
	var noColor bool
	cmd := &cobra.Command{
		Use:   "show <policy.json>",
		Short: "Play games with a saved policy and print every position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := tictactoe.ReadPolicy(args[0])
			if err != nil {
				return err
			}
			mdp := tictactoe.NewMDP(flags.Rewards)
			opponent, err := newOpponent(seed(evaluationOpponentStream))
			if err != nil {
				return err
			}
			env := tictactoe.NewEnv(flags.Rewards, opponent)
			out := cmd.OutOrStdout()
			for game := 0; game < games; game++ {
				fmt.Fprintf(out, "Game %d\n", game)
				if err := showGame(cmd, mdp, env, policy, !noColor); err != nil {
					return errors.WithMessagef(err, "game %d", game)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&games, "games", 1, "Number of games to play")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")
	return cmd
}

func showGame(cmd *cobra.Command, space core.StateSpace, env core.Environment, policy *core.Policy, colors bool) error {
	out := cmd.OutOrStdout()
	s, err := env.Reset()
	if err != nil {
		return err
	}
	ret := float64(0)
	for !space.IsTerminal(s) {
		g := s.(tictactoe.Game)
		tictactoe.RenderPolicy(out, g, policy, colors)
		a, ok := policy.ActionFor(g)
		if !ok {
			return errors.Wrapf(core.ErrUnknownState, "policy has no action for %s", g.Hash())
		}
		o, err := env.ExecuteMove(a)
		if err != nil {
			return err
		}
		ret += o.Reward
		s = o.NextState
		fmt.Fprintln(out)
	}
	tictactoe.Render(out, s.(tictactoe.Game), nil, colors)
	fmt.Fprintf(out, "Result: %s, return %.2f\n\n", tictactoe.Judge(s, ret), ret)
	return nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
