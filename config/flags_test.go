package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/tictactoe-rl/solvers"
)

func TestDefaultFlagsAreValid(t *testing.T) {
	f := DefaultFlags()
	require.NoError(t, f.Validate())
	require.Equal(t, 0.9, f.Gamma)
	require.Equal(t, 10.0, f.Rewards.Win)
	require.Equal(t, -10.0, f.Rewards.Lose)
}

func TestAddFlagsParses(t *testing.T) {
	f := DefaultFlags()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--gamma", "0.5",
		"--episodes", "20",
		"--reward-win", "1",
		"--exact-evaluation",
		"--seed", "7",
	}))
	require.Equal(t, 0.5, f.Gamma)
	require.Equal(t, 20, f.Episodes)
	require.Equal(t, 1.0, f.Rewards.Win)
	require.True(t, f.ExactEvaluation)
	require.Equal(t, uint64(7), f.Seed)

	params := f.SolverParams(zerolog.Nop())
	require.Equal(t, 0.5, params.Gamma)
	require.True(t, params.ExactEvaluation)
}

func TestValidateRejects(t *testing.T) {
	f := DefaultFlags()
	f.Gamma = 1.5
	require.True(t, errors.Is(f.Validate(), solvers.ErrInvalidParams))

	f = DefaultFlags()
	f.Opponent = "perfect"
	require.True(t, errors.Is(f.Validate(), ErrInvalidFlags))

	f = DefaultFlags()
	f.NumRuns = 0
	require.True(t, errors.Is(f.Validate(), ErrInvalidFlags))
}

func TestRecord(t *testing.T) {
	f := DefaultFlags()
	f.SavePath = filepath.Join(t.TempDir(), "out")
	require.NoError(t, f.Record())

	bs, err := os.ReadFile(filepath.Join(f.SavePath, "config.json"))
	require.NoError(t, err)
	var read Flags
	require.NoError(t, json.Unmarshal(bs, &read))
	require.Equal(t, *f, read)
}
