package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "derby", cmd.Use)
	assert.Contains(t, cmd.Long, "roster")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"roster", "schedule", "run", "serve", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("seed"))
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"journal", "metrics-addr", "hold-per-meter", "interactive"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "i", runCmd.Flags().Lookup("interactive").Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "roster", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}

func TestLoadConfig(t *testing.T) {
	opts := &RootOptions{Seed: 9, SeedSet: true}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(9), *cfg.Seed)

	opts = &RootOptions{}
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Seed)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.cue")
	require.NoError(t, os.WriteFile(path, []byte("seed: 3\nroster_size: 12\nentrants: 4\n"), 0644))

	opts := &RootOptions{Config: path, Seed: 5, SeedSet: true}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.RosterSize)
	assert.Equal(t, 4, cfg.Plan.Entrants)
	assert.Equal(t, uint64(5), *cfg.Seed, "--seed overrides the file")
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race.cue")
	require.NoError(t, os.WriteFile(path, []byte("roster_size: \"many\"\n"), 0644))

	_, err := (&RootOptions{Config: path}).loadConfig()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
