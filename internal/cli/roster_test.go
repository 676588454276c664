package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/derby/internal/model"
	"github.com/roach88/derby/internal/roster"
)

func TestRosterCommand_Text(t *testing.T) {
	out, err := execute(t, "roster", "--count", "5", "--seed", "7")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "CONDITION")
	assert.Len(t, splitLines(out), 6, "header plus one line per horse")
}

func TestRosterCommand_JSON(t *testing.T) {
	out, err := execute(t, "roster", "--count", "8", "--seed", "7", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []model.Horse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 8)
	assert.NoError(t, roster.Validate(resp.Data))
}

func TestRosterCommand_SeedIsDeterministic(t *testing.T) {
	first, err := execute(t, "roster", "--seed", "11", "--format", "json")
	require.NoError(t, err)
	second, err := execute(t, "roster", "--seed", "11", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRosterCommand_TooMany(t *testing.T) {
	_, err := execute(t, "roster", "--count", "1000")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "exceeds catalog capacity")
}

func TestRosterCommand_TooManyJSONEnvelope(t *testing.T) {
	out, err := execute(t, "roster", "--count", "1000", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeConfig, resp.Error.Code)
	assert.Equal(t, "invalid settings", resp.Error.Message)
	assert.Contains(t, resp.Error.Details, "exceeds catalog capacity")
}

func TestRosterCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, "roster", "extra")
	require.Error(t, err)
}
