package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"horses": 20})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"horses": float64(20)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeConfig, "invalid settings", []string{"entrants (12) exceed roster_size (10)"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeConfig, resp.Error.Code)
	assert.Equal(t, "invalid settings", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("Race finished"))
	assert.Equal(t, "Race finished\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	require.NoError(t, formatter.Error("E_RUN_FAILED", "run failed", "details hidden"))
	assert.Contains(t, buf.String(), "Error [E_RUN_FAILED]: run failed")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	require.NoError(t, formatter.Error("E_RUN_FAILED", "run failed", "run 3"))
	assert.Contains(t, buf.String(), "Details: run 3")
}

func TestOutputFormatter_Render(t *testing.T) {
	text := func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "as text")
		return err
	}

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Render([]int{1, 2}, text))
	assert.Equal(t, "as text\n", buf.String())

	buf.Reset()
	f.Format = "json"
	require.NoError(t, f.Render([]int{1, 2}, text))
	assert.JSONEq(t, `{"status":"ok","data":[1,2]}`, buf.String())
}

func TestOutputFormatter_FailJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	cause := errors.New("pools exhausted")
	err := commandError(CodeCapacity, "not enough unique values", cause)
	assert.Same(t, err, f.Fail(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCapacity, resp.Error.Code)
	assert.Equal(t, "not enough unique values", resp.Error.Message)
	assert.Equal(t, "pools exhausted", resp.Error.Details)

	// A second report of the same error writes nothing.
	buf.Reset()
	require.Error(t, f.Fail(fmt.Errorf("wrapped: %w", err)))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_FailText(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantErr string
	}{
		{"quiet", false, ""},
		{"verbose", true, "Error [E_JOURNAL]: failed to open journal\nDetails: disk full\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, ErrWriter: errBuf, Verbose: tt.verbose}

			require.Error(t, f.Fail(commandError(CodeJournal, "failed to open journal", errors.New("disk full"))))
			assert.Empty(t, buf.String())
			assert.Equal(t, tt.wantErr, errBuf.String())
		})
	}
}

func TestOutputFormatter_FailPassesThrough(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	assert.NoError(t, f.Fail(nil))
	plain := errors.New("plain")
	assert.Same(t, plain, f.Fail(plain))
	assert.Empty(t, buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := commandError(CodeJournal, "failed to open journal", cause)

	assert.Equal(t, "failed to open journal: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))

	failed := raceFailure(CodeTestFailed, "2 scenario(s) failed", nil)
	assert.Equal(t, "2 scenario(s) failed", failed.Error())
	assert.Equal(t, ExitFailure, GetExitCode(failed))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
