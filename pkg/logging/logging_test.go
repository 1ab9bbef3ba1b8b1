package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "msnbc.log")

	logger, closer, err := Setup(Options{File: path, Level: "info", Console: &console, RunID: "run-1"})
	require.NoError(t, err)

	logger.Info().Str("component", "test").Msg("hello")
	logger.Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"run_id":"run-1"`)
	assert.Contains(t, line, `"message":"hello"`)
	assert.Contains(t, line, `"level":"info"`)
	assert.NotContains(t, string(data), "hidden")

	assert.Contains(t, console.String(), "hello")
	assert.NotContains(t, console.String(), "hidden")
}

func TestSetupAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msnbc.log")

	for i := 0; i < 2; i++ {
		logger, closer, err := Setup(Options{File: path, Console: &bytes.Buffer{}})
		require.NoError(t, err)
		logger.Warn().Msg("line")
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), `"level":"warn"`))
}

func TestSetupGeneratesRunID(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "msnbc.log")

	logger, closer, err := Setup(Options{File: path, Console: &console})
	require.NoError(t, err)
	logger.Info().Msg("x")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	idx := strings.Index(string(data), `"run_id":"`)
	require.GreaterOrEqual(t, idx, 0)
	start := idx + len(`"run_id":"`)
	_, err = uuid.Parse(string(data)[start : start+36])
	assert.NoError(t, err)
}

func TestSetupBadLevel(t *testing.T) {
	_, _, err := Setup(Options{Level: "loud", Console: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestSetupWithoutFile(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Setup(Options{Console: &console})
	require.NoError(t, err)
	logger.Info().Msg("only console")
	assert.NoError(t, closer.Close())
	assert.Contains(t, console.String(), "only console")
}
