package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCommand(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	LogCommand("/bin/sh", []string{"-c", "bundle exec rspec spec"})

	output := buf.String()
	assert.Contains(t, output, "/bin/sh")
	assert.Contains(t, output, "bundle exec rspec spec")
	assert.Contains(t, output, "Executing command")
}

func TestLogDuration(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	start := time.Now().Add(-5 * time.Second)
	LogDuration(start, "rollback")

	output := buf.String()
	assert.Contains(t, output, "rollback")
	assert.Contains(t, output, "duration")
	assert.True(t, strings.Contains(output, "5") || strings.Contains(output, "5000"))
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	done := LogOperationStart(logger, "copy_file")
	done()

	output := buf.String()
	assert.Contains(t, output, "Operation started")
	assert.Contains(t, output, "Operation completed")
	assert.Equal(t, 2, strings.Count(output, "copy_file"))
}

func TestMust_NoError(t *testing.T) {
	assert.NotPanics(t, func() {
		Must(nil, "this should not panic")
	})
}

func TestMust_WithError(t *testing.T) {
	if os.Getenv("BE_CRASHER") == "1" {
		Must(errors.New("test error"), "expected exit")
		return
	}

	// Must exits the process, so run it in a subprocess
	cmd := os.Args[0]
	args := []string{"-test.run=TestMust_WithError"}
	env := append(os.Environ(), "BE_CRASHER=1")

	proc := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}

	process, err := os.StartProcess(cmd, append([]string{cmd}, args...), proc)
	require.NoError(t, err)

	state, err := process.Wait()
	require.NoError(t, err)

	assert.False(t, state.Success(), "process should have exited with error")
}
