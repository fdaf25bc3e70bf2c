package gotest

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeGoScript = `#!/bin/sh
echo "$@" > "$(dirname "$0")/args.txt"
cat <<'EOF'
{"Action":"run","Package":"p","Test":"TestA"}
{"Action":"pass","Package":"p","Test":"TestA"}
{"Action":"run","Package":"p","Test":"TestB"}
{"Action":"output","Package":"p","Test":"TestB","Output":"    b_test.go:10: boom\n"}
{"Action":"fail","Package":"p","Test":"TestB"}
{"Action":"fail","Package":"p"}
EOF
exit 1
`

func Test_GivenFailingTests_WhenRunning_ThenStreamsEventsAndReturnsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake go binary is a shell script")
	}

	// Given
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "go"), []byte(fakeGoScript), 0o755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	logger := log.NewLogger()
	runner := NewRunner(logger, command.NewFactory(env.NewRepository()), NewParser(logger))
	listener := &recordingListener{}
	var rawOutput bytes.Buffer

	// When
	result, err := runner.Run(RunParams{Args: []string{"-count=1", "./..."}, RawOutput: &rawOutput}, listener)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, Summary{Passed: 1, Failed: 1}, result.Summary)
	require.Len(t, listener.outcomes, 2)
	assert.Equal(t, "b_test.go:10: boom", listener.outcomes[1].message)
	assert.Contains(t, rawOutput.String(), `"Test":"TestB"`)

	args, err := os.ReadFile(filepath.Join(binDir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "test -json -count=1 ./...\n", string(args))
}
