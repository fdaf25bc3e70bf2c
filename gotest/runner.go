package gotest

import (
	"io"
	"os"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
)

// RunParams ...
type RunParams struct {
	WorkDir string
	// Args are passed to `go test -json`, packages included.
	Args []string
	// RawOutput receives the unmodified test2json stream, optional.
	RawOutput io.Writer
}

// RunResult ...
type RunResult struct {
	Summary  Summary
	ExitCode int
}

// Runner runs `go test -json` and feeds its events to a listener while it runs.
type Runner interface {
	Run(params RunParams, listener Listener) (RunResult, error)
}

type runner struct {
	logger         log.Logger
	commandFactory command.Factory
	parser         Parser
}

// NewRunner ...
func NewRunner(logger log.Logger, commandFactory command.Factory, parser Parser) Runner {
	return &runner{
		logger:         logger,
		commandFactory: commandFactory,
		parser:         parser,
	}
}

func (r *runner) Run(params RunParams, listener Listener) (RunResult, error) {
	reader, writer := io.Pipe()

	var stream io.Reader = reader
	if params.RawOutput != nil {
		stream = io.TeeReader(reader, params.RawOutput)
	}

	var (
		summary  Summary
		parseErr error
		done     = make(chan struct{})
	)
	go func() {
		defer close(done)
		summary, parseErr = r.parser.Parse(stream, listener)
		// unblock the test process if parsing stopped early
		_, _ = io.Copy(io.Discard, reader)
	}()

	cmd := r.commandFactory.Create("go", append([]string{"test", "-json"}, params.Args...), &command.Opts{
		Stdout: writer,
		Stderr: os.Stderr,
		Dir:    params.WorkDir,
	})

	r.logger.TPrintf("$ %s", cmd.PrintableCommandArgs())

	exitCode, err := cmd.RunAndReturnExitCode()
	_ = writer.Close()
	<-done

	result := RunResult{Summary: summary, ExitCode: exitCode}
	if err != nil && exitCode <= 0 {
		return result, err
	}
	if parseErr != nil {
		return result, parseErr
	}

	return result, nil
}
