package main

import (
	"context"
	"os"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-steputils/v2/stepenv"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
	"github.com/bitrise-steplib/steps-spira-test-report/filesystem"
	"github.com/bitrise-steplib/steps-spira-test-report/goversion"
	"github.com/bitrise-steplib/steps-spira-test-report/gotest"
	"github.com/bitrise-steplib/steps-spira-test-report/output"
	"github.com/bitrise-steplib/steps-spira-test-report/screenshots"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
	"github.com/bitrise-steplib/steps-spira-test-report/step"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()
	envRepository := env.NewRepository()
	commandFactory := command.NewFactory(envRepository)
	pathChecker := pathutil.NewPathChecker()
	fileSystem := filesystem.NewFileSystem()

	configParser := step.NewConfigParser(stepconf.NewInputParser(envRepository), logger, goversion.NewGoVersionReader(commandFactory), pathChecker)
	config, err := configParser.ProcessConfig()
	if err != nil {
		logger.Errorf("Process config: %s", err)
		return 1
	}

	client := spira.NewClient(config.Connection, logger)
	uploader := screenshots.NewUploader(config.Screenshots, client, fileSystem, pathChecker, logger)
	resultCollector := collector.NewCollector(config.Collector, client, uploader, logger)

	parser := gotest.NewParser(logger)
	reporter := step.NewSpiraTestReporter(
		logger,
		parser,
		gotest.NewRunner(logger, commandFactory, parser),
		fileSystem,
		output.NewExporter(stepenv.NewRepository(envRepository), fileutil.NewFileManager(), logger),
	)

	result, runErr := reporter.Run(context.Background(), config, resultCollector)
	reporter.Export(config, result)

	if runErr != nil {
		logger.Errorf("Run: %s", runErr)
		return 1
	}
	if result.TestsFailed {
		logger.Errorf("Tests failed")
		return 1
	}

	return 0
}
