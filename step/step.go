package step

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/progress"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
	"github.com/bitrise-steplib/steps-spira-test-report/filesystem"
	"github.com/bitrise-steplib/steps-spira-test-report/goversion"
	"github.com/bitrise-steplib/steps-spira-test-report/gotest"
	"github.com/bitrise-steplib/steps-spira-test-report/output"
	"github.com/bitrise-steplib/steps-spira-test-report/screenshots"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
	"github.com/hashicorp/go-version"
	shellquote "github.com/kballard/go-shellquote"
)

const (
	minSupportedGoVersion = "1.14"
	defaultProtocol       = "https"
	defaultRunnerName     = "Bitrise"
	defaultScreenshotRoot = "screenshots"
	httpTimeout           = 2 * time.Minute
)

// Input ...
type Input struct {
	// SpiraTest connection
	Protocol   string          `env:"spira_protocol"`
	Host       string          `env:"spira_host,required"`
	Port       int             `env:"spira_port"`
	VirtualDir string          `env:"spira_vdir"`
	Login      string          `env:"spira_login,required"`
	APIKey     stepconf.Secret `env:"spira_api_key,required"`

	// Test run routing
	ProjectID       int    `env:"project_id,required"`
	ReleaseID       int    `env:"release_id"`
	TestSetID       int    `env:"test_set_id"`
	TestCaseMapping string `env:"test_case_mapping"`
	RunnerName      string `env:"runner_name"`

	// Test results source
	TestResultsPath string `env:"test_results_path"`
	GoTestArgs      string `env:"go_test_args"`
	GoTestWorkDir   string `env:"go_test_workdir"`

	// Screenshots
	ScreenshotRoot    string `env:"screenshot_root"`
	UploadConcurrency int    `env:"upload_concurrency"`
	HTTPRetryMax      int    `env:"http_retry_max"`
	ExportScreenshots string `env:"export_screenshots,opt[always,never,on_failure]"`

	// Debug
	Verbose bool `env:"verbose_log,opt[yes,no]"`

	// Output export
	DeployDir string `env:"BITRISE_DEPLOY_DIR"`
}

// Config ...
type Config struct {
	Connection  spira.Connection
	Collector   collector.Config
	Screenshots screenshots.Config

	TestResultsPath string
	GoTestArgs      []string
	GoTestWorkDir   string

	ExportScreenshots exportCondition
	DeployDir         string
}

// RunsTests tells whether the step runs `go test` itself instead of reading a results file.
func (c Config) RunsTests() bool {
	return c.TestResultsPath == ""
}

// ConfigParser ...
type ConfigParser struct {
	inputParser     stepconf.InputParser
	logger          log.Logger
	goVersionReader goversion.Reader
	pathChecker     pathutil.PathChecker
}

// NewConfigParser ...
func NewConfigParser(inputParser stepconf.InputParser, logger log.Logger, goVersionReader goversion.Reader, pathChecker pathutil.PathChecker) ConfigParser {
	return ConfigParser{
		inputParser:     inputParser,
		logger:          logger,
		goVersionReader: goVersionReader,
		pathChecker:     pathChecker,
	}
}

// ProcessConfig ...
func (p ConfigParser) ProcessConfig() (Config, error) {
	var input Input
	if err := p.inputParser.Parse(&input); err != nil {
		return Config{}, err
	}

	stepconf.Print(input)
	p.logger.Println()

	p.logger.EnableDebugLog(input.Verbose)

	protocol := input.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	if protocol != "https" && protocol != "http" {
		return Config{}, fmt.Errorf("invalid SpiraTest protocol (spira_protocol): %s, should be https or http", protocol)
	}

	if input.Port < 0 || input.Port > 65535 {
		return Config{}, fmt.Errorf("invalid SpiraTest port (spira_port): %d", input.Port)
	}

	if input.ProjectID <= 0 {
		return Config{}, fmt.Errorf("invalid SpiraTest project id (project_id): %d, should be a positive number", input.ProjectID)
	}

	if input.ReleaseID < 0 || input.TestSetID < 0 {
		return Config{}, errors.New("SpiraTest release id (release_id) and test set id (test_set_id) can not be negative")
	}

	mapping, err := ParseTestCaseMapping(input.TestCaseMapping)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse test case mapping (test_case_mapping): %w", err)
	}
	if len(mapping) == 0 {
		p.logger.Warnf("Test case mapping (test_case_mapping) is empty, the test run won't be reported to SpiraTest")
	}
	for name, id := range mapping {
		if _, ok := spira.ParseID(id); !ok {
			p.logger.Warnf("Test case mapping for %s has an invalid test case id: %s", name, id)
		}
	}

	if input.UploadConcurrency < 0 {
		return Config{}, fmt.Errorf("invalid upload concurrency (upload_concurrency): %d", input.UploadConcurrency)
	}
	concurrency := input.UploadConcurrency
	if concurrency == 0 {
		concurrency = screenshots.DefaultConcurrency
	}

	if input.HTTPRetryMax < 0 {
		return Config{}, fmt.Errorf("invalid http retry count (http_retry_max): %d", input.HTTPRetryMax)
	}

	screenshotRoot := input.ScreenshotRoot
	if screenshotRoot == "" {
		screenshotRoot = defaultScreenshotRoot
	}

	runnerName := input.RunnerName
	if runnerName == "" {
		runnerName = defaultRunnerName
	}

	config := Config{
		Connection: spira.Connection{
			Protocol:    protocol,
			Host:        input.Host,
			Port:        input.Port,
			VirtualDir:  input.VirtualDir,
			Login:       input.Login,
			APIKey:      string(input.APIKey),
			RetryMax:    input.HTTPRetryMax,
			HTTPTimeout: httpTimeout,
		},
		Collector: collector.Config{
			ProjectID:  input.ProjectID,
			ReleaseID:  input.ReleaseID,
			TestSetID:  input.TestSetID,
			RunnerName: runnerName,
			Mapping:    mapping,
		},
		Screenshots: screenshots.Config{
			Root:        screenshotRoot,
			ProjectID:   input.ProjectID,
			Concurrency: concurrency,
		},
		GoTestWorkDir:     input.GoTestWorkDir,
		ExportScreenshots: parseExportCondition(input.ExportScreenshots),
		DeployDir:         input.DeployDir,
	}

	hasResults := strings.TrimSpace(input.TestResultsPath) != ""
	hasArgs := strings.TrimSpace(input.GoTestArgs) != ""
	switch {
	case hasResults && hasArgs:
		return Config{}, errors.New("test results path (test_results_path) and go test arguments (go_test_args) can not be used together")
	case !hasResults && !hasArgs:
		return Config{}, errors.New("either test results path (test_results_path) or go test arguments (go_test_args) is required")
	case hasResults:
		exists, err := p.pathChecker.IsPathExists(input.TestResultsPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to check test results path (%s): %w", input.TestResultsPath, err)
		}
		if !exists {
			return Config{}, fmt.Errorf("test results file does not exist: %s", input.TestResultsPath)
		}
		config.TestResultsPath = input.TestResultsPath
	default:
		args, err := shellquote.Split(input.GoTestArgs)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse go test arguments (go_test_args): %w", err)
		}
		config.GoTestArgs = args

		if err := p.validateGoVersion(); err != nil {
			return Config{}, err
		}
	}

	return config, nil
}

func (p ConfigParser) validateGoVersion() error {
	goVersion, err := p.goVersionReader.Version()
	if err != nil {
		p.logger.Warnf("Failed to determine Go version: %s", err)
		return nil
	}
	p.logger.Printf("- goVersion: %s", goVersion.String())

	minVersion := version.Must(version.NewVersion(minSupportedGoVersion))
	if goVersion.LessThan(minVersion) {
		return fmt.Errorf("invalid Go version (%s), should not be less then min supported: %s", goVersion.String(), minSupportedGoVersion)
	}

	return nil
}

// SpiraTestReporter ...
type SpiraTestReporter struct {
	logger         log.Logger
	parser         gotest.Parser
	runner         gotest.Runner
	fileSystem     filesystem.FileSystem
	outputExporter output.Exporter
}

// NewSpiraTestReporter ...
func NewSpiraTestReporter(logger log.Logger, parser gotest.Parser, runner gotest.Runner, fileSystem filesystem.FileSystem, outputExporter output.Exporter) SpiraTestReporter {
	return SpiraTestReporter{
		logger:         logger,
		parser:         parser,
		runner:         runner,
		fileSystem:     fileSystem,
		outputExporter: outputExporter,
	}
}

// Result ...
type Result struct {
	Summary     gotest.Summary
	TestsFailed bool
	GoTestLog   string
	Report      collector.Result
	ReportErr   error
}

// Run feeds the test outcomes to the collector and waits for the report to finish.
func (s SpiraTestReporter) Run(ctx context.Context, cfg Config, resultCollector collector.Collector) (Result, error) {
	var result Result

	resultCollector.OnStart()

	if cfg.RunsTests() {
		s.logger.Println()
		s.logger.Infof("Running tests")

		var rawOutput bytes.Buffer
		runResult, err := s.runner.Run(gotest.RunParams{
			WorkDir:   cfg.GoTestWorkDir,
			Args:      cfg.GoTestArgs,
			RawOutput: &rawOutput,
		}, resultCollector)
		if err != nil {
			return Result{}, fmt.Errorf("failed to run go test: %w", err)
		}

		result.Summary = runResult.Summary
		result.GoTestLog = rawOutput.String()
		result.TestsFailed = runResult.ExitCode != 0 || runResult.Summary.HasFailures()
	} else {
		s.logger.Println()
		s.logger.Infof("Reading test results from %s", cfg.TestResultsPath)

		summary, err := s.parseResultsFile(cfg.TestResultsPath, resultCollector)
		if err != nil {
			return Result{}, err
		}
		result.Summary = summary
	}

	printSummary(s.logger, result.Summary)

	s.logger.Println()
	submission := resultCollector.OnEnd(ctx)

	progress.NewDefaultWrapper("Waiting for SpiraTest").WrapAction(func() {
		result.Report, result.ReportErr = submission.WaitContext(ctx)
	})
	if result.ReportErr != nil {
		s.logger.Warnf("Failed to report test run to SpiraTest: %s", result.ReportErr)
	}

	return result, nil
}

func (s SpiraTestReporter) parseResultsFile(pth string, listener gotest.Listener) (gotest.Summary, error) {
	f, err := s.fileSystem.Open(pth)
	if err != nil {
		return gotest.Summary{}, fmt.Errorf("failed to open test results (%s): %w", pth, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warnf("Failed to close test results file: %s", err)
		}
	}()

	return s.parser.Parse(f, listener)
}

// Export ...
func (s SpiraTestReporter) Export(cfg Config, result Result) {
	s.logger.Println()
	s.logger.Infof("Export outputs")

	s.outputExporter.ExportTestRunResult(result.Report)

	if cfg.DeployDir == "" {
		return
	}

	if shouldExportScreenshots(cfg.ExportScreenshots, result.Report) {
		if err := s.outputExporter.ExportScreenshots(cfg.DeployDir, result.Report.Screenshots.Dir); err != nil {
			s.logger.Warnf("Failed to export screenshots: %s", err)
		}
	}

	if result.GoTestLog != "" {
		if err := s.outputExporter.ExportGoTestLog(cfg.DeployDir, result.GoTestLog); err != nil {
			s.logger.Warnf("Failed to export go test output: %s", err)
		} else {
			printGoTestLogHint(s.logger)
		}
	}
}
