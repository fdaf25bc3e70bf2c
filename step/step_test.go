package step

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
	collectormocks "github.com/bitrise-steplib/steps-spira-test-report/collector/mocks"
	"github.com/bitrise-steplib/steps-spira-test-report/filesystem"
	"github.com/bitrise-steplib/steps-spira-test-report/gotest"
	"github.com/bitrise-steplib/steps-spira-test-report/screenshots"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
	"github.com/bitrise-steplib/steps-spira-test-report/step/mocks"
	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stepMocks struct {
	runner         *mocks.Runner
	outputExporter *mocks.Exporter
}

const resultsStream = `{"Action":"run","Package":"github.com/acme/app/login","Test":"LoginSuite"}
{"Action":"run","Package":"github.com/acme/app/login","Test":"LoginSuite/logs_in"}
{"Action":"pass","Package":"github.com/acme/app/login","Test":"LoginSuite/logs_in","Elapsed":0}
{"Action":"run","Package":"github.com/acme/app/login","Test":"LoginSuite/rejects_bad_password"}
{"Action":"output","Package":"github.com/acme/app/login","Test":"LoginSuite/rejects_bad_password","Output":"    login_test.go:21: expected status 401\n"}
{"Action":"fail","Package":"github.com/acme/app/login","Test":"LoginSuite/rejects_bad_password","Elapsed":0}
{"Action":"fail","Package":"github.com/acme/app/login","Test":"LoginSuite","Elapsed":0}
{"Action":"fail","Package":"github.com/acme/app/login","Elapsed":0.01}
`

func Test_GivenResultsFileInputs_WhenParsesConfig_ThenAppliesDefaults(t *testing.T) {
	// Given
	resultsPath := writeResultsFile(t, resultsStream)
	envValues := defaultEnvValues()
	envValues["test_results_path"] = resultsPath

	configParser := createConfigParser(t, envValues, nil)

	// When
	actualConfig, err := configParser.ProcessConfig()

	// Then
	require.NoError(t, err)

	expectedConfig := Config{
		Connection: spira.Connection{
			Protocol:    "https",
			Host:        "spira.example.com",
			Login:       "fredbloggs",
			APIKey:      "{7A05FD06-83C3-4436-B37F-51BCF0060483}",
			RetryMax:    3,
			HTTPTimeout: httpTimeout,
		},
		Collector: collector.Config{
			ProjectID:  7,
			RunnerName: "Bitrise",
			Mapping:    map[string]string{"LoginSuite": "42"},
		},
		Screenshots: screenshots.Config{
			Root:        "screenshots",
			ProjectID:   7,
			Concurrency: screenshots.DefaultConcurrency,
		},
		TestResultsPath:   resultsPath,
		ExportScreenshots: always,
	}
	require.Equal(t, expectedConfig, actualConfig)
	assert.False(t, actualConfig.RunsTests())
}

func Test_GivenGoTestArgs_WhenParsesConfig_ThenSplitsThem(t *testing.T) {
	// Given
	envValues := defaultEnvValues()
	envValues["go_test_args"] = `-run 'Login Suite' ./...`
	envValues["go_test_workdir"] = "./app"

	configParser := createConfigParser(t, envValues, version.Must(version.NewVersion("1.21.5")))

	// When
	actualConfig, err := configParser.ProcessConfig()

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"-run", "Login Suite", "./..."}, actualConfig.GoTestArgs)
	assert.Equal(t, "./app", actualConfig.GoTestWorkDir)
	assert.True(t, actualConfig.RunsTests())
}

func Test_GivenOldGoVersion_WhenParsesConfig_ThenFails(t *testing.T) {
	// Given
	envValues := defaultEnvValues()
	envValues["go_test_args"] = "./..."

	configParser := createConfigParser(t, envValues, version.Must(version.NewVersion("1.13")))

	// When
	_, err := configParser.ProcessConfig()

	// Then
	require.EqualError(t, err, "invalid Go version (1.13.0), should not be less then min supported: 1.14")
}

func Test_GivenInvalidInputs_WhenParsesConfig_ThenFails(t *testing.T) {
	resultsPath := writeResultsFile(t, resultsStream)

	tests := []struct {
		name      string
		overrides map[string]string
		wantErr   string
	}{
		{
			name:      "both test sources",
			overrides: map[string]string{"test_results_path": resultsPath, "go_test_args": "./..."},
			wantErr:   "test results path (test_results_path) and go test arguments (go_test_args) can not be used together",
		},
		{
			name:      "no test source",
			overrides: map[string]string{},
			wantErr:   "either test results path (test_results_path) or go test arguments (go_test_args) is required",
		},
		{
			name:      "missing results file",
			overrides: map[string]string{"test_results_path": filepath.Join(t.TempDir(), "missing.json")},
			wantErr:   "test results file does not exist: ",
		},
		{
			name:      "unsupported protocol",
			overrides: map[string]string{"test_results_path": resultsPath, "spira_protocol": "ftp"},
			wantErr:   "invalid SpiraTest protocol (spira_protocol): ftp, should be https or http",
		},
		{
			name:      "port out of range",
			overrides: map[string]string{"test_results_path": resultsPath, "spira_port": "70000"},
			wantErr:   "invalid SpiraTest port (spira_port): 70000",
		},
		{
			name:      "negative retry count",
			overrides: map[string]string{"test_results_path": resultsPath, "http_retry_max": "-1"},
			wantErr:   "invalid http retry count (http_retry_max): -1",
		},
		{
			name:      "malformed mapping",
			overrides: map[string]string{"test_results_path": resultsPath, "test_case_mapping": "- 42"},
			wantErr:   "failed to parse test case mapping (test_case_mapping)",
		},
		{
			name:      "unterminated quote in go test args",
			overrides: map[string]string{"go_test_args": "-run 'Login"},
			wantErr:   "failed to parse go test arguments (go_test_args)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			envValues := defaultEnvValues()
			for key, value := range tt.overrides {
				envValues[key] = value
			}
			configParser := createConfigParser(t, envValues, nil)

			// When
			_, err := configParser.ProcessConfig()

			// Then
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func Test_GivenResultsFile_WhenRuns_ThenReportsLastGroupAndUploadsScreenshots(t *testing.T) {
	// Given
	step, _ := createStepAndMocks(t)
	config := Config{
		Collector:       collector.Config{ProjectID: 7, RunnerName: "Bitrise", Mapping: map[string]string{"LoginSuite": "42"}},
		TestResultsPath: writeResultsFile(t, resultsStream),
	}

	client := collectormocks.NewClient(t)
	client.On("RecordTestRun", mock.Anything, 7, mock.MatchedBy(func(testRun spira.TestRun) bool {
		return testRun.TestCaseID == 42 &&
			testRun.ExecutionStatusID == spira.ExecutionStatusFailed &&
			testRun.RunnerTestName == "LoginSuite" &&
			testRun.RunnerMessage == "1 passed, 1 failed out of 2 test(s)." &&
			len(testRun.TestRunSteps) == 2
	})).Return(1001, nil).Once()

	uploads := screenshots.Result{Dir: "screenshots/login", Found: true, Uploaded: 2}
	uploader := collectormocks.NewUploader(t)
	uploader.On("Upload", mock.Anything, "github.com/acme/app/login", 1001).Return(uploads, nil).Once()

	resultCollector := collector.NewCollector(config.Collector, client, uploader, log.NewLogger())

	// When
	result, err := step.Run(context.Background(), config, resultCollector)

	// Then
	require.NoError(t, err)
	require.NoError(t, result.ReportErr)
	assert.Equal(t, gotest.Summary{Passed: 1, Failed: 1}, result.Summary)
	assert.False(t, result.TestsFailed)
	assert.Equal(t, 1001, result.Report.TestRunID)
	assert.Equal(t, uploads, result.Report.Screenshots)
	assert.Equal(t, collector.StateDone, resultCollector.State())
}

func Test_GivenUnmappedGroup_WhenRuns_ThenSkipsReporting(t *testing.T) {
	// Given
	step, _ := createStepAndMocks(t)
	config := Config{
		Collector:       collector.Config{ProjectID: 7, Mapping: map[string]string{}},
		TestResultsPath: writeResultsFile(t, resultsStream),
	}
	client := collectormocks.NewClient(t)
	uploader := collectormocks.NewUploader(t)
	resultCollector := collector.NewCollector(config.Collector, client, uploader, log.NewLogger())

	// When
	result, err := step.Run(context.Background(), config, resultCollector)

	// Then
	require.NoError(t, err)
	assert.True(t, result.Report.Skipped)
	assert.Equal(t, collector.StateSkipped, resultCollector.State())
	client.AssertNotCalled(t, "RecordTestRun", mock.Anything, mock.Anything, mock.Anything)
}

func Test_GivenGoTestArgs_WhenRuns_ThenFeedsRunnerEventsToCollector(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	config := Config{
		Collector:     collector.Config{ProjectID: 7, Mapping: map[string]string{"LoginSuite": "42"}},
		GoTestArgs:    []string{"./..."},
		GoTestWorkDir: "./app",
	}

	suite := &collector.Suite{Title: "LoginSuite", Parent: &collector.Suite{Title: "p", File: "p"}}
	mocks.runner.On("Run", mock.MatchedBy(func(params gotest.RunParams) bool {
		return params.WorkDir == "./app" && len(params.Args) == 1 && params.RawOutput != nil
	}), mock.Anything).Return(func(params gotest.RunParams, listener gotest.Listener) (gotest.RunResult, error) {
		_, _ = io.WriteString(params.RawOutput, `{"Action":"fail","Package":"p"}`)
		listener.OnFail(collector.Test{Title: "rejects_bad_password", Parent: suite}, errors.New("expected status 401"))
		return gotest.RunResult{Summary: gotest.Summary{Failed: 1}, ExitCode: 1}, nil
	}).Once()

	client := collectormocks.NewClient(t)
	client.On("RecordTestRun", mock.Anything, 7, mock.Anything).Return(0, errors.New("got unexpected http 401 status code")).Once()
	uploader := collectormocks.NewUploader(t)
	resultCollector := collector.NewCollector(config.Collector, client, uploader, log.NewLogger())

	// When
	result, err := step.Run(context.Background(), config, resultCollector)

	// Then
	require.NoError(t, err)
	assert.True(t, result.TestsFailed)
	assert.Equal(t, `{"Action":"fail","Package":"p"}`, result.GoTestLog)
	require.EqualError(t, result.ReportErr, "got unexpected http 401 status code")
	assert.Equal(t, 0, result.Report.TestRunID)
}

func Test_GivenRunnerError_WhenRuns_ThenFails(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	config := Config{GoTestArgs: []string{"./..."}}
	mocks.runner.On("Run", mock.Anything, mock.Anything).Return(gotest.RunResult{}, errors.New("exec: \"go\": executable file not found in $PATH")).Once()
	resultCollector := collector.NewCollector(config.Collector, collectormocks.NewClient(t), collectormocks.NewUploader(t), log.NewLogger())

	// When
	_, err := step.Run(context.Background(), config, resultCollector)

	// Then
	require.EqualError(t, err, "failed to run go test: exec: \"go\": executable file not found in $PATH")
}

func Test_GivenStep_WhenExport_ThenExportsAllArtifacts(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	config := Config{DeployDir: "/deploy", ExportScreenshots: always}
	result := Result{
		GoTestLog: "{}",
		Report: collector.Result{
			TestRunID:   1001,
			Screenshots: screenshots.Result{Dir: "screenshots/login", Found: true},
		},
	}

	mocks.outputExporter.On("ExportTestRunResult", result.Report).Once()
	mocks.outputExporter.On("ExportScreenshots", "/deploy", "screenshots/login").Return(nil).Once()
	mocks.outputExporter.On("ExportGoTestLog", "/deploy", "{}").Return(nil).Once()

	// When
	step.Export(config, result)
}

func Test_GivenNoDeployDir_WhenExport_ThenOnlyExportsRunResult(t *testing.T) {
	// Given
	step, mocks := createStepAndMocks(t)
	result := Result{GoTestLog: "{}", Report: collector.Result{Skipped: true}}
	mocks.outputExporter.On("ExportTestRunResult", result.Report).Once()

	// When
	step.Export(Config{}, result)

	// Then
	mocks.outputExporter.AssertNotCalled(t, "ExportGoTestLog", mock.Anything, mock.Anything)
}

func Test_GivenExportCondition_WhenRunFinished_ThenDecidesScreenshotExport(t *testing.T) {
	found := screenshots.Result{Found: true}

	tests := []struct {
		name      string
		condition exportCondition
		report    collector.Result
		want      bool
	}{
		{name: "always", condition: always, report: collector.Result{Status: spira.ExecutionStatusPassed, Screenshots: found}, want: true},
		{name: "never", condition: never, report: collector.Result{Status: spira.ExecutionStatusFailed, Screenshots: found}, want: false},
		{name: "on failure with failed run", condition: onFailure, report: collector.Result{Status: spira.ExecutionStatusFailed, Screenshots: found}, want: true},
		{name: "on failure with passed run", condition: onFailure, report: collector.Result{Status: spira.ExecutionStatusPassed, Screenshots: found}, want: false},
		{name: "no screenshot directory", condition: always, report: collector.Result{Status: spira.ExecutionStatusFailed}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldExportScreenshots(tt.condition, tt.report))
		})
	}
}

func Test_GivenMapping_WhenParsing_ThenNormalizesIDs(t *testing.T) {
	tests := []struct {
		name    string
		mapping string
		want    map[string]string
	}{
		{name: "empty", mapping: "", want: map[string]string{}},
		{name: "plain ids", mapping: "LoginSuite: 42\nCheckout: 43", want: map[string]string{"LoginSuite": "42", "Checkout": "43"}},
		{name: "prefixed id", mapping: "LoginSuite: 'TC:42 '", want: map[string]string{"LoginSuite": "42"}},
		{name: "package path key", mapping: "github.com/acme/app/login: 7", want: map[string]string{"github.com/acme/app/login": "7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTestCaseMapping(tt.mapping)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Helpers

func defaultEnvValues() map[string]string {
	return map[string]string{
		"spira_host":         "spira.example.com",
		"spira_login":        "fredbloggs",
		"spira_api_key":      "{7A05FD06-83C3-4436-B37F-51BCF0060483}",
		"project_id":         "7",
		"test_case_mapping":  "LoginSuite: 42",
		"upload_concurrency": "0",
		"http_retry_max":     "3",
		"export_screenshots": "always",
		"verbose_log":        "no",
	}
}

func writeResultsFile(t *testing.T, content string) string {
	pth := filepath.Join(t.TempDir(), "go_test.json")
	require.NoError(t, os.WriteFile(pth, []byte(content), 0o600))
	return pth
}

func createConfigParser(t *testing.T, envValues map[string]string, goVersion *version.Version) ConfigParser {
	envRepository := mocks.NewRepository(t)

	if envValues != nil {
		call := envRepository.On("Get", mock.Anything)
		call.RunFn = func(arguments mock.Arguments) {
			key := arguments[0].(string)
			value := envValues[key]
			call.ReturnArguments = mock.Arguments{value, nil}
		}
	}

	goVersionReader := mocks.NewReader(t)
	if goVersion != nil {
		goVersionReader.On("Version").Return(goVersion, nil)
	}

	logger := log.NewLogger()
	inputParser := stepconf.NewInputParser(envRepository)

	return NewConfigParser(inputParser, logger, goVersionReader, pathutil.NewPathChecker())
}

func createStepAndMocks(t *testing.T) (SpiraTestReporter, stepMocks) {
	logger := log.NewLogger()
	runner := mocks.NewRunner(t)
	outputExporter := mocks.NewExporter(t)

	step := NewSpiraTestReporter(logger, gotest.NewParser(logger), runner, filesystem.NewFileSystem(), outputExporter)
	mocks := stepMocks{
		runner:         runner,
		outputExporter: outputExporter,
	}

	return step, mocks
}
