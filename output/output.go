package output

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/ziputil"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
)

// Output env keys ...
const (
	TestRunStatusKey      = "SPIRA_TEST_RUN_STATUS"
	TestRunIDKey          = "SPIRA_TEST_RUN_ID"
	ScreenshotsZipPathKey = "SPIRA_SCREENSHOTS_ZIP_PATH"
	GoTestLogPathKey      = "SPIRA_GO_TEST_LOG_PATH"

	skippedStatus = "skipped"
	goTestLogName = "go_test.json"
)

// Exporter ...
type Exporter interface {
	ExportTestRunResult(result collector.Result)
	ExportScreenshots(deployDir, screenshotDir string) error
	ExportGoTestLog(deployDir, rawLog string) error
}

type exporter struct {
	envRepository env.Repository
	fileManager   fileutil.FileManager
	logger        log.Logger
}

// NewExporter ...
func NewExporter(envRepository env.Repository, fileManager fileutil.FileManager, logger log.Logger) Exporter {
	return &exporter{
		envRepository: envRepository,
		fileManager:   fileManager,
		logger:        logger,
	}
}

func (e exporter) ExportTestRunResult(result collector.Result) {
	status := result.Status.String()
	if result.Skipped {
		status = skippedStatus
	}
	if err := e.envRepository.Set(TestRunStatusKey, status); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", TestRunStatusKey, err)
	}

	if result.TestRunID <= 0 {
		return
	}
	if err := e.envRepository.Set(TestRunIDKey, strconv.Itoa(result.TestRunID)); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", TestRunIDKey, err)
	}
}

func (e exporter) ExportScreenshots(deployDir, screenshotDir string) error {
	zipPath := filepath.Join(deployDir, filepath.Base(screenshotDir)+"-screenshots.zip")
	if err := ziputil.ZipDir(screenshotDir, zipPath, true); err != nil {
		return fmt.Errorf("failed to compress screenshots (%s): %w", screenshotDir, err)
	}

	if err := e.envRepository.Set(ScreenshotsZipPathKey, zipPath); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", ScreenshotsZipPathKey, err)
	}

	return nil
}

func (e exporter) ExportGoTestLog(deployDir, rawLog string) error {
	deployPth := filepath.Join(deployDir, goTestLogName)
	if err := e.fileManager.Write(deployPth, rawLog, 0600); err != nil {
		return fmt.Errorf("failed to write go test output to (%s): %w", deployPth, err)
	}

	if err := e.envRepository.Set(GoTestLogPathKey, deployPth); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", GoTestLogPathKey, err)
	}

	return nil
}
