package step

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
	"github.com/bitrise-steplib/steps-spira-test-report/gotest"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
	"gopkg.in/yaml.v3"
)

type exportCondition int

const (
	invalid exportCondition = iota
	always
	never
	onFailure
)

func parseExportCondition(condition string) exportCondition {
	switch condition {
	case "", "always":
		return always
	case "never":
		return never
	case "on_failure":
		return onFailure
	default:
		return invalid
	}
}

func shouldExportScreenshots(condition exportCondition, report collector.Result) bool {
	if !report.Screenshots.Found {
		return false
	}

	switch condition {
	case always:
		return true
	case onFailure:
		return report.Status == spira.ExecutionStatusFailed
	default:
		return false
	}
}

// ParseTestCaseMapping reads the test group name to SpiraTest test case id mapping, given as a YAML map:
//
//	LoginSuite: 42
//	github.com/acme/app/checkout: TC:43
func ParseTestCaseMapping(s string) (map[string]string, error) {
	mapping := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return mapping, nil
	}

	if err := yaml.Unmarshal([]byte(s), &mapping); err != nil {
		return nil, fmt.Errorf("invalid test case mapping: %w", err)
	}

	for name, id := range mapping {
		mapping[name] = strings.TrimPrefix(strings.TrimSpace(id), "TC:")
	}

	return mapping, nil
}

func printSummary(logger log.Logger, summary gotest.Summary) {
	logger.Println()
	logger.Infof("Test summary")
	logger.Printf("- passed: %d", summary.Passed)
	logger.Printf("- failed: %d", summary.Failed)
	logger.Printf("- skipped: %d", summary.Skipped)
	for _, pkg := range summary.PackageFailures {
		logger.Warnf("- package failed: %s", pkg)
	}
}

func printGoTestLogHint(logger log.Logger) {
	logger.Infof(colorstring.Magenta(`
The go test output is stored in $BITRISE_DEPLOY_DIR, and its full path
is available in the $SPIRA_GO_TEST_LOG_PATH environment variable.`))
}
