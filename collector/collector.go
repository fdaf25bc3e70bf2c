package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-spira-test-report/screenshots"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
)

const (
	passSymbol = "✓"
	failSymbol = "✖"
	passResult = "Pass"
)

// State of a test run's reporting.
type State string

// States ...
const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateResolving  State = "resolving"
	StateSubmitting State = "submitting"
	StateUploading  State = "uploading"
	StateDone       State = "done"
	StateSkipped    State = "skipped"
)

// Config identifies where the results of a run are recorded in SpiraTest.
type Config struct {
	ProjectID  int
	ReleaseID  int
	TestSetID  int
	RunnerName string
	// Mapping resolves a test group name to a SpiraTest test case id.
	Mapping map[string]string
}

// Collector receives the lifecycle events of a single test run and reports the run
// as one SpiraTest test run at the end.
//
// A run is reported against exactly one test case: the one mapped to the group of the
// last test seen. Runs that mix tests of differently mapped groups are reported under
// the last group only.
type Collector interface {
	OnStart()
	OnPass(test Test)
	OnFail(test Test, err error)
	// OnEnd resolves the test case and starts reporting without waiting for it.
	OnEnd(ctx context.Context) *Submission
	State() State
}

type runAccumulator struct {
	passes     int
	failures   int
	startTime  time.Time
	endTime    time.Time
	trace      strings.Builder
	steps      []spira.TestRunStep
	groupName  string
	sourceFile string
}

type collector struct {
	config   Config
	client   spira.Client
	uploader screenshots.Uploader
	logger   log.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
	run   *runAccumulator
}

// NewCollector ...
func NewCollector(config Config, client spira.Client, uploader screenshots.Uploader, logger log.Logger) Collector {
	return &collector{
		config:   config,
		client:   client,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
		state:    StateIdle,
	}
}

func (c *collector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *collector) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *collector) OnStart() {
	c.logger.Infof("Starting test run using SpiraTest reporter")
	c.start()
}

func (c *collector) start() {
	c.run = &runAccumulator{startTime: c.now()}
	c.setState(StateCollecting)
}

func (c *collector) ensureStarted() {
	if c.State() == StateCollecting {
		return
	}
	c.logger.Warnf("Test event received outside of a running test run, starting a new run")
	c.start()
}

func (c *collector) OnPass(test Test) {
	c.ensureStarted()

	c.run.passes++
	c.logger.Donef("%s pass: %s", passSymbol, test.FullTitle())

	c.run.trace.WriteString(fmt.Sprintf("%s pass: %s\n", passSymbol, test.FullTitle()))
	c.run.steps = append(c.run.steps, spira.TestRunStep{
		Description:       test.Title,
		ActualResult:      passResult,
		ExecutionStatusID: spira.ExecutionStatusPassed,
	})
	c.trackGroup(test)
}

func (c *collector) OnFail(test Test, err error) {
	c.ensureStarted()

	message := ""
	if err != nil {
		message = err.Error()
	}

	c.run.failures++
	c.logger.Errorf("%s fail: %s -- error: %s", failSymbol, test.FullTitle(), message)

	c.run.trace.WriteString(fmt.Sprintf("%s fail: %s -- error: %s\n", failSymbol, test.FullTitle(), message))
	c.run.steps = append(c.run.steps, spira.TestRunStep{
		Description:       test.Title,
		ActualResult:      message,
		ExecutionStatusID: spira.ExecutionStatusFailed,
	})
	c.trackGroup(test)
}

// trackGroup keeps the last seen group name and the first seen source file.
func (c *collector) trackGroup(test Test) {
	c.run.groupName = test.groupName()
	if c.run.sourceFile == "" {
		c.run.sourceFile = test.sourceFile()
	}
}

func (c *collector) OnEnd(ctx context.Context) *Submission {
	c.ensureStarted()
	c.setState(StateResolving)

	run := c.run
	run.endTime = c.now()
	total := run.passes + run.failures

	result := Result{
		Status:     overallStatus(run.passes, run.failures),
		Passed:     run.passes,
		Failed:     run.failures,
		GroupName:  run.groupName,
		SourceFile: run.sourceFile,
	}

	testCaseID, ok := c.resolveTestCaseID(run.groupName)
	if !ok {
		c.logger.Warnf("No SpiraTest test case ID specified for this test (%s), so it won't be reported back to SpiraTest", run.groupName)
		c.setState(StateSkipped)
		result.Skipped = true
		return completedSubmission(result, nil)
	}
	result.TestCaseID = testCaseID

	c.logger.Infof("Test run ended with: %d passed, %d failed out of %d test(s).", run.passes, run.failures, total)
	c.logger.Printf("Sending results to SpiraTest for test case TC:%d", testCaseID)

	testRun := spira.TestRun{
		TestRunFormatID:   spira.TestRunFormatPlainText,
		StartDate:         spira.Date(run.startTime),
		EndDate:           spira.Date(run.endTime),
		RunnerName:        c.config.RunnerName,
		RunnerTestName:    run.groupName,
		RunnerAssertCount: run.failures,
		RunnerMessage:     fmt.Sprintf("%d passed, %d failed out of %d test(s).", run.passes, run.failures, total),
		RunnerStackTrace:  run.trace.String(),
		TestCaseID:        testCaseID,
		ReleaseID:         spira.OptionalID(c.config.ReleaseID),
		TestSetID:         spira.OptionalID(c.config.TestSetID),
		ExecutionStatusID: result.Status,
		TestRunSteps:      run.steps,
	}

	submission := newSubmission()
	c.setState(StateSubmitting)
	go c.report(ctx, testRun, run.sourceFile, result, submission)

	return submission
}

func (c *collector) resolveTestCaseID(groupName string) (int, bool) {
	value, ok := c.config.Mapping[groupName]
	if !ok {
		return 0, false
	}
	return spira.ParseID(value)
}

func (c *collector) report(ctx context.Context, testRun spira.TestRun, sourceFile string, result Result, submission *Submission) {
	testRunID, err := c.client.RecordTestRun(ctx, c.config.ProjectID, testRun)
	if err != nil {
		c.setState(StateDone)
		submission.finish(result, err)
		return
	}
	result.TestRunID = testRunID
	c.logger.Donef("Test run TR:%d recorded for test case TC:%d", testRunID, testRun.TestCaseID)

	c.setState(StateUploading)
	uploads, err := c.uploader.Upload(ctx, sourceFile, testRunID)
	if err != nil {
		c.logger.Warnf("Failed to upload screenshots: %s", err)
	}
	result.Screenshots = uploads

	c.setState(StateDone)
	submission.finish(result, nil)
}

func overallStatus(passes, failures int) spira.ExecutionStatus {
	if passes+failures == 0 {
		return spira.ExecutionStatusNotApplicable
	}
	if failures > 0 {
		return spira.ExecutionStatusFailed
	}
	return spira.ExecutionStatusPassed
}
