package collector

import (
	"context"

	"github.com/bitrise-steplib/steps-spira-test-report/screenshots"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
)

// Result of reporting a single test run.
type Result struct {
	Skipped     bool
	GroupName   string
	SourceFile  string
	TestCaseID  int
	TestRunID   int
	Status      spira.ExecutionStatus
	Passed      int
	Failed      int
	Screenshots screenshots.Result
}

// Submission is the pending outcome of reporting a test run.
type Submission struct {
	done   chan struct{}
	result Result
	err    error
}

func newSubmission() *Submission {
	return &Submission{done: make(chan struct{})}
}

func completedSubmission(result Result, err error) *Submission {
	s := newSubmission()
	s.finish(result, err)
	return s
}

func (s *Submission) finish(result Result, err error) {
	s.result = result
	s.err = err
	close(s.done)
}

// Done is closed once the test run is recorded and its screenshots are uploaded.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission finishes.
func (s *Submission) Wait() (Result, error) {
	<-s.done
	return s.result, s.err
}

// WaitContext is Wait with cancellation.
func (s *Submission) WaitContext(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.result, s.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
