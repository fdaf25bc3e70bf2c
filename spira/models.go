package spira

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ExecutionStatus ...
type ExecutionStatus int

// Execution statuses known by SpiraTest.
const (
	ExecutionStatusFailed        ExecutionStatus = 1
	ExecutionStatusPassed        ExecutionStatus = 2
	ExecutionStatusNotRun        ExecutionStatus = 3
	ExecutionStatusNotApplicable ExecutionStatus = 4
	ExecutionStatusBlocked       ExecutionStatus = 5
	ExecutionStatusCaution       ExecutionStatus = 6
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusFailed:
		return "failed"
	case ExecutionStatusPassed:
		return "passed"
	case ExecutionStatusNotRun:
		return "not_run"
	case ExecutionStatusNotApplicable:
		return "not_applicable"
	case ExecutionStatusBlocked:
		return "blocked"
	case ExecutionStatusCaution:
		return "caution"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ArtifactType ...
type ArtifactType int

// ArtifactTypeTestRun is the artifact type of a test run record.
const ArtifactTypeTestRun ArtifactType = 5

// TestRunFormatPlainText marks the stack trace of a test run as plain text.
const TestRunFormatPlainText = 1

// Date is a time serialized in the WCF JSON date format: /Date(1500000000000-0000)/
type Date time.Time

var wcfDateRegexp = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// MarshalJSON ...
func (d Date) MarshalJSON() ([]byte, error) {
	ms := time.Time(d).UnixMilli()
	return json.Marshal(fmt.Sprintf("/Date(%d-0000)/", ms))
}

// UnmarshalJSON ...
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	match := wcfDateRegexp.FindStringSubmatch(s)
	if match == nil {
		return fmt.Errorf("invalid date: %s", s)
	}

	ms, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid date (%s): %w", s, err)
	}

	*d = Date(time.UnixMilli(ms).UTC())
	return nil
}

// TestRunStep is one reported test outcome inside a test run.
type TestRunStep struct {
	Description       string          `json:"Description"`
	ActualResult      string          `json:"ActualResult"`
	ExecutionStatusID ExecutionStatus `json:"ExecutionStatusId"`
}

// TestRun is the automated test run record sent to SpiraTest.
type TestRun struct {
	TestRunFormatID   int             `json:"TestRunFormatId"`
	StartDate         Date            `json:"StartDate"`
	EndDate           Date            `json:"EndDate"`
	RunnerName        string          `json:"RunnerName"`
	RunnerTestName    string          `json:"RunnerTestName"`
	RunnerAssertCount int             `json:"RunnerAssertCount"`
	RunnerMessage     string          `json:"RunnerMessage"`
	RunnerStackTrace  string          `json:"RunnerStackTrace"`
	TestCaseID        int             `json:"TestCaseId"`
	ReleaseID         *int            `json:"ReleaseId"`
	TestSetID         *int            `json:"TestSetId"`
	ExecutionStatusID ExecutionStatus `json:"ExecutionStatusId"`
	TestRunSteps      []TestRunStep   `json:"TestRunSteps"`
}

type testRunResponse struct {
	TestRunID int `json:"TestRunId"`
}

// AttachedArtifact ...
type AttachedArtifact struct {
	ArtifactID     int          `json:"ArtifactId"`
	ArtifactTypeID ArtifactType `json:"ArtifactTypeId"`
}

// Document is a file attachment uploaded to SpiraTest.
type Document struct {
	FilenameOrURL     string             `json:"FilenameOrUrl"`
	BinaryData        string             `json:"BinaryData"`
	AttachedArtifacts []AttachedArtifact `json:"AttachedArtifacts"`
}

type documentResponse struct {
	AttachmentID int `json:"AttachmentId"`
}

// OptionalID returns nil for non positive ids, SpiraTest expects null for unset references.
func OptionalID(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}
