package gotest

import "time"

// Test actions emitted by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionBench  = "bench"
	ActionFail   = "fail"
	ActionOutput = "output"
	ActionSkip   = "skip"
)

// Event is a single line of `go test -json` output.
type Event struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// Summary of a parsed test stream.
type Summary struct {
	Passed          int
	Failed          int
	Skipped         int
	PackageFailures []string
}

// HasFailures ...
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || len(s.PackageFailures) > 0
}
