package gotest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-spira-test-report/collector"
)

const (
	maxLineSize           = 10 * 1024 * 1024
	defaultFailureMessage = "test failed"
)

var framingPrefixes = []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS", "--- FAIL", "--- SKIP"}

// Listener receives the outcome of every reported test, in stream order.
type Listener interface {
	OnPass(test collector.Test)
	OnFail(test collector.Test, err error)
}

// Parser ...
type Parser interface {
	Parse(r io.Reader, listener Listener) (Summary, error)
}

type parser struct {
	logger log.Logger
}

// NewParser ...
func NewParser(logger log.Logger) Parser {
	return &parser{logger: logger}
}

type testState struct {
	hasChildren bool
	childFailed bool
	output      []string
}

type parseRun struct {
	logger   log.Logger
	listener Listener
	tree     *suiteTree
	tests    map[string]*testState
	reported map[string]int
	summary  Summary
}

// Parse reads test2json events and reports leaf tests to the listener. A test with
// subtests is only reported when it fails while none of its subtests failed.
func (p *parser) Parse(r io.Reader, listener Listener) (Summary, error) {
	run := &parseRun{
		logger:   p.logger,
		listener: listener,
		tree:     newSuiteTree(),
		tests:    map[string]*testState{},
		reported: map[string]int{},
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil || event.Action == "" {
			p.logger.Debugf("Ignoring non test2json line: %s", line)
			continue
		}

		run.handle(event)
	}
	if err := scanner.Err(); err != nil {
		return run.summary, fmt.Errorf("failed to read test output: %w", err)
	}

	return run.summary, nil
}

func (r *parseRun) handle(event Event) {
	if event.Test == "" {
		r.handlePackage(event)
		return
	}

	switch event.Action {
	case ActionRun:
		r.state(event.Package, event.Test)
		if parentName, _ := splitTestName(event.Test); parentName != "" {
			r.state(event.Package, parentName).hasChildren = true
		}
	case ActionOutput:
		st := r.state(event.Package, event.Test)
		st.output = append(st.output, event.Output)
	case ActionPass:
		st := r.finish(event.Package, event.Test)
		if st.hasChildren {
			return
		}
		r.summary.Passed++
		r.reported[event.Package]++
		r.listener.OnPass(r.tree.test(event.Package, event.Test))
	case ActionFail:
		st := r.finish(event.Package, event.Test)
		if parentName, _ := splitTestName(event.Test); parentName != "" {
			r.state(event.Package, parentName).childFailed = true
		}
		if st.hasChildren && st.childFailed {
			return
		}
		r.summary.Failed++
		r.reported[event.Package]++
		r.listener.OnFail(r.tree.test(event.Package, event.Test), errors.New(failureMessage(st.output)))
	case ActionSkip:
		r.finish(event.Package, event.Test)
		r.summary.Skipped++
		r.logger.Printf("- skip: %s %s", event.Package, event.Test)
	}
}

func (r *parseRun) handlePackage(event Event) {
	if event.Action != ActionFail {
		return
	}
	if r.reported[event.Package] > 0 {
		return
	}
	r.summary.PackageFailures = append(r.summary.PackageFailures, event.Package)
	r.logger.Warnf("Package %s failed without running any test", event.Package)
}

func (r *parseRun) state(pkg, name string) *testState {
	key := pkg + "\x00" + name
	st, ok := r.tests[key]
	if !ok {
		st = &testState{}
		r.tests[key] = st
	}
	return st
}

func (r *parseRun) finish(pkg, name string) *testState {
	st := r.state(pkg, name)
	delete(r.tests, pkg+"\x00"+name)
	return st
}

func failureMessage(output []string) string {
	var lines []string
	for _, chunk := range output {
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || isFramingLine(line) {
				continue
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return defaultFailureMessage
	}
	return strings.Join(lines, "\n")
}

func isFramingLine(line string) bool {
	for _, prefix := range framingPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
