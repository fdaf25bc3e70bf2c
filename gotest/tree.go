package gotest

import (
	"strings"

	"github.com/bitrise-steplib/steps-spira-test-report/collector"
)

// suiteTree maps test names onto suites: root -> package -> one suite per name segment.
// Every suite below the root carries the package import path as its File.
type suiteTree struct {
	root   *collector.Suite
	suites map[string]*collector.Suite
}

func newSuiteTree() *suiteTree {
	return &suiteTree{
		root:   &collector.Suite{},
		suites: map[string]*collector.Suite{},
	}
}

func (t *suiteTree) packageSuite(pkg string) *collector.Suite {
	key := pkg + "\x00"
	if s, ok := t.suites[key]; ok {
		return s
	}
	s := &collector.Suite{Title: pkg, File: pkg, Parent: t.root}
	t.suites[key] = s
	return s
}

func (t *suiteTree) suite(pkg, name string) *collector.Suite {
	if name == "" {
		return t.packageSuite(pkg)
	}

	key := pkg + "\x00" + name
	if s, ok := t.suites[key]; ok {
		return s
	}

	parentName, title := splitTestName(name)
	s := &collector.Suite{Title: title, File: pkg, Parent: t.suite(pkg, parentName)}
	t.suites[key] = s
	return s
}

func (t *suiteTree) test(pkg, name string) collector.Test {
	parentName, title := splitTestName(name)
	return collector.Test{Title: title, Parent: t.suite(pkg, parentName)}
}

// splitTestName splits "TestA/sub/case" into "TestA/sub" and "case".
func splitTestName(name string) (string, string) {
	i := strings.LastIndex(name, "/")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
