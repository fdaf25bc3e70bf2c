package collector

import "strings"

// Suite is a group of tests, as reported by the test runner.
type Suite struct {
	Title  string
	File   string
	Parent *Suite
}

// Test is a single executed test case.
type Test struct {
	Title  string
	Parent *Suite
}

// FullTitle joins the titles of every enclosing suite and the test itself.
func (t Test) FullTitle() string {
	var titles []string
	for s := t.Parent; s != nil; s = s.Parent {
		if s.Title != "" {
			titles = append([]string{s.Title}, titles...)
		}
	}
	return strings.Join(append(titles, t.Title), " ")
}

func (t Test) groupName() string {
	if t.Parent == nil {
		return ""
	}
	return t.Parent.Title
}

func (t Test) sourceFile() string {
	if t.Parent == nil || t.Parent.Parent == nil {
		return ""
	}
	return t.Parent.Parent.File
}
