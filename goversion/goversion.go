package goversion

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/hashicorp/go-version"
)

// Reader ...
type Reader interface {
	Version() (*version.Version, error)
}

type reader struct {
	commandFactory command.Factory
}

// NewGoVersionReader ...
func NewGoVersionReader(commandFactory command.Factory) Reader {
	return &reader{commandFactory: commandFactory}
}

func (r *reader) Version() (*version.Version, error) {
	cmd := r.commandFactory.Create("go", []string{"env", "GOVERSION"}, nil)
	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w, output: %s", cmd.PrintableCommandArgs(), err, out)
	}
	return Parse(out)
}

// Parse converts a Go release name (go1.22.3, go1.23rc1) to a version.
func Parse(goVersion string) (*version.Version, error) {
	goVersion = strings.TrimSpace(goVersion)
	// toolchain suffixes like "go1.22.3 X:boringcrypto"
	if fields := strings.Fields(goVersion); len(fields) > 0 {
		goVersion = fields[0]
	}
	if !strings.HasPrefix(goVersion, "go") {
		return nil, fmt.Errorf("unexpected Go version: %s", goVersion)
	}
	return version.NewVersion(strings.TrimPrefix(goVersion, "go"))
}
