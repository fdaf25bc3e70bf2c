package spira

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger routes the retrying http client's messages to the step logger.
type leveledLogger struct {
	logger log.Logger
	secret string
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) format(msg string, keysAndValues ...interface{}) string {
	builder := strings.Builder{}
	builder.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		builder.WriteString(" ")
		if i+1 < len(keysAndValues) {
			builder.WriteString(fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
		} else {
			builder.WriteString(fmt.Sprintf("%v", keysAndValues[i]))
		}
	}
	if l.secret == "" {
		return builder.String()
	}
	return strings.ReplaceAll(builder.String(), l.secret, "[REDACTED]")
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warnf("%s", l.format(msg, keysAndValues...))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf("%s", l.format(msg, keysAndValues...))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugf("%s", l.format(msg, keysAndValues...))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnf("%s", l.format(msg, keysAndValues...))
}
