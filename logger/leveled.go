// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"fmt"
	"strings"
)

// LeveledLogger adapts a Logger to the structured "message plus key/value
// pairs" interface used by go-retryablehttp.
type LeveledLogger struct {
	Logger Logger
}

func (l LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Errorf("%s", kv(msg, keysAndValues))
}

func (l LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warnf("%s", kv(msg, keysAndValues))
}

func (l LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Infof("%s", kv(msg, keysAndValues))
}

func (l LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debugf("%s", kv(msg, keysAndValues))
}

func kv(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v", keysAndValues[i])
		}
	}
	return b.String()
}
