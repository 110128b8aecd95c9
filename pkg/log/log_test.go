// Copyright 2026 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	var tests = []struct {
		name     string
		level    string
		expected logrus.Level
		wantErr  bool
	}{
		{name: "debug", level: "debug", expected: logrus.DebugLevel},
		{name: "info", level: "info", expected: logrus.InfoLevel},
		{name: "warn", level: "warn", expected: logrus.WarnLevel},
		{name: "error", level: "error", expected: logrus.ErrorLevel},
		{name: "invalid keeps default", level: "verbose", expected: logrus.WarnLevel, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&bytes.Buffer{})
			err := l.SetLevel(tt.level)
			if tt.wantErr {
				var levelErr *InvalidLogLevelError
				require.ErrorAs(t, err, &levelErr)
				assert.Equal(t, "invalid log level 'verbose'", err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, l.out.GetLevel())
		})
	}
}

func TestDefaultLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf)
	l.Debugf("resolving %s", "pod--api")
	l.Infof("deploying")
	assert.Empty(t, buf.String())

	l.Warningf("daemon restarted on port %d", 20022)
	assert.Contains(t, buf.String(), "daemon restarted on port 20022")
}

func TestWithField(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf)
	require.NoError(t, l.SetLevel(DebugLevel))

	session := l.WithField("session", "1234")
	session.Debugf("hello")
	assert.Contains(t, buf.String(), "session=1234")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	l.Debugf("bye")
	assert.NotContains(t, buf.String(), "session=1234")
}

func TestFileLoggerGetsDebug(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "sshpod.log")

	buf := &bytes.Buffer{}
	l := New(buf)
	l.ConfigureFileLogger(logPath)
	l.Debugf("only in the file")
	l.Slog().Info("structured record", "pod", "api")

	assert.Empty(t, buf.String())
	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "only in the file")
	assert.Contains(t, string(content), "structured record")
}

func TestFailAndHintWithoutTerminal(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf)
	l.Fail("resolve: %s", "no ready pods")
	l.Hint("scale the deployment")
	assert.Equal(t, " x  resolve: no ready pods\n    scale the deployment\n", buf.String())
}
