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
	"fmt"
	"io"
	"log/slog"
	"os"

	sloglogrus "github.com/samber/slog-logrus/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DebugLevel is the debug level
	DebugLevel = "debug"

	// InfoLevel is the info level
	InfoLevel = "info"

	// WarnLevel is the warn level
	WarnLevel = "warn"

	// ErrorLevel is the error level
	ErrorLevel = "error"

	// DefaultLevel is the level used when the user doesn't pick one.
	// Anything chattier would end up interleaved with the ssh client output.
	DefaultLevel = WarnLevel
)

// levelMap transforms a level name to a logrus.Level
var levelMap = map[string]logrus.Level{
	DebugLevel: logrus.DebugLevel,
	InfoLevel:  logrus.InfoLevel,
	WarnLevel:  logrus.WarnLevel,
	ErrorLevel: logrus.ErrorLevel,
}

// Logger writes leveled messages to the error stream and, once a log file is
// configured, every message at debug level to that file.
// Standard output is never used: it carries the tunnel bytes.
type Logger struct {
	out    *logrus.Logger
	file   *logrus.Logger
	fields logrus.Fields
	w      io.Writer
}

var std = New(os.Stderr)

// Default returns the process wide logger
func Default() *Logger {
	return std
}

// New returns a logger writing to w at the default level
func New(w io.Writer) *Logger {
	out := logrus.New()
	out.SetOutput(w)
	out.SetLevel(levelMap[DefaultLevel])
	out.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return &Logger{
		out: out,
		w:   w,
	}
}

// InvalidLogLevelError is returned when the log level is invalid
type InvalidLogLevelError struct {
	level string
}

// Error returns the error message
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level '%s'", e.level)
}

// SetLevel sets the level of the messages written to the error stream
func (l *Logger) SetLevel(lvl string) error {
	level, ok := levelMap[lvl]
	if !ok {
		return &InvalidLogLevelError{level: lvl}
	}
	l.out.SetLevel(level)
	return nil
}

// Level returns the level of the messages written to the error stream
func (l *Logger) Level() string {
	for name, level := range levelMap {
		if level == l.out.GetLevel() {
			return name
		}
	}
	return DefaultLevel
}

// ConfigureFileLogger mirrors every message, at debug level, to a rotating log file
func (l *Logger) ConfigureFileLogger(logPath string) {
	file := logrus.New()
	file.SetLevel(logrus.DebugLevel)
	file.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	file.SetOutput(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    1, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
	l.file = file
}

// WithField returns a logger that adds key=value to every message
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := logrus.Fields{}
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{
		out:    l.out,
		file:   l.file,
		fields: fields,
		w:      l.w,
	}
}

func (l *Logger) log(level logrus.Level, msg string) {
	l.out.WithFields(l.fields).Log(level, msg)
	if l.file != nil {
		l.file.WithFields(l.fields).Log(level, msg)
	}
}

// Debugf writes a debug-level log with a format
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(logrus.DebugLevel, fmt.Sprintf(format, args...))
}

// Infof writes a info-level log with a format
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

// Warningf writes a warn-level log with a format
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.log(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

// Errorf writes a error-level log with a format
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// Slog returns a structured view of the logger. Records go to the log file
// when one is configured, otherwise to the error stream filtered by level.
func (l *Logger) Slog() *slog.Logger {
	target, level := l.out, slog.LevelWarn
	if l.file != nil {
		target, level = l.file, slog.LevelDebug
	}
	handler := sloglogrus.Option{Level: level, Logger: target}.NewLogrusHandler()
	attrs := make([]any, 0, len(l.fields)*2)
	for k, v := range l.fields {
		attrs = append(attrs, k, v)
	}
	return slog.New(handler).With(attrs...)
}

// Warning writes a warning with the default logger
func Warning(format string, args ...interface{}) {
	std.Warningf(format, args...)
}

// Debugf writes a debug-level log with the default logger
func Debugf(format string, args ...interface{}) {
	std.Debugf(format, args...)
}
