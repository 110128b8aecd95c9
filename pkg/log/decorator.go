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
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// coloredErrorSymbol represents the colored error symbol
	coloredErrorSymbol = color.New(color.BgHiRed, color.FgBlack).Sprint(" x ")

	// coloredSuccessSymbol represents the colored success symbol
	coloredSuccessSymbol = color.New(color.BgGreen, color.FgBlack).Sprint(" ✓ ")

	// redString is a function that returns a red string
	redString = color.New(color.FgHiRed).SprintfFunc()

	// greenString is a function that returns a green string
	greenString = color.New(color.FgGreen).SprintfFunc()

	// blueString is a function that returns a blue string
	blueString = color.New(color.FgHiBlue).SprintfFunc()
)

const (
	errorSymbol   = " x "
	successSymbol = " ✓ "
)

// isTerminal reports whether the logger writes to an interactive terminal
func (l *Logger) isTerminal() bool {
	f, ok := l.w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Fail prints a message with the error symbol first, and the text in red
func (l *Logger) Fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.file != nil {
		l.file.WithFields(l.fields).Error(msg)
	}
	if l.isTerminal() {
		fmt.Fprintf(l.w, "%s %s\n", coloredErrorSymbol, redString(msg))
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", errorSymbol, msg)
}

// Hint prints a message with the text in blue
func (l *Logger) Hint(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.file != nil {
		l.file.WithFields(l.fields).Info(msg)
	}
	if l.isTerminal() {
		fmt.Fprintf(l.w, "    %s\n", blueString(msg))
		return
	}
	fmt.Fprintf(l.w, "    %s\n", msg)
}

// Success prints a message with the success symbol first, and the text in green
func (l *Logger) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.isTerminal() {
		fmt.Fprintf(l.w, "%s %s\n", coloredSuccessSymbol, greenString(msg))
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", successSymbol, msg)
}
