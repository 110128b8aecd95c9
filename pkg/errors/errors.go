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

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError is meant for errors displayed to the user. It can include a message and a hint
type UserError struct {
	E    error
	Hint string
}

// Error returns the error message
func (u UserError) Error() string {
	return u.E.Error()
}

func (u UserError) Unwrap() error {
	return u.E
}

// StageError names the step of a connection attempt that failed
type StageError struct {
	Err   error
	Stage string
}

// Error returns the error message
func (e StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e StageError) Unwrap() error {
	return e.Err
}

// InStage wraps err with the name of the stage that produced it. It returns nil if err is nil
func InStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return StageError{Stage: stage, Err: err}
}

var (
	// ErrMalformedTarget is raised when the hostname can't be parsed into a workload reference
	ErrMalformedTarget = errors.New("malformed target")

	// ErrNotFound is raised when a cluster object referenced by the target doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrNotReady is raised when the target pod exists but can't accept connections
	ErrNotReady = errors.New("not ready")

	// ErrNoReadyPods is raised when a workload has no ready pods
	ErrNoReadyPods = errors.New("no ready pods")

	// ErrAmbiguousContainer is raised when a pod has several containers and none was selected
	ErrAmbiguousContainer = errors.New("ambiguous container")

	// ErrUnsupportedArchitecture is raised when the container reports an architecture with no bundle
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")

	// ErrDeployFailed is raised when the ssh daemon bundle can't be copied into the container
	ErrDeployFailed = errors.New("bundle deployment failed")

	// ErrIdentityError is raised when key material can't be generated or installed
	ErrIdentityError = errors.New("identity setup failed")

	// ErrDaemonStartFailed is raised when the ssh daemon doesn't start listening in time
	ErrDaemonStartFailed = errors.New("ssh daemon failed to start")

	// ErrTunnelFailed is raised when the port-forward stream can't be opened or ends abnormally
	ErrTunnelFailed = errors.New("tunnel failed")

	// ErrInterrupted is raised when a termination signal ends a session
	ErrInterrupted = errors.New("interrupted")

	// ErrTimeout is raised when an operation has timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrLockTimeout is raised when another sshpod process holds the target lock for too long
	ErrLockTimeout = errors.New("timed out waiting for another sshpod process")

	// ErrX509Hint should be included within a UserError.Hint when IsX509() return true
	ErrX509Hint = "Check the certificate authority of your kubeconfig context or run 'kubectl get pods' to verify cluster access"
)

// IsX509 returns true if the cluster returned an error which contains x509
func IsX509(err error) bool {
	return err != nil && strings.Contains(err.Error(), "x509")
}

// IsClosedNetwork returns true if the error is caused by a closed network connection
func IsClosedNetwork(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "use of closed network connection")
}

// Hint returns the first hint found in the chain of err
func Hint(err error) string {
	var uErr UserError
	if errors.As(err, &uErr) {
		return uErr.Hint
	}
	return ""
}
