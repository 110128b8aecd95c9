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

// Package cluster defines the capabilities sshpod needs from a cluster:
// read access through a kubernetes.Interface, exec with streams and
// port-forward streams.
package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/okteto/sshpod/pkg/log"
	"k8s.io/client-go/kubernetes"
)

// Container identifies a container of a running pod
type Container struct {
	Namespace string
	Pod       string
	Name      string
}

// String returns namespace/pod/container
func (c Container) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Namespace, c.Pod, c.Name)
}

// ExecRequest describes a command executed inside a container
type ExecRequest struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Container Container
	Command   []string
}

// Executor runs commands inside containers. A command that runs and exits
// with a non-zero status returns an *ExitError.
type Executor interface {
	Exec(ctx context.Context, req *ExecRequest) error
}

// Stream is a duplex byte stream to a port of a pod
type Stream interface {
	io.ReadWriteCloser

	// CloseWrite signals the remote end that no more bytes will be written
	CloseWrite() error
}

// Forwarder opens port-forward streams to pods
type Forwarder interface {
	Dial(ctx context.Context, namespace, pod string, port int) (Stream, error)
}

// Client groups the capabilities of a cluster
type Client struct {
	Kubernetes kubernetes.Interface
	Executor   Executor
	Forwarder  Forwarder

	// Namespace is the namespace used when the target doesn't name one
	Namespace string

	// Context is the kubeconfig context the client was built from
	Context string
}

// ExitError is returned when a command runs but exits with a non-zero status
type ExitError struct {
	Stderr string
	Code   int
}

// Error returns the error message
func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command terminated with exit code %d", e.Code)
	}
	return fmt.Sprintf("command terminated with exit code %d: %s", e.Code, e.Stderr)
}

// ExitCode returns the exit code of err if it's an *ExitError, -1 otherwise
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// ScriptName is the $0 of every script run through RunScript
const ScriptName = "sshpod"

// RunScript runs a shell script inside the container with args as its
// positional parameters and returns its trimmed standard output.
// The stderr of a failed script is attached to the returned *ExitError.
func RunScript(ctx context.Context, executor Executor, c Container, script string, args []string, stdin io.Reader, logger *log.Logger) (string, error) {
	command := append([]string{"sh", "-c", script, ScriptName}, args...)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	logger.Debugf("exec in %s: sh -c <script> %s", c, shellescape.QuoteCommand(append([]string{ScriptName}, args...)))
	err := executor.Exec(ctx, &ExecRequest{
		Container: c,
		Command:   command,
		Stdin:     stdin,
		Stdout:    stdout,
		Stderr:    stderr,
	})
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Stderr == "" {
			exitErr.Stderr = strings.TrimSpace(stderr.String())
		}
		return "", err
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		logger.Debugf("exec in %s wrote to stderr: %s", c, s)
	}
	return strings.TrimSpace(stdout.String()), nil
}
