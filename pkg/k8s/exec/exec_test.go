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

package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"

	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

type fakeRemoteExecutor struct {
	stream func(ctx context.Context, options remotecommand.StreamOptions) error
}

func (f *fakeRemoteExecutor) Stream(options remotecommand.StreamOptions) error {
	return f.stream(context.Background(), options)
}

func (f *fakeRemoteExecutor) StreamWithContext(ctx context.Context, options remotecommand.StreamOptions) error {
	return f.stream(ctx, options)
}

func newTestExecutor(t *testing.T, remote *fakeRemoteExecutor, requested *url.URL) *Executor {
	restConfig := &rest.Config{Host: "https://127.0.0.1:6443"}
	client, err := kubernetes.NewForConfig(restConfig)
	require.NoError(t, err)

	e := NewExecutor(client, restConfig, log.New(io.Discard))
	e.newExecutor = func(_ *rest.Config, method string, u *url.URL) (remotecommand.Executor, error) {
		assert.Equal(t, "POST", method)
		*requested = *u
		return remote, nil
	}
	return e
}

func TestExecStreams(t *testing.T) {
	requested := &url.URL{}
	remote := &fakeRemoteExecutor{
		stream: func(_ context.Context, options remotecommand.StreamOptions) error {
			assert.False(t, options.Tty)
			in, err := io.ReadAll(options.Stdin)
			if err != nil {
				return err
			}
			_, _ = options.Stdout.Write(bytes.ToUpper(in))
			_, _ = options.Stderr.Write([]byte("warning"))
			return nil
		},
	}
	e := newTestExecutor(t, remote, requested)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := e.Exec(context.Background(), &cluster.ExecRequest{
		Container: cluster.Container{Namespace: "default", Pod: "api", Name: "app"},
		Command:   []string{"uname", "-m"},
		Stdin:     bytes.NewBufferString("x86_64"),
		Stdout:    stdout,
		Stderr:    stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, "X86_64", stdout.String())
	assert.Equal(t, "warning", stderr.String())

	assert.Equal(t, "/api/v1/namespaces/default/pods/api/exec", requested.Path)
	query := requested.Query()
	assert.Equal(t, []string{"uname", "-m"}, query["command"])
	assert.Equal(t, "app", query.Get("container"))
	assert.Equal(t, "true", query.Get("stdin"))
	assert.Equal(t, "true", query.Get("stdout"))
}

func TestExecExitCode(t *testing.T) {
	remote := &fakeRemoteExecutor{
		stream: func(_ context.Context, _ remotecommand.StreamOptions) error {
			return utilexec.CodeExitError{Err: errors.New("command terminated with exit code 3"), Code: 3}
		},
	}
	e := newTestExecutor(t, remote, &url.URL{})

	err := e.Exec(context.Background(), &cluster.ExecRequest{
		Container: cluster.Container{Namespace: "default", Pod: "api", Name: "app"},
		Command:   []string{"false"},
		Stdout:    io.Discard,
	})
	var exitErr *cluster.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, 3, cluster.ExitCode(err))
}

func TestExecTransportError(t *testing.T) {
	remote := &fakeRemoteExecutor{
		stream: func(_ context.Context, _ remotecommand.StreamOptions) error {
			return errors.New("unable to upgrade connection: container not found")
		},
	}
	e := newTestExecutor(t, remote, &url.URL{})

	err := e.Exec(context.Background(), &cluster.ExecRequest{
		Container: cluster.Container{Namespace: "default", Pod: "api", Name: "app"},
		Command:   []string{"true"},
		Stdout:    io.Discard,
	})
	require.Error(t, err)
	assert.Equal(t, -1, cluster.ExitCode(err))
	assert.Contains(t, err.Error(), "exec in default/api/app")
	assert.Contains(t, err.Error(), "container not found")
}

func TestExecCanceled(t *testing.T) {
	remote := &fakeRemoteExecutor{
		stream: func(ctx context.Context, _ remotecommand.StreamOptions) error {
			<-ctx.Done()
			return errors.New("stream closed")
		},
	}
	e := newTestExecutor(t, remote, &url.URL{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Exec(ctx, &cluster.ExecRequest{
		Container: cluster.Container{Namespace: "default", Pod: "api", Name: "app"},
		Command:   []string{"sleep", "60"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
