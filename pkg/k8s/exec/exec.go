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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/log"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

type executorFactory func(config *rest.Config, method string, u *url.URL) (remotecommand.Executor, error)

// Executor runs commands in containers through the pods/exec subresource
type Executor struct {
	client      kubernetes.Interface
	restConfig  *rest.Config
	newExecutor executorFactory
	logger      *log.Logger
}

// NewExecutor returns an executor using SPDY streams
func NewExecutor(client kubernetes.Interface, restConfig *rest.Config, logger *log.Logger) *Executor {
	return &Executor{
		client:      client,
		restConfig:  restConfig,
		newExecutor: remotecommand.NewSPDYExecutor,
		logger:      logger,
	}
}

func (e *Executor) execURL(req *cluster.ExecRequest) *url.URL {
	return e.client.CoreV1().RESTClient().Post().
		Namespace(req.Container.Namespace).
		Resource("pods").
		Name(req.Container.Pod).
		SubResource("exec").
		VersionedParams(&apiv1.PodExecOptions{
			Container: req.Container.Name,
			Command:   req.Command,
			Stdin:     req.Stdin != nil,
			Stdout:    req.Stdout != nil,
			Stderr:    req.Stderr != nil,
			TTY:       false,
		}, scheme.ParameterCodec).URL()
}

// Exec runs the command and waits until it exits or ctx is done
func (e *Executor) Exec(ctx context.Context, req *cluster.ExecRequest) error {
	exec, err := e.newExecutor(e.restConfig, http.MethodPost, e.execURL(req))
	if err != nil {
		e.logger.Debugf("failed to establish the remote executor: %s", err)
		return fmt.Errorf("failed to establish the remote executor: %w", err)
	}

	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  req.Stdin,
		Stdout: req.Stdout,
		Stderr: req.Stderr,
		Tty:    false,
	})
	if err == nil {
		return nil
	}

	var exitErr utilexec.ExitError
	if errors.As(err, &exitErr) && exitErr.Exited() {
		return &cluster.ExitError{Code: exitErr.ExitStatus()}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("exec in %s: %w", req.Container, ctxErr)
	}
	e.logger.Debugf("failed to stream the command: %s", err)
	return fmt.Errorf("exec in %s: %w", req.Container, err)
}
