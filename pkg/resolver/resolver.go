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

package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/k8s/deployments"
	"github.com/okteto/sshpod/pkg/k8s/jobs"
	"github.com/okteto/sshpod/pkg/k8s/pods"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/target"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// ArchAMD64 is the normalized name of x86_64 containers
	ArchAMD64 = "amd64"

	// ArchARM64 is the normalized name of aarch64 containers
	ArchARM64 = "arm64"

	archScript = "# sshpod:arch\nuname -m\n"
)

// Endpoint is the container a connection attempt goes to
type Endpoint struct {
	Namespace string
	Context   string
	PodName   string
	PodUID    string
	Container string
	Arch      string
}

// Target returns the container reference used to exec into the endpoint
func (e *Endpoint) Target() cluster.Container {
	return cluster.Container{
		Namespace: e.Namespace,
		Pod:       e.PodName,
		Name:      e.Container,
	}
}

// RemoteDir returns the scratch folder of the endpoint inside the container
func (e *Endpoint) RemoteDir() string {
	return config.GetRemoteDir(e.PodUID, e.Container)
}

// Key identifies the state shared by every connection to the endpoint
func (e *Endpoint) Key() string {
	return fmt.Sprintf("%s_%s", e.PodUID, e.Container)
}

// String returns namespace/pod/container
func (e *Endpoint) String() string {
	return e.Target().String()
}

// Resolver turns workload references into endpoints
type Resolver struct {
	client    kubernetes.Interface
	executor  cluster.Executor
	logger    *log.Logger
	namespace string
	context   string
}

// NewResolver returns a resolver for the given cluster
func NewResolver(c *cluster.Client, logger *log.Logger) *Resolver {
	return &Resolver{
		client:    c.Kubernetes,
		executor:  c.Executor,
		namespace: c.Namespace,
		context:   c.Context,
		logger:    logger,
	}
}

// Resolve returns the ready container targeted by d
func (r *Resolver) Resolve(ctx context.Context, d *target.Descriptor) (*Endpoint, error) {
	namespace := d.Namespace
	if namespace == "" {
		namespace = r.namespace
	}

	pod, err := r.getPod(ctx, d, namespace)
	if err != nil {
		return nil, err
	}

	container, err := selectContainer(pod, d.Container)
	if err != nil {
		return nil, err
	}

	ep := &Endpoint{
		Namespace: namespace,
		Context:   r.context,
		PodName:   pod.Name,
		PodUID:    string(pod.UID),
		Container: container,
	}
	arch, err := r.probeArch(ctx, ep)
	if err != nil {
		return nil, err
	}
	ep.Arch = arch
	r.logger.Debugf("%s resolved to %s (uid %s, %s)", d, ep, ep.PodUID, ep.Arch)
	return ep, nil
}

func (r *Resolver) getPod(ctx context.Context, d *target.Descriptor, namespace string) (*apiv1.Pod, error) {
	switch d.Kind {
	case target.KindPod:
		pod, err := pods.Get(ctx, d.Name, namespace, r.client)
		if err != nil {
			return nil, clusterError(err)
		}
		if err := pods.CheckReady(pod); err != nil {
			return nil, oktetoErrors.UserError{
				E:    err,
				Hint: fmt.Sprintf("Run 'kubectl get pod %s -n %s' to check its status", d.Name, namespace),
			}
		}
		return pod, nil
	case target.KindDeployment:
		dep, err := deployments.Get(ctx, d.Name, namespace, r.client)
		if err != nil {
			return nil, clusterError(err)
		}
		candidates, err := deployments.GetPods(ctx, dep, r.client)
		if err != nil {
			return nil, clusterError(err)
		}
		return selectReady(d, namespace, candidates)
	case target.KindJob:
		j, err := jobs.Get(ctx, d.Name, namespace, r.client)
		if err != nil {
			return nil, clusterError(err)
		}
		candidates, err := jobs.GetPods(ctx, j, r.client)
		if err != nil {
			return nil, clusterError(err)
		}
		return selectReady(d, namespace, candidates)
	default:
		return nil, fmt.Errorf("%w: unknown kind '%s'", oktetoErrors.ErrMalformedTarget, d.Kind)
	}
}

func selectReady(d *target.Descriptor, namespace string, candidates []apiv1.Pod) (*apiv1.Pod, error) {
	pod := pods.SelectReady(candidates)
	if pod == nil {
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("%w: %s in namespace '%s' has %d pods and none is ready", oktetoErrors.ErrNoReadyPods, d, namespace, len(candidates)),
			Hint: fmt.Sprintf("Run 'kubectl get %s %s -n %s' to check its status", d.Kind, d.Name, namespace),
		}
	}
	return pod, nil
}

func selectContainer(pod *apiv1.Pod, name string) (string, error) {
	names := pods.ContainerNames(pod)
	if name != "" {
		if !pods.HasContainer(pod, name) {
			return "", oktetoErrors.UserError{
				E:    fmt.Errorf("%w: container '%s' in pod '%s'", oktetoErrors.ErrNotFound, name, pod.Name),
				Hint: fmt.Sprintf("Available containers: [%s]", strings.Join(names, ", ")),
			}
		}
		return name, nil
	}

	switch len(names) {
	case 0:
		return "", fmt.Errorf("%w: pod '%s' has no containers", oktetoErrors.ErrNotFound, pod.Name)
	case 1:
		return names[0], nil
	default:
		return "", oktetoErrors.UserError{
			E:    fmt.Errorf("%w: pod '%s' has %d containers", oktetoErrors.ErrAmbiguousContainer, pod.Name, len(names)),
			Hint: fmt.Sprintf("Add container--<name> to the hostname. Available containers: [%s]", strings.Join(names, ", ")),
		}
	}
}

func (r *Resolver) probeArch(ctx context.Context, ep *Endpoint) (string, error) {
	out, err := cluster.RunScript(ctx, r.executor, ep.Target(), archScript, nil, nil, r.logger)
	if err != nil {
		return "", oktetoErrors.UserError{
			E:    fmt.Errorf("%w: can't exec into %s: %w", oktetoErrors.ErrNotReady, ep, err),
			Hint: "sshpod needs 'pods/exec' permissions and a container with a POSIX shell",
		}
	}
	return NormalizeArch(out)
}

// NormalizeArch maps the output of 'uname -m' to a supported architecture
func NormalizeArch(machine string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(machine)) {
	case "x86_64", "amd64":
		return ArchAMD64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	default:
		return "", oktetoErrors.UserError{
			E:    fmt.Errorf("%w: '%s'", oktetoErrors.ErrUnsupportedArchitecture, strings.TrimSpace(machine)),
			Hint: fmt.Sprintf("Supported architectures are %s and %s", ArchAMD64, ArchARM64),
		}
	}
}

func clusterError(err error) error {
	if oktetoErrors.IsX509(err) {
		return oktetoErrors.UserError{E: err, Hint: oktetoErrors.ErrX509Hint}
	}
	return err
}
