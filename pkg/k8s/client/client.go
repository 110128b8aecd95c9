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

package client

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/k8s/exec"
	"github.com/okteto/sshpod/pkg/k8s/forward"
	"github.com/okteto/sshpod/pkg/log"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes"
)

// Provider builds cluster clients from the local kubeconfig
type Provider struct {
	logger     *log.Logger
	kubeconfig string
	timeout    time.Duration
}

// NewProvider returns a provider reading kubeconfig, or the default
// kubeconfig locations when it's empty. timeout bounds each API request; 0 means no timeout.
func NewProvider(kubeconfig string, timeout time.Duration, logger *log.Logger) *Provider {
	return &Provider{
		kubeconfig: kubeconfig,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetKubeconfig changes the kubeconfig file read by the next Provide calls
func (p *Provider) SetKubeconfig(kubeconfig string) {
	p.kubeconfig = kubeconfig
}

func (p *Provider) configFlags(contextName string) *genericclioptions.ConfigFlags {
	flags := genericclioptions.NewConfigFlags(false)
	if p.kubeconfig != "" {
		kubeconfig := p.kubeconfig
		flags.KubeConfig = &kubeconfig
	}
	if contextName != "" {
		flags.Context = &contextName
	}
	return flags
}

func (p *Provider) kubeconfigDisplay() string {
	if p.kubeconfig != "" {
		return p.kubeconfig
	}
	return config.GetKubeconfigPath()
}

// Provide returns a client for contextName, or for the current context when
// it's empty. The namespace of the client is the one set in that context.
func (p *Provider) Provide(contextName string) (*cluster.Client, error) {
	flags := p.configFlags(contextName)
	loader := flags.ToRawKubeConfigLoader()

	raw, err := loader.RawConfig()
	if err != nil {
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("failed to load kubeconfig: %w", err),
			Hint: fmt.Sprintf("Check the kubeconfig file '%s'", p.kubeconfigDisplay()),
		}
	}

	current := contextName
	if current == "" {
		current = raw.CurrentContext
	}
	if _, ok := raw.Contexts[current]; !ok {
		available := make([]string, 0, len(raw.Contexts))
		for name := range raw.Contexts {
			available = append(available, name)
		}
		sort.Strings(available)
		if current == "" {
			return nil, oktetoErrors.UserError{
				E:    fmt.Errorf("%w: no current context in kubeconfig", oktetoErrors.ErrNotFound),
				Hint: fmt.Sprintf("Add context--<name> to the hostname or set a current context in '%s'. Available contexts: [%s]", p.kubeconfigDisplay(), strings.Join(available, ", ")),
			}
		}
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("%w: context '%s'", oktetoErrors.ErrNotFound, current),
			Hint: fmt.Sprintf("Available contexts: [%s]", strings.Join(available, ", ")),
		}
	}

	namespace, _, err := loader.Namespace()
	if err != nil {
		return nil, fmt.Errorf("failed to get the namespace of context '%s': %w", current, err)
	}

	restConfig, err := flags.ToRESTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build the configuration of context '%s': %w", current, err)
	}
	restConfig.Timeout = p.timeout

	c, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create the kubernetes client of context '%s': %w", current, err)
	}

	p.logger.Debugf("using context '%s' (server %s, namespace '%s')", current, restConfig.Host, namespace)
	return &cluster.Client{
		Kubernetes: c,
		Executor:   exec.NewExecutor(c, restConfig, p.logger),
		Forwarder:  forward.NewForwarder(c, restConfig, p.logger),
		Namespace:  namespace,
		Context:    current,
	}, nil
}
