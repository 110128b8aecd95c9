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

package config

import (
	"time"

	"github.com/okteto/sshpod/pkg/env"
)

const (
	// KubernetesTimeoutEnvVar sets the timeout of every request to the kubernetes API
	KubernetesTimeoutEnvVar = "SSHPOD_KUBERNETES_TIMEOUT"

	// ResolveTimeoutEnvVar bounds the pod resolution step
	ResolveTimeoutEnvVar = "SSHPOD_RESOLVE_TIMEOUT"

	// DeployTimeoutEnvVar bounds the bundle upload and host key installation
	DeployTimeoutEnvVar = "SSHPOD_DEPLOY_TIMEOUT"

	// DaemonTimeoutEnvVar bounds the ssh daemon start
	DaemonTimeoutEnvVar = "SSHPOD_DAEMON_TIMEOUT"

	// LockTimeoutEnvVar bounds the wait for other sshpod processes targeting the same container
	LockTimeoutEnvVar = "SSHPOD_LOCK_TIMEOUT"

	// ForwardTimeoutEnvVar bounds the establishment of the port-forward stream
	ForwardTimeoutEnvVar = "SSHPOD_FORWARD_TIMEOUT"
)

// Timeouts bounds every blocking call against the cluster
type Timeouts struct {
	Kubernetes time.Duration
	Resolve    time.Duration
	Deploy     time.Duration
	Daemon     time.Duration
	Lock       time.Duration
	Forward    time.Duration
}

// DefaultTimeouts returns the timeouts used when no environment variable overrides them
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Kubernetes: 0,
		Resolve:    30 * time.Second,
		Deploy:     5 * time.Minute,
		Daemon:     40 * time.Second,
		Lock:       2 * time.Minute,
		Forward:    20 * time.Second,
	}
}

// LoadTimeouts returns the default timeouts overridden by the environment
func LoadTimeouts() Timeouts {
	d := DefaultTimeouts()
	return Timeouts{
		Kubernetes: env.LoadDurationOrDefault(KubernetesTimeoutEnvVar, d.Kubernetes),
		Resolve:    env.LoadDurationOrDefault(ResolveTimeoutEnvVar, d.Resolve),
		Deploy:     env.LoadDurationOrDefault(DeployTimeoutEnvVar, d.Deploy),
		Daemon:     env.LoadDurationOrDefault(DaemonTimeoutEnvVar, d.Daemon),
		Lock:       env.LoadDurationOrDefault(LockTimeoutEnvVar, d.Lock),
		Forward:    env.LoadDurationOrDefault(ForwardTimeoutEnvVar, d.Forward),
	}
}
