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

// Package target parses sshpod hostnames into workload references.
//
// The grammar is <kind>--<name>[.<tag>--<value>]*.sshpod where kind is one of
// pod, deployment or job and tag is one of container, namespace or context.
package target

import (
	"fmt"
	"strings"

	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
)

// Kind is the type of workload a hostname points to
type Kind string

const (
	// KindPod targets a pod by name
	KindPod Kind = "pod"

	// KindDeployment targets a ready pod of a deployment
	KindDeployment Kind = "deployment"

	// KindJob targets a ready pod of a job
	KindJob Kind = "job"

	containerTag = "container"
	namespaceTag = "namespace"
	contextTag   = "context"

	separator = "--"

	// DefaultPort is the ssh port used when the client doesn't send one
	DefaultPort = 22
)

const grammarHint = "Use <kind>--<name>[.container--<name>][.namespace--<name>][.context--<name>].sshpod, where kind is pod, deployment or job"

// Token is one tag--value segment of a hostname, in the order it was written
type Token struct {
	Tag   string
	Value string
}

// Descriptor is the workload reference parsed from a hostname
type Descriptor struct {
	Kind      Kind
	Name      string
	Container string
	Namespace string
	Context   string
	User      string
	Tokens    []Token
	Port      int
}

// Parse turns an sshpod hostname into a Descriptor. user and port are the
// values the ssh client asked for and are carried along unchanged.
func Parse(host, user string, port int) (*Descriptor, error) {
	raw := host
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if !strings.HasSuffix(strings.ToLower(host), config.HostSuffix) {
		return nil, malformed(raw, "missing '%s' suffix", config.HostSuffix)
	}
	body := host[:len(host)-len(config.HostSuffix)]
	if body == "" {
		return nil, malformed(raw, "no workload before '%s'", config.HostSuffix)
	}

	if port <= 0 {
		port = DefaultPort
	}
	d := &Descriptor{
		User: user,
		Port: port,
	}

	seen := map[string]bool{}
	for _, segment := range strings.Split(body, ".") {
		if segment == "" {
			continue
		}
		tag, value, found := strings.Cut(segment, separator)
		if !found {
			return nil, malformed(raw, "'%s' is not a tag--value pair", segment)
		}
		tag = strings.ToLower(tag)
		if value == "" {
			return nil, malformed(raw, "tag '%s' has an empty value", tag)
		}

		switch tag {
		case string(KindPod), string(KindDeployment), string(KindJob):
			if d.Kind != "" {
				return nil, malformed(raw, "more than one workload: '%s--%s' and '%s--%s'", d.Kind, d.Name, tag, value)
			}
			d.Kind = Kind(tag)
			d.Name = value
		case containerTag, namespaceTag, contextTag:
			if seen[tag] {
				return nil, malformed(raw, "tag '%s' is repeated", tag)
			}
			seen[tag] = true
			switch tag {
			case containerTag:
				d.Container = value
			case namespaceTag:
				d.Namespace = value
			default:
				d.Context = value
			}
		default:
			return nil, malformed(raw, "unknown tag '%s'", tag)
		}
		d.Tokens = append(d.Tokens, Token{Tag: tag, Value: value})
	}

	if d.Kind == "" {
		return nil, malformed(raw, "missing workload, one of 'pod--', 'deployment--' or 'job--' is required")
	}
	return d, nil
}

func malformed(host, format string, args ...interface{}) error {
	return oktetoErrors.UserError{
		E:    fmt.Errorf("%w: '%s': %s", oktetoErrors.ErrMalformedTarget, host, fmt.Sprintf(format, args...)),
		Hint: grammarHint,
	}
}

// Hostname renders the canonical hostname of the descriptor
func (d *Descriptor) Hostname() string {
	parts := []string{fmt.Sprintf("%s%s%s", d.Kind, separator, d.Name)}
	if d.Container != "" {
		parts = append(parts, containerTag+separator+d.Container)
	}
	if d.Namespace != "" {
		parts = append(parts, namespaceTag+separator+d.Namespace)
	}
	if d.Context != "" {
		parts = append(parts, contextTag+separator+d.Context)
	}
	return strings.Join(parts, ".") + config.HostSuffix
}

// String returns a short human readable reference, e.g. "deployment 'web'"
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s '%s'", d.Kind, d.Name)
}

// TokenString renders the tokens in the order they were written
func (d *Descriptor) TokenString() string {
	parts := make([]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		parts = append(parts, t.Tag+separator+t.Value)
	}
	return strings.Join(parts, ".")
}
