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

// Package bundle keeps an architecture matched ssh daemon in the scratch
// folder of a container, uploading it only when its presence marker is
// missing or doesn't match the local artifact.
package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/okteto/sshpod/pkg/cluster"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
)

// State is what the presence marker says about the bundle of a container
type State int

const (
	// Unknown means there is no marker: nothing was ever deployed, or the upload didn't finish
	Unknown State = iota

	// Stale means the marker belongs to a different artifact or architecture
	Stale

	// Verified means the marker matches the local artifact
	Verified
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case Verified:
		return "verified"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Outcome tells callers whether Ensure uploaded a new bundle
type Outcome int

const (
	// Cached means the bundle was already present
	Cached Outcome = iota

	// Fresh means the bundle was uploaded by this call
	Fresh
)

// String returns the name of the outcome
func (o Outcome) String() string {
	if o == Fresh {
		return "fresh"
	}
	return "cached"
}

// Entry is the cache entry of a (pod UID, container) pair
type Entry struct {
	Base     string
	Expected string
	Found    string
	State    State
}

// Manager deploys bundles into containers. Callers serialize calls for the
// same pod UID and container.
type Manager struct {
	executor cluster.Executor
	source   Source
	logger   *log.Logger
}

// NewManager returns a bundle manager
func NewManager(executor cluster.Executor, source Source, logger *log.Logger) *Manager {
	return &Manager{
		executor: executor,
		source:   source,
		logger:   logger,
	}
}

// Probe reads the presence marker of the endpoint and compares it with the artifact
func (m *Manager) Probe(ctx context.Context, ep *resolver.Endpoint, a *Artifact) (*Entry, error) {
	base := ep.RemoteDir()
	found, err := cluster.RunScript(ctx, m.executor, ep.Target(), probeScript, []string{base}, nil, m.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to probe %s: %w", oktetoErrors.ErrDeployFailed, base, err)
	}

	entry := &Entry{
		Base:     base,
		Expected: a.Marker(),
		Found:    found,
	}
	switch {
	case found == "":
		entry.State = Unknown
	case found == entry.Expected:
		entry.State = Verified
	default:
		entry.State = Stale
	}
	return entry, nil
}

// Ensure guarantees the bundle of the endpoint architecture is present in the scratch folder
func (m *Manager) Ensure(ctx context.Context, ep *resolver.Endpoint) (Outcome, error) {
	a, err := m.source.Artifact(ep.Arch)
	if err != nil {
		return Cached, err
	}

	entry, err := m.Probe(ctx, ep, a)
	if err != nil {
		return Cached, err
	}
	if entry.State == Verified {
		m.logger.Debugf("bundle %s is present in %s", a.Digest, entry.Base)
		return Cached, nil
	}
	m.logger.Debugf("bundle of %s is %s (found '%s'), deploying %s", entry.Base, entry.State, entry.Found, a.Name)

	tools, err := cluster.RunScript(ctx, m.executor, ep.Target(), toolsScript, nil, nil, m.logger)
	if err != nil {
		return Cached, fmt.Errorf("%w: failed to detect decompressors: %w", oktetoErrors.ErrDeployFailed, err)
	}
	errs := &multierror.Error{ErrorFormat: joinErrors}
	for _, enc := range negotiate(tools) {
		err := m.install(ctx, ep, entry, a, enc)
		if err == nil {
			return Fresh, nil
		}
		errs = multierror.Append(errs, err)
		var exitErr *cluster.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			break
		}
		m.logger.Debugf("upload of %s using %s encoding failed: %s", a.Name, enc, err)
	}
	return Cached, fmt.Errorf("%w: failed to upload %s to %s: %w", oktetoErrors.ErrDeployFailed, a.Name, entry.Base, errs.ErrorOrNil())
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// install uploads the artifact decoded in the container with enc
func (m *Manager) install(ctx context.Context, ep *resolver.Endpoint, entry *Entry, a *Artifact, enc Encoding) error {
	payload, err := encode(a, enc)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = cluster.RunScript(ctx, m.executor, ep.Target(), installScript, []string{entry.Base, string(enc), a.Marker()}, bytes.NewReader(payload), m.logger)
	if err != nil {
		return err
	}
	m.logger.Infof("deployed %s to %s using %s encoding (%d bytes in %s)", a.Name, entry.Base, enc, len(payload), time.Since(start).Round(time.Millisecond))
	return nil
}
