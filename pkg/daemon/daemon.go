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

// Package daemon starts the ssh daemon of a container, reusing a live one
package daemon

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okteto/sshpod/pkg/cluster"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
)

//go:embed start.sh
var startScript string

const (
	stateRunning = "running"
	stateStarted = "started"

	bannerPrefix        = "SSH-"
	initialPollInterval = 100 * time.Millisecond
	maxPollInterval     = 2 * time.Second
	backoffMultiplier   = 2.0
)

// Daemon is the ssh daemon of a container
type Daemon struct {
	Port    int
	Started bool
}

// Supervisor keeps one ssh daemon per (pod UID, container). Callers serialize
// calls for the same pod UID and container.
type Supervisor struct {
	executor  cluster.Executor
	forwarder cluster.Forwarder
	logger    *log.Logger
}

// NewSupervisor returns a daemon supervisor
func NewSupervisor(executor cluster.Executor, forwarder cluster.Forwarder, logger *log.Logger) *Supervisor {
	return &Supervisor{
		executor:  executor,
		forwarder: forwarder,
		logger:    logger,
	}
}

// Ensure returns the daemon of ep, starting it if it isn't running.
// A daemon started by this call is checked to answer with an ssh banner
// before Ensure returns.
func (s *Supervisor) Ensure(ctx context.Context, ep *resolver.Endpoint) (*Daemon, error) {
	out, err := cluster.RunScript(ctx, s.executor, ep.Target(), startScript, []string{ep.RemoteDir()}, nil, s.logger)
	if err != nil {
		return nil, startError(ctx, ep, err)
	}

	d, err := parseOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oktetoErrors.ErrDaemonStartFailed, err)
	}

	if !d.Started {
		s.logger.Debugf("reusing the ssh daemon of %s on port %d", ep, d.Port)
		return d, nil
	}

	s.logger.Infof("started the ssh daemon of %s on port %d", ep, d.Port)
	if err := s.waitUntilReady(ctx, ep, d.Port); err != nil {
		return nil, err
	}
	return d, nil
}

func startError(ctx context.Context, ep *resolver.Endpoint, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w: timed out starting the ssh daemon of %s: %w", oktetoErrors.ErrDaemonStartFailed, oktetoErrors.ErrTimeout, ep, err)
	}
	return oktetoErrors.UserError{
		E:    fmt.Errorf("%w: %s: %w", oktetoErrors.ErrDaemonStartFailed, ep, err),
		Hint: fmt.Sprintf("Check %s/sshd.log in the container", ep.RemoteDir()),
	}
}

func parseOutput(out string) (*Daemon, error) {
	fields := strings.Fields(lastLine(out))
	if len(fields) != 2 {
		return nil, fmt.Errorf("unexpected output '%s'", out)
	}

	port, err := strconv.Atoi(fields[1])
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("unexpected port in '%s'", out)
	}

	switch fields[0] {
	case stateRunning:
		return &Daemon{Port: port}, nil
	case stateStarted:
		return &Daemon{Port: port, Started: true}, nil
	default:
		return nil, fmt.Errorf("unexpected output '%s'", out)
	}
}

func lastLine(out string) string {
	var last string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			last = line
		}
	}
	return last
}

// waitUntilReady polls the daemon port through a port-forward stream until it answers with an ssh banner
func (s *Supervisor) waitUntilReady(ctx context.Context, ep *resolver.Endpoint, port int) error {
	pollInterval := initialPollInterval
	start := time.Now()
	var lastErr error
	for {
		banner, err := s.banner(ctx, ep, port)
		if err == nil {
			s.logger.Debugf("ssh daemon of %s answered '%s' after %s", ep, banner, time.Since(start).Round(time.Millisecond))
			return nil
		}
		if ctx.Err() == nil || lastErr == nil {
			lastErr = err
		}
		s.logger.Debugf("ssh daemon of %s is not ready: %s", ep, err)

		select {
		case <-time.After(pollInterval):
			pollInterval = time.Duration(float64(pollInterval) * backoffMultiplier)
			if pollInterval > maxPollInterval {
				pollInterval = maxPollInterval
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: %w: ssh daemon of %s didn't answer on port %d: %w", oktetoErrors.ErrDaemonStartFailed, oktetoErrors.ErrTimeout, ep, port, lastErr)
		}
	}
}

func (s *Supervisor) banner(ctx context.Context, ep *resolver.Endpoint, port int) (string, error) {
	stream, err := s.forwarder.Dial(ctx, ep.Namespace, ep.PodName, port)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(stream).ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		if !strings.HasPrefix(r.line, bannerPrefix) {
			if r.err != nil {
				return "", fmt.Errorf("failed to read the banner: %w", r.err)
			}
			return "", fmt.Errorf("unexpected banner '%s'", r.line)
		}
		return r.line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
