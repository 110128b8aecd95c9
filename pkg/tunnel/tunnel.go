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

// Package tunnel relays the standard streams of the process to the ssh daemon of a container
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/okteto/sshpod/pkg/cluster"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
)

var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// Session describes one relayed connection
type Session struct {
	ID       string
	Endpoint *resolver.Endpoint
	Port     int
	Started  time.Time
	sent     atomic.Int64
	received atomic.Int64
}

// Sent returns the bytes relayed to the container
func (s *Session) Sent() int64 {
	return s.sent.Load()
}

// Received returns the bytes relayed from the container
func (s *Session) Received() int64 {
	return s.received.Load()
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s to %s:%d", s.ID, s.Endpoint, s.Port)
}

type counter struct {
	n *atomic.Int64
}

func (c counter) Write(p []byte) (int, error) {
	c.n.Add(int64(len(p)))
	return len(p), nil
}

// Bridge connects a local reader and writer to a port of a pod
type Bridge struct {
	forwarder   cluster.Forwarder
	stdin       io.Reader
	stdout      io.Writer
	logger      *log.Logger
	signals     []os.Signal
	dialTimeout time.Duration
}

// NewBridge returns a bridge relaying stdin and stdout. dialTimeout bounds
// the port-forward handshake; 0 means no timeout.
func NewBridge(forwarder cluster.Forwarder, stdin io.Reader, stdout io.Writer, dialTimeout time.Duration, logger *log.Logger) *Bridge {
	return &Bridge{
		forwarder:   forwarder,
		stdin:       stdin,
		stdout:      stdout,
		logger:      logger,
		signals:     terminationSignals,
		dialTimeout: dialTimeout,
	}
}

// Run relays bytes between the bridge streams and port of ep until the
// container closes the stream, ctx is done or a termination signal arrives.
// The end of stdin half-closes the stream and keeps relaying the container
// output. Run returns nil when the session ends cleanly or ctx is done, and
// an ErrInterrupted error when a termination signal ends it.
func (b *Bridge) Run(ctx context.Context, ep *resolver.Endpoint, port int) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, b.signals...)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			cancel(fmt.Errorf("%w by %s", oktetoErrors.ErrInterrupted, sig))
		case <-ctx.Done():
		}
	}()

	stream, err := b.dial(ctx, ep, port)
	if err != nil {
		return fmt.Errorf("%w: failed to open a stream to %s:%d: %w", oktetoErrors.ErrTunnelFailed, ep, port, err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Endpoint: ep,
		Port:     port,
		Started:  time.Now(),
	}
	b.logger.Debugf("%s started", s)

	chUp := make(chan error, 1)
	chDown := make(chan error, 1)

	// the stdin goroutine can stay blocked in Read after Run returns; the process exits right after
	go func() {
		_, err := io.Copy(io.MultiWriter(stream, counter{&s.sent}), b.stdin)
		if err != nil {
			chUp <- err
			return
		}
		b.logger.Debugf("%s: local input closed after %d bytes", s, s.Sent())
		if err := stream.CloseWrite(); err != nil {
			chUp <- err
		}
	}()

	go func() {
		_, err := io.Copy(io.MultiWriter(b.stdout, counter{&s.received}), stream)
		chDown <- err
	}()

	var result error
	select {
	case err := <-chDown:
		if err != nil && !oktetoErrors.IsClosedNetwork(err) {
			result = fmt.Errorf("%w: %s: %w", oktetoErrors.ErrTunnelFailed, s, err)
		}
	case err := <-chUp:
		result = fmt.Errorf("%w: %s: %w", oktetoErrors.ErrTunnelFailed, s, err)
	case <-ctx.Done():
		cause := context.Cause(ctx)
		if errors.Is(cause, oktetoErrors.ErrInterrupted) {
			result = fmt.Errorf("%s: %w", s, cause)
		} else {
			b.logger.Debugf("%s canceled: %s", s, cause)
		}
	}

	if err := stream.Close(); err != nil && !oktetoErrors.IsClosedNetwork(err) && !errors.Is(err, io.EOF) {
		if result != nil {
			result = multierror.Append(result, err)
		} else {
			b.logger.Debugf("%s: failed to close the stream: %s", s, err)
		}
	}

	b.logger.Debugf("%s ended after %s: %d bytes sent, %d bytes received", s, time.Since(s.Started).Round(time.Millisecond), s.Sent(), s.Received())
	return result
}

func (b *Bridge) dial(ctx context.Context, ep *resolver.Endpoint, port int) (cluster.Stream, error) {
	if b.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.dialTimeout)
		defer cancel()
	}
	return b.forwarder.Dial(ctx, ep.Namespace, ep.PodName, port)
}
