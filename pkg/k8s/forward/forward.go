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

package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/log"
	apiv1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/httpstream"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// errorStreamWait bounds how long a finished data stream waits for the
// error stream to report why the remote side went away
const errorStreamWait = time.Second

// Forwarder opens port-forward streams straight to a pod port, without a local listener
type Forwarder struct {
	client     kubernetes.Interface
	restConfig *rest.Config
	logger     *log.Logger

	requestID int
	mu        sync.Mutex
}

// NewForwarder returns a forwarder using SPDY connections
func NewForwarder(client kubernetes.Interface, restConfig *rest.Config, logger *log.Logger) *Forwarder {
	return &Forwarder{
		client:     client,
		restConfig: restConfig,
		logger:     logger,
	}
}

func (f *Forwarder) buildDialer(namespace, pod string) (httpstream.Dialer, error) {
	url := f.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Namespace(namespace).
		Name(pod).
		SubResource("portforward").URL()

	if f.restConfig == nil {
		return nil, fmt.Errorf("restConfig is nil")
	}

	transport, upgrader, err := spdy.RoundTripperFor(f.restConfig)
	if err != nil {
		return nil, err
	}

	return spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, url), nil
}

func (f *Forwarder) nextRequestID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.requestID
	f.requestID++
	return strconv.Itoa(id)
}

type dialResult struct {
	conn httpstream.Connection
	err  error
}

// Dial opens a stream to port of the pod. The returned stream owns the
// underlying connection: closing it releases every cluster resource.
func (f *Forwarder) Dial(ctx context.Context, namespace, pod string, port int) (cluster.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("port-forward to %s/%s: %w", namespace, pod, err)
	}
	dialer, err := f.buildDialer(namespace, pod)
	if err != nil {
		return nil, fmt.Errorf("failed to build the port-forward dialer: %w", err)
	}

	results := make(chan dialResult, 1)
	go func() {
		conn, _, err := dialer.Dial(portforward.PortForwardProtocolV1Name)
		results <- dialResult{conn: conn, err: err}
	}()

	var conn httpstream.Connection
	select {
	case <-ctx.Done():
		go func() {
			if r := <-results; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("port-forward to %s/%s: %w", namespace, pod, ctx.Err())
	case r := <-results:
		if r.err != nil {
			return nil, fmt.Errorf("error upgrading connection: %w", r.err)
		}
		conn = r.conn
	}

	s, err := f.openStreams(conn, port)
	if err != nil {
		conn.Close()
		return nil, err
	}
	f.logger.Debugf("port-forward stream to %s/%s:%d established", namespace, pod, port)
	return s, nil
}

func (f *Forwarder) openStreams(conn httpstream.Connection, port int) (*stream, error) {
	headers := http.Header{}
	headers.Set(apiv1.StreamType, apiv1.StreamTypeError)
	headers.Set(apiv1.PortHeader, strconv.Itoa(port))
	headers.Set(apiv1.PortForwardRequestIDHeader, f.nextRequestID())
	errorStream, err := conn.CreateStream(headers)
	if err != nil {
		return nil, fmt.Errorf("error creating error stream for port %d: %w", port, err)
	}
	// the error stream is only read
	errorStream.Close()

	remoteErr := make(chan error, 1)
	go func() {
		defer close(remoteErr)
		message, err := io.ReadAll(errorStream)
		switch {
		case err != nil:
			remoteErr <- fmt.Errorf("error reading from error stream for port %d: %w", port, err)
		case len(message) > 0:
			remoteErr <- fmt.Errorf("an error occurred forwarding port %d: %s", port, string(message))
		}
	}()

	headers.Set(apiv1.StreamType, apiv1.StreamTypeData)
	dataStream, err := conn.CreateStream(headers)
	if err != nil {
		return nil, fmt.Errorf("error creating forwarding stream for port %d: %w", port, err)
	}

	return &stream{
		conn:        conn,
		data:        dataStream,
		errorStream: errorStream,
		remoteErr:   remoteErr,
	}, nil
}

// stream is the data stream of a port-forward connection
type stream struct {
	conn        httpstream.Connection
	data        httpstream.Stream
	errorStream httpstream.Stream
	remoteErr   chan error
	closeOnce   sync.Once
	closeErr    error
}

// Read reads from the data stream. When the remote side finishes, the error
// reported by the kubelet, if any, replaces io.EOF.
func (s *stream) Read(p []byte) (int, error) {
	n, err := s.data.Read(p)
	if errors.Is(err, io.EOF) {
		select {
		case rErr, ok := <-s.remoteErr:
			if ok && rErr != nil {
				return n, rErr
			}
		case <-time.After(errorStreamWait):
		}
	}
	return n, err
}

func (s *stream) Write(p []byte) (int, error) {
	return s.data.Write(p)
}

// CloseWrite half-closes the data stream
func (s *stream) CloseWrite() error {
	return s.data.Close()
}

// Close tears down both streams and the connection
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		var result error
		s.conn.RemoveStreams(s.data, s.errorStream)
		if err := s.data.Reset(); err != nil {
			result = multierror.Append(result, err)
		}
		if err := s.conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		s.closeErr = result
	})
	return s.closeErr
}
