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

package fake

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/okteto/sshpod/pkg/cluster"
)

// Forward records one port-forward request
type Forward struct {
	Namespace string
	Pod       string
	Port      int
}

// Forwarder forwards every stream to a local TCP address, whatever the pod port is
type Forwarder struct {
	mu sync.Mutex

	// Addr is the local address streams are connected to
	Addr string

	// Err is returned by Dial when set
	Err error

	forwards []Forward
}

// NewForwarder returns a forwarder connecting to addr
func NewForwarder(addr string) *Forwarder {
	return &Forwarder{Addr: addr}
}

// Dial implements cluster.Forwarder
func (f *Forwarder) Dial(ctx context.Context, namespace, pod string, port int) (cluster.Stream, error) {
	f.mu.Lock()
	f.forwards = append(f.forwards, Forward{Namespace: namespace, Pod: pod, Port: port})
	addr := f.Addr
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error forwarding port %d to pod %s: %w", port, pod, err)
	}
	return conn.(*net.TCPConn), nil
}

// Forwards returns the port-forward requests received so far
func (f *Forwarder) Forwards() []Forward {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]Forward, len(f.forwards))
	copy(result, f.forwards)
	return result
}
