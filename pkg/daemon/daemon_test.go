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

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okteto/sshpod/pkg/cluster/fake"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/tmp/sshpod/9f1c/app"

func endpoint() *resolver.Endpoint {
	return &resolver.Endpoint{
		Namespace: "default",
		PodName:   "api",
		PodUID:    "9f1c",
		Container: "app",
		Arch:      resolver.ArchAMD64,
	}
}

// serveBanner accepts connections on a loopback port and answers with banner
// once ready is set.
func serveBanner(t *testing.T, banner string, ready *atomic.Bool) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			if ready.Load() {
				_, _ = io.WriteString(conn, banner)
			}
			_ = conn.Close()
		}
	}()
	return l.Addr().String()
}

func deployed() *fake.Container {
	container := fake.NewContainer("x86_64")
	container.Files[base+"/bundle/sshd"] = []byte("sshd")
	container.Files[base+"/hostkeys/ssh_host_ed25519_key"] = []byte("key")
	container.Files[base+"/authorized_keys"] = []byte("ssh-ed25519 AAAA")
	return container
}

func TestEnsureStartsDaemon(t *testing.T) {
	ready := &atomic.Bool{}
	ready.Store(true)
	forwarder := fake.NewForwarder(serveBanner(t, "SSH-2.0-OpenSSH_9.6\r\n", ready))
	container := deployed()
	container.NextPort = 34567
	s := NewSupervisor(container, forwarder, log.New(io.Discard))

	d, err := s.Ensure(context.Background(), endpoint())
	require.NoError(t, err)
	assert.Equal(t, &Daemon{Port: 34567, Started: true}, d)

	forwards := forwarder.Forwards()
	require.NotEmpty(t, forwards)
	assert.Equal(t, fake.Forward{Namespace: "default", Pod: "api", Port: 34567}, forwards[0])
}

func TestEnsureReusesRunningDaemon(t *testing.T) {
	ready := &atomic.Bool{}
	ready.Store(true)
	forwarder := fake.NewForwarder(serveBanner(t, "SSH-2.0-OpenSSH_9.6\r\n", ready))
	container := deployed()
	s := NewSupervisor(container, forwarder, log.New(io.Discard))

	first, err := s.Ensure(context.Background(), endpoint())
	require.NoError(t, err)
	second, err := s.Ensure(context.Background(), endpoint())
	require.NoError(t, err)

	assert.False(t, second.Started)
	assert.Equal(t, first.Port, second.Port)
	assert.Equal(t, 1, container.DaemonStarts())
	assert.Len(t, forwarder.Forwards(), 1)
}

func TestEnsureWaitsForBanner(t *testing.T) {
	ready := &atomic.Bool{}
	forwarder := fake.NewForwarder(serveBanner(t, "SSH-2.0-OpenSSH_9.6\r\n", ready))
	s := NewSupervisor(deployed(), forwarder, log.New(io.Discard))

	time.AfterFunc(300*time.Millisecond, func() { ready.Store(true) })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d, err := s.Ensure(ctx, endpoint())
	require.NoError(t, err)
	assert.True(t, d.Started)
	assert.Greater(t, len(forwarder.Forwards()), 1)
}

func TestEnsureTimesOutWithoutBanner(t *testing.T) {
	ready := &atomic.Bool{}
	ready.Store(true)
	forwarder := fake.NewForwarder(serveBanner(t, "HTTP/1.1 400 Bad Request\r\n", ready))
	s := NewSupervisor(deployed(), forwarder, log.New(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := s.Ensure(ctx, endpoint())
	assert.ErrorIs(t, err, oktetoErrors.ErrDaemonStartFailed)
	assert.ErrorIs(t, err, oktetoErrors.ErrTimeout)
	assert.Contains(t, err.Error(), "unexpected banner")
}

func TestEnsureStartFails(t *testing.T) {
	var tests = []struct {
		name      string
		container func() *fake.Container
		contains  string
	}{
		{
			name: "daemon exits",
			container: func() *fake.Container {
				c := deployed()
				c.FailDaemon = true
				return c
			},
			contains: "pid file",
		},
		{
			name: "missing host key",
			container: func() *fake.Container {
				c := deployed()
				delete(c.Files, base+"/hostkeys/ssh_host_ed25519_key")
				return c
			},
			contains: "ssh_host_ed25519_key is missing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container := tt.container()
			forwarder := fake.NewForwarder("127.0.0.1:1")
			s := NewSupervisor(container, forwarder, log.New(io.Discard))

			_, err := s.Ensure(context.Background(), endpoint())
			assert.ErrorIs(t, err, oktetoErrors.ErrDaemonStartFailed)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Contains(t, oktetoErrors.Hint(err), "sshd.log")
			_, ok := container.File(base + "/sshd.pid")
			assert.False(t, ok)
			assert.Empty(t, forwarder.Forwards())
		})
	}
}

func TestEnsureForwardFails(t *testing.T) {
	forwarder := fake.NewForwarder("")
	forwarder.Err = errors.New("pods \"api\" is forbidden")
	s := NewSupervisor(deployed(), forwarder, log.New(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := s.Ensure(ctx, endpoint())
	assert.ErrorIs(t, err, oktetoErrors.ErrDaemonStartFailed)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestParseOutput(t *testing.T) {
	var tests = []struct {
		out      string
		expected *Daemon
	}{
		{out: "running 20022", expected: &Daemon{Port: 20022}},
		{out: "started 41234", expected: &Daemon{Port: 41234, Started: true}},
		{out: "warning: something\nstarted 41234\n", expected: &Daemon{Port: 41234, Started: true}},
	}
	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			d, err := parseOutput(tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}

	for _, out := range []string{"", "started", "started abc", "stopped 22", "running 70000", "running 0"} {
		_, err := parseOutput(out)
		assert.Error(t, err, out)
	}
}

func TestStartScript(t *testing.T) {
	assert.True(t, strings.HasPrefix(startScript, "# sshpod:daemon-start\n"))
	for _, directive := range []string{"ListenAddress 127.0.0.1", "StrictModes no", "PasswordAuthentication no", "Subsystem sftp internal-sftp", "SetEnv"} {
		assert.Contains(t, startScript, directive)
	}
}
