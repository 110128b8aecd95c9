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

// Package fake provides in-memory implementations of the cluster capabilities for tests
package fake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/ulikunitz/xz"
)

// Call records one exec request
type Call struct {
	Container cluster.Container
	Op        string
	Args      []string
	Stdin     []byte
}

// Container simulates the scratch folder and the ssh daemon of a container.
// It understands the scripts sshpod runs, identified by their "# sshpod:<op>" first line.
type Container struct {
	mu sync.Mutex

	// Arch is the output of 'uname -m'
	Arch string

	// Tools are the decompressors available in the container
	Tools []string

	// Files maps absolute paths to their content
	Files map[string][]byte

	// DaemonPort is the port of the running daemon, 0 when it's not running
	DaemonPort int

	// NextPort is the port used by the next daemon start
	NextPort int

	// BrokenTools are decompressors that are found but fail to decode
	BrokenTools []string

	// InstallDelay slows down uploads to widen race windows
	InstallDelay time.Duration

	// FailInstall makes uploads fail after the payload is written
	FailInstall bool

	// FailDaemon makes daemon starts exit with an error
	FailDaemon bool

	// Unreachable makes every exec fail with a transport error
	Unreachable bool

	calls         []Call
	installing    int
	maxInstalling int
	daemonStarts  int
}

// NewContainer returns a container reporting machine from 'uname -m' with the given decompressors
func NewContainer(machine string, tools ...string) *Container {
	return &Container{
		Arch:     machine,
		Tools:    tools,
		Files:    map[string][]byte{},
		NextPort: 20022,
	}
}

// Exec implements cluster.Executor
func (c *Container) Exec(ctx context.Context, req *cluster.ExecRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var stdin []byte
	if req.Stdin != nil {
		var err error
		stdin, err = io.ReadAll(req.Stdin)
		if err != nil {
			return err
		}
	}

	op, args := parse(req.Command)
	c.mu.Lock()
	c.calls = append(c.calls, Call{Container: req.Container, Op: op, Args: args, Stdin: stdin})
	unreachable := c.Unreachable
	c.mu.Unlock()
	if unreachable {
		return fmt.Errorf("unable to upgrade connection: container not found")
	}

	var out string
	var err error
	switch op {
	case "arch":
		out = c.Arch + "\n"
	case "bundle-probe":
		out = c.read(args[0] + "/bundle/.sshpod-ready")
	case "bundle-tools":
		out = strings.Join(c.Tools, "\n")
	case "bundle-install":
		err = c.install(args[0], args[1], args[2], stdin)
	case "identity":
		out, err = c.identity(args[0], args[1], args[2], args[3], stdin)
	case "daemon-start":
		out, err = c.startDaemon(args[0])
	default:
		return &cluster.ExitError{Code: 127, Stderr: fmt.Sprintf("unexpected command %q", strings.Join(req.Command, " "))}
	}
	if err != nil {
		if req.Stderr != nil {
			_, _ = io.WriteString(req.Stderr, err.Error())
		}
		return &cluster.ExitError{Code: 1}
	}
	if req.Stdout != nil {
		_, _ = io.WriteString(req.Stdout, out)
	}
	return nil
}

func parse(command []string) (string, []string) {
	if len(command) < 4 || command[0] != "sh" || command[1] != "-c" {
		return "", nil
	}
	firstLine, _, _ := strings.Cut(command[2], "\n")
	return strings.TrimPrefix(firstLine, "# sshpod:"), command[4:]
}

func (c *Container) read(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.Files[path])
}

func (c *Container) install(base, encoding, marker string, payload []byte) error {
	c.mu.Lock()
	c.installing++
	if c.installing > c.maxInstalling {
		c.maxInstalling = c.installing
	}
	delete(c.Files, base+"/bundle/.sshpod-ready")
	delete(c.Files, base+"/sshd.pid")
	c.DaemonPort = 0
	delay := c.InstallDelay
	fail := c.FailInstall
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.installing--
		c.mu.Unlock()
	}()
	time.Sleep(delay)

	if !c.hasTool(encoding) && encoding != "plain" {
		return fmt.Errorf("sh: %s: not found", encoding)
	}
	if c.isBroken(encoding) {
		return fmt.Errorf("%s: applet not supported", encoding)
	}
	binary, err := decode(encoding, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Files[base+"/bundle/sshd"] = binary
	if fail {
		return fmt.Errorf("mv: cannot move: no space left on device")
	}
	c.Files[base+"/bundle/.sshpod-ready"] = []byte(marker + "\n")
	return nil
}

func (c *Container) hasTool(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.Tools {
		if t == name {
			return true
		}
	}
	return false
}

func (c *Container) isBroken(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.BrokenTools {
		if t == name {
			return true
		}
	}
	return false
}

func decode(encoding string, payload []byte) ([]byte, error) {
	switch encoding {
	case "xz":
		r, err := xz.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "plain":
		return payload, nil
	default:
		return nil, fmt.Errorf("unknown encoding '%s'", encoding)
	}
}

func (c *Container) identity(base, mode, hostPub, clientPub string, hostKey []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := base + "/hostkeys/ssh_host_ed25519_key"
	_, hasKey := c.Files[key]
	_, hasPub := c.Files[key+".pub"]
	if mode == "replace" || !hasKey || !hasPub {
		if len(hostKey) == 0 {
			return "", fmt.Errorf("empty host key")
		}
		c.Files[key] = hostKey
		c.Files[key+".pub"] = []byte(hostPub + "\n")
	}
	c.Files[base+"/authorized_keys"] = []byte(clientPub + "\n")
	return string(c.Files[key+".pub"]), nil
}

func (c *Container) startDaemon(base string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DaemonPort != 0 {
		return fmt.Sprintf("running %d\n", c.DaemonPort), nil
	}
	for _, required := range []string{"/bundle/sshd", "/hostkeys/ssh_host_ed25519_key", "/authorized_keys"} {
		if _, ok := c.Files[base+required]; !ok {
			return "", fmt.Errorf("%s%s is missing", base, required)
		}
	}
	if c.FailDaemon {
		return "", fmt.Errorf("sshd exited before writing its pid file")
	}
	c.daemonStarts++
	c.DaemonPort = c.NextPort
	c.Files[base+"/sshd.pid"] = []byte("42\n")
	c.Files[base+"/sshd.port"] = []byte(fmt.Sprintf("%d\n", c.DaemonPort))
	return fmt.Sprintf("started %d\n", c.DaemonPort), nil
}

// Calls returns the exec requests received so far
func (c *Container) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]Call, len(c.calls))
	copy(result, c.calls)
	return result
}

// Count returns how many times op was executed
func (c *Container) Count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// MaxConcurrentInstalls returns the highest number of uploads that ran at the same time
func (c *Container) MaxConcurrentInstalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInstalling
}

// DaemonStarts returns how many times the daemon was started
func (c *Container) DaemonStarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.daemonStarts
}

// File returns the content of a file and whether it exists
func (c *Container) File(path string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.Files[path]
	return content, ok
}
