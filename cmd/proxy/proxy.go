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

package proxy

import (
	"context"
	"io"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/okteto/sshpod/pkg/bundle"
	"github.com/okteto/sshpod/pkg/cluster"
	"github.com/okteto/sshpod/pkg/config"
	"github.com/okteto/sshpod/pkg/daemon"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/identity"
	"github.com/okteto/sshpod/pkg/lock"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
	"github.com/okteto/sshpod/pkg/ssh"
	"github.com/okteto/sshpod/pkg/target"
	"github.com/okteto/sshpod/pkg/tunnel"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	stageParse    = "parse"
	stageResolve  = "resolve"
	stageLock     = "lock"
	stageDeploy   = "deploy"
	stageIdentity = "identity"
	stageDaemon   = "daemon"
	stageTunnel   = "tunnel"
)

// Options is the input of the ssh client to the proxy command
type Options struct {
	Host string
	User string
	Port int
}

// clientProvider builds a cluster client for a kubeconfig context
type clientProvider interface {
	Provide(contextName string) (*cluster.Client, error)
}

// Proxy connects the standard streams of the process to the ssh daemon of a container
type Proxy struct {
	fs       afero.Fs
	provider clientProvider
	source   bundle.Source
	stdin    io.Reader
	stdout   io.Writer
	logger   *log.Logger
	timeouts config.Timeouts
	home     string
}

// NewProxy creates a new proxy command bound to the process standard streams
func NewProxy(fs afero.Fs, provider clientProvider, source bundle.Source, home string, timeouts config.Timeouts, logger *log.Logger) *Proxy {
	return &Proxy{
		fs:       fs,
		provider: provider,
		source:   source,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		logger:   logger,
		timeouts: timeouts,
		home:     home,
	}
}

// Cmd returns the cobra proxy command
func (p *Proxy) Cmd(ctx context.Context) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "proxy --host HOST [--user USER] [--port PORT]",
		Short: "Relay an ssh connection to a container (used as ProxyCommand)",
		Example: `# ~/.ssh/config
Host *.sshpod
  ProxyCommand sshpod proxy --host %h --user %r --port %p`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.User == "" {
				opts.User = currentUser()
			}
			return p.Run(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Host, "host", "", "hostname requested by the ssh client")
	cmd.Flags().StringVar(&opts.User, "user", "", "login user requested by the ssh client")
	cmd.Flags().IntVar(&opts.Port, "port", target.DefaultPort, "port requested by the ssh client")
	if err := cmd.MarkFlagRequired("host"); err != nil {
		p.logger.Debugf("failed to mark 'host' as required: %s", err)
	}
	return cmd
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// Run resolves the container named by opts.Host, makes sure its ssh daemon
// is running and relays the process streams to it until the connection ends.
// Nothing is written to stdout unless every step before the relay succeeds.
func (p *Proxy) Run(ctx context.Context, opts *Options) error {
	logger := p.logger.WithField("session", uuid.NewString())

	d, err := target.Parse(opts.Host, opts.User, opts.Port)
	if err != nil {
		return oktetoErrors.InStage(stageParse, err)
	}
	logger.Debugf("connecting to %s", d.Hostname())

	c, err := p.provider.Provide(d.Context)
	if err != nil {
		return oktetoErrors.InStage(stageResolve, err)
	}

	resolveCtx, cancel := withTimeout(ctx, p.timeouts.Resolve)
	ep, err := resolver.NewResolver(c, logger).Resolve(resolveCtx, d)
	cancel()
	if err != nil {
		return oktetoErrors.InStage(stageResolve, err)
	}
	logger = logger.WithField("target", ep.String())
	logger.Debugf("ssh client asked for user '%s' and port %d; the daemon runs as the container user", d.User, d.Port)

	port, err := p.prepare(ctx, c, ep, ssh.KnownHostAddress(opts.Host, d.Port), logger)
	if err != nil {
		return err
	}

	bridge := tunnel.NewBridge(c.Forwarder, p.stdin, p.stdout, p.timeouts.Forward, logger)
	return oktetoErrors.InStage(stageTunnel, bridge.Run(ctx, ep, port))
}

// prepare deploys the bundle, installs the keys and starts the daemon of ep
// while holding the lock of ep. It returns the port of the daemon.
func (p *Proxy) prepare(ctx context.Context, c *cluster.Client, ep *resolver.Endpoint, knownHost string, logger *log.Logger) (int, error) {
	locksDir := config.GetLocksDir(p.home)
	l, err := lock.Acquire(ctx, locksDir, ep.Key(), p.timeouts.Lock, logger)
	if err != nil {
		return 0, oktetoErrors.InStage(stageLock, err)
	}
	defer l.Unlock()

	deployCtx, cancel := withTimeout(ctx, p.timeouts.Deploy)
	defer cancel()

	outcome, err := bundle.NewManager(c.Executor, p.source, logger).Ensure(deployCtx, ep)
	if err != nil {
		return 0, oktetoErrors.InStage(stageDeploy, err)
	}

	keys := ssh.NewKeyStore(p.fs, p.home, locksDir, p.timeouts.Lock, logger)
	if _, err := identity.NewManager(c.Executor, keys, logger).Ensure(deployCtx, ep, outcome, knownHost); err != nil {
		return 0, oktetoErrors.InStage(stageIdentity, err)
	}

	daemonCtx, cancelDaemon := withTimeout(ctx, p.timeouts.Daemon)
	defer cancelDaemon()
	d, err := daemon.NewSupervisor(c.Executor, c.Forwarder, logger).Ensure(daemonCtx, ep)
	if err != nil {
		return 0, oktetoErrors.InStage(stageDaemon, err)
	}
	return d.Port, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
