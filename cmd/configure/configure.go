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

package configure

import (
	"context"
	"io"
	"time"

	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/ssh"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Options is the input of the user to the configure command
type Options struct {
	SSHConfig string
	LogLevel  string
	DryRun    bool
}

// Configure writes the sshpod Host block to the ssh config of the user
type Configure struct {
	fs          afero.Fs
	logger      *log.Logger
	home        string
	homeDisplay string
	binary      string
	lockTimeout time.Duration
	now         func() time.Time
}

// NewConfigure creates a new configure command
func NewConfigure(fs afero.Fs, home string, lockTimeout time.Duration, logger *log.Logger) *Configure {
	return &Configure{
		fs:          fs,
		logger:      logger,
		home:        home,
		homeDisplay: config.GetHomeDisplay(),
		binary:      config.GetBinaryFullPath(),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// Cmd returns the cobra configure command
func (c *Configure) Cmd(ctx context.Context) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Add the sshpod Host block to your ssh config",
		Example: `# Update ~/.ssh/config
sshpod configure

# Show the resulting file without writing it
sshpod configure --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(ctx, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.SSHConfig, "ssh-config", "", "path of the ssh config file (defaults to ~/.ssh/config)")
	cmd.Flags().StringVar(&opts.LogLevel, "proxy-log-level", "", "log level passed to the proxy command (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the resulting file instead of writing it")
	return cmd
}

// Run renders the block into the ssh config. The client key is created
// beforehand so the IdentityFile of the block exists.
func (c *Configure) Run(ctx context.Context, opts *Options, out io.Writer) error {
	path := opts.SSHConfig
	if path == "" {
		var err error
		path, err = ssh.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if opts.LogLevel != "" {
		if err := log.New(io.Discard).SetLevel(opts.LogLevel); err != nil {
			return oktetoErrors.UserError{
				E:    err,
				Hint: "Use one of debug, info, warn or error",
			}
		}
	}

	block := ssh.NewBlock(c.binary, c.homeDisplay, opts.LogLevel)
	if !opts.DryRun {
		keys := ssh.NewKeyStore(c.fs, c.home, config.GetLocksDir(c.home), c.lockTimeout, c.logger)
		if _, err := keys.EnsureClientKey(ctx); err != nil {
			return err
		}
	}

	result, err := ssh.UpdateConfig(c.fs, path, block, c.now(), opts.DryRun)
	if err != nil {
		return err
	}

	if shadow, err := block.Shadowed(result.Content); err != nil {
		c.logger.Warningf("couldn't validate %s: %s", path, err)
	} else if shadow != "" {
		c.logger.Warningf("an earlier entry of %s sets 'ProxyCommand %s' for sshpod hostnames", path, shadow)
		c.logger.Hint("Move the sshpod block above that entry")
	}

	if opts.DryRun {
		_, err := out.Write(result.Content)
		return err
	}
	if !result.Changed {
		c.logger.Success("%s is up to date", path)
		return nil
	}
	if result.Backup != "" {
		c.logger.Success("Updated %s (backup in %s)", path, result.Backup)
		return nil
	}
	c.logger.Success("Created %s", path)
	return nil
}
