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

// Package identity installs the host key and the authorized client key of a
// container daemon, and pins the host key in the local known_hosts file.
package identity

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okteto/sshpod/pkg/bundle"
	"github.com/okteto/sshpod/pkg/cluster"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/okteto/sshpod/pkg/resolver"
	"github.com/okteto/sshpod/pkg/ssh"
	cryptossh "golang.org/x/crypto/ssh"
)

const (
	modeReplace = "replace"
	modeKeep    = "keep"
)

// installScript writes the host key read from stdin to $1/hostkeys when $2 is
// replace or no host key exists, and $4 as the only authorized key.
// It prints the host public key in use.
const installScript = `# sshpod:identity
set -eu
umask 077
base="$1"
mode="$2"
key="$base/hostkeys/ssh_host_ed25519_key"
mkdir -p "$base/hostkeys"

if [ "$mode" = "replace" ] || [ ! -s "$key" ] || [ ! -s "$key.pub" ]; then
  cat > "$key.tmp"
  if [ ! -s "$key.tmp" ]; then
    rm -f "$key.tmp"
    echo "received an empty host key" >&2
    exit 1
  fi
  printf '%s\n' "$3" > "$key.pub.tmp"
  mv -f "$key.tmp" "$key"
  mv -f "$key.pub.tmp" "$key.pub"
else
  cat > /dev/null
fi

printf '%s\n' "$4" > "$base/authorized_keys.tmp"
mv -f "$base/authorized_keys.tmp" "$base/authorized_keys"
cat "$key.pub"
`

// Identity is the key material a connection uses
type Identity struct {
	ClientKey cryptossh.PublicKey
	HostKey   cryptossh.PublicKey
	Replaced  bool
}

// Manager installs identities in containers
type Manager struct {
	executor cluster.Executor
	keys     *ssh.KeyStore
	logger   *log.Logger
}

// NewManager returns an identity manager
func NewManager(executor cluster.Executor, keys *ssh.KeyStore, logger *log.Logger) *Manager {
	return &Manager{
		executor: executor,
		keys:     keys,
		logger:   logger,
	}
}

// Ensure authorizes the local client key in the container of ep and pins its
// host key for knownHost. A Fresh bundle gets a new host key; a Cached one
// keeps the host key it has, so reconnections don't trip host key checking.
func (m *Manager) Ensure(ctx context.Context, ep *resolver.Endpoint, outcome bundle.Outcome, knownHost string) (*Identity, error) {
	clientKey, err := m.keys.EnsureClientKey(ctx)
	if err != nil {
		return nil, identityError("failed to prepare the client key", err)
	}

	hostKey, err := ssh.GenerateHostKey()
	if err != nil {
		return nil, identityError("failed to prepare the host key", err)
	}

	mode := modeKeep
	if outcome == bundle.Fresh {
		mode = modeReplace
	}

	args := []string{
		ep.RemoteDir(),
		mode,
		ssh.AuthorizedKey(hostKey.Public, ""),
		ssh.AuthorizedKey(clientKey, ""),
	}
	out, err := cluster.RunScript(ctx, m.executor, ep.Target(), installScript, args, bytes.NewReader(hostKey.Private), m.logger)
	if err != nil {
		return nil, identityError(fmt.Sprintf("failed to install keys in %s", ep), err)
	}

	installed, err := ssh.ParsePublicKey(out)
	if err != nil {
		return nil, identityError(fmt.Sprintf("unexpected host key in %s", ep), err)
	}

	if err := m.keys.PinHostKey(ctx, knownHost, installed); err != nil {
		return nil, identityError("failed to pin the host key", err)
	}

	replaced := bytes.Equal(installed.Marshal(), hostKey.Public.Marshal())
	m.logger.Debugf("host key of %s is %s (mode %s, replaced %t)", ep, cryptossh.FingerprintSHA256(installed), mode, replaced)
	return &Identity{
		ClientKey: clientKey,
		HostKey:   installed,
		Replaced:  replaced,
	}, nil
}

func identityError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", oktetoErrors.ErrIdentityError, msg, err)
}
