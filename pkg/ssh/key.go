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

// Package ssh manages the local ssh material of sshpod: the client key pair,
// the known_hosts file and the block of the user's ssh config.
package ssh

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okteto/sshpod/pkg/filesystem"
	"github.com/okteto/sshpod/pkg/lock"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

const (
	privateKeyFile = "id_ed25519"
	publicKeyFile  = "id_ed25519.pub"
	knownHostsFile = "known_hosts"

	clientKeyComment = "sshpod"
	hostKeyComment   = "sshpod-host"

	identityLockKey   = "identity"
	knownHostsLockKey = "known_hosts"
)

// KeyStore keeps the client key pair and the known_hosts file of sshpod
type KeyStore struct {
	fs          afero.Fs
	logger      *log.Logger
	dir         string
	locksDir    string
	lockTimeout time.Duration
}

// NewKeyStore returns a key store writing to dir. Writers on this machine are
// serialized with file locks in locksDir.
func NewKeyStore(fs afero.Fs, dir, locksDir string, lockTimeout time.Duration, logger *log.Logger) *KeyStore {
	return &KeyStore{
		fs:          fs,
		dir:         dir,
		locksDir:    locksDir,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// PrivateKeyPath returns the path of the client private key
func (k *KeyStore) PrivateKeyPath() string {
	return filepath.Join(k.dir, privateKeyFile)
}

// PublicKeyPath returns the path of the client public key
func (k *KeyStore) PublicKeyPath() string {
	return filepath.Join(k.dir, publicKeyFile)
}

// KnownHostsPath returns the path of the known_hosts file sshpod pins host keys to
func (k *KeyStore) KnownHostsPath() string {
	return filepath.Join(k.dir, knownHostsFile)
}

// EnsureClientKey returns the client public key, creating the key pair if it doesn't exist.
// A missing or mismatched public key file is derived again from the private key.
func (k *KeyStore) EnsureClientKey(ctx context.Context) (ssh.PublicKey, error) {
	l, err := lock.Acquire(ctx, k.locksDir, identityLockKey, k.lockTimeout, k.logger)
	if err != nil {
		return nil, err
	}
	defer l.Unlock()

	private := k.PrivateKeyPath()
	data, err := filesystem.ReadFileIfExists(k.fs, private)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", private, err)
	}

	if data == nil {
		privateKey, public, err := generateKey(clientKeyComment)
		if err != nil {
			return nil, fmt.Errorf("failed to generate private SSH key: %w", err)
		}
		if err := filesystem.WriteFileAtomic(k.fs, private, privateKey, 0600); err != nil {
			return nil, fmt.Errorf("failed to write private SSH key: %w", err)
		}
		if err := k.writePublicKey(public); err != nil {
			return nil, err
		}
		k.logger.Infof("created ssh keypair at %s and %s", private, k.PublicKeyPath())
		return public, nil
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", private, err)
	}
	public := signer.PublicKey()

	current, err := filesystem.ReadFileIfExists(k.fs, k.PublicKeyPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", k.PublicKeyPath(), err)
	}
	if parsed, _, _, _, err := ssh.ParseAuthorizedKey(current); err == nil && bytes.Equal(parsed.Marshal(), public.Marshal()) {
		return public, nil
	}

	k.logger.Infof("%s is missing or doesn't match %s, deriving it again", k.PublicKeyPath(), private)
	if err := k.writePublicKey(public); err != nil {
		return nil, err
	}
	return public, nil
}

func (k *KeyStore) writePublicKey(public ssh.PublicKey) error {
	if err := filesystem.WriteFileAtomic(k.fs, k.PublicKeyPath(), []byte(AuthorizedKey(public, clientKeyComment)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write public SSH key: %w", err)
	}
	return nil
}

// HostKey is an ed25519 key pair for the daemon of a container
type HostKey struct {
	Public  ssh.PublicKey
	Private []byte
}

// GenerateHostKey returns a new host key pair, encoded in the OpenSSH format
func GenerateHostKey() (*HostKey, error) {
	private, public, err := generateKey(hostKeyComment)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host key: %w", err)
	}
	return &HostKey{Public: public, Private: private}, nil
}

func generateKey(comment string) ([]byte, ssh.PublicKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	block, err := ssh.MarshalPrivateKey(private, comment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	sshPublic, err := ssh.NewPublicKey(public)
	if err != nil {
		return nil, nil, err
	}
	return pem.EncodeToMemory(block), sshPublic, nil
}

// AuthorizedKey renders key as a single authorized_keys line
func AuthorizedKey(key ssh.PublicKey, comment string) string {
	line := string(bytes.TrimSpace(ssh.MarshalAuthorizedKey(key)))
	if comment == "" {
		return line
	}
	return line + " " + comment
}

// ParsePublicKey parses a public key in the authorized_keys format
func ParsePublicKey(line string) (ssh.PublicKey, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key '%s': %w", line, err)
	}
	return key, nil
}
