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

package ssh

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/okteto/sshpod/pkg/filesystem"
	"github.com/okteto/sshpod/pkg/lock"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// KnownHostAddress returns the known_hosts name the ssh client looks up for host and port
func KnownHostAddress(host string, port int) string {
	return knownhosts.Normalize(net.JoinHostPort(strings.ToLower(host), strconv.Itoa(port)))
}

// PinHostKey records key as the only host key of address in the known_hosts file
func (k *KeyStore) PinHostKey(ctx context.Context, address string, key ssh.PublicKey) error {
	l, err := lock.Acquire(ctx, k.locksDir, knownHostsLockKey, k.lockTimeout, k.logger)
	if err != nil {
		return err
	}
	defer l.Unlock()

	path := k.KnownHostsPath()
	current, err := filesystem.ReadFileIfExists(k.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	line := knownhosts.Line([]string{address}, key)
	updated := &bytes.Buffer{}
	found := false
	sc := bufio.NewScanner(bytes.NewReader(current))
	for sc.Scan() {
		existing := sc.Text()
		if !matchesAddress(existing, address) {
			fmt.Fprintln(updated, existing)
			continue
		}
		if existing == line && !found {
			found = true
			fmt.Fprintln(updated, existing)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if found && bytes.Equal(updated.Bytes(), current) {
		return nil
	}
	if !found {
		fmt.Fprintln(updated, line)
	}

	if err := filesystem.WriteFileAtomic(k.fs, path, updated.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	k.logger.Debugf("pinned host key %s for %s", ssh.FingerprintSHA256(key), address)
	return nil
}

func matchesAddress(line, address string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
		return false
	}
	fields := strings.Fields(line)
	for _, h := range strings.Split(fields[0], ",") {
		if h == address {
			return true
		}
	}
	return false
}
