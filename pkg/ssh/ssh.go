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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okteto/sshpod/pkg/config"
	"github.com/okteto/sshpod/pkg/filesystem"
	"github.com/spf13/afero"
)

const sshConfigFile = ".ssh/config"

// ConfigUpdate describes the result of writing the block to an ssh config
type ConfigUpdate struct {
	Path    string
	Backup  string
	Content []byte
	Changed bool
}

// DefaultConfigPath returns the ssh config of the user
func DefaultConfigPath() (string, error) {
	home, err := config.GetUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, sshConfigFile), nil
}

// UpdateConfig writes the block to the ssh config at path. The previous
// content is copied to path.bak.<unix timestamp> before it's replaced.
// Nothing is written when dryRun is true or the block is already up to date.
func UpdateConfig(fs afero.Fs, path string, b *Block, now time.Time, dryRun bool) (*ConfigUpdate, error) {
	current, err := filesystem.ReadFileIfExists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w", path, err)
	}

	content, err := b.Render(current)
	if err != nil {
		return nil, fmt.Errorf("fail to decode %s: %w", path, err)
	}

	result := &ConfigUpdate{
		Path:    path,
		Content: content,
		Changed: !bytes.Equal(content, current),
	}
	if dryRun || !result.Changed {
		return result, nil
	}

	mode := os.FileMode(0600)
	if current != nil {
		info, err := fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get info on %s: %w", path, err)
		}
		mode = info.Mode().Perm()

		result.Backup = fmt.Sprintf("%s.bak.%d", path, now.Unix())
		if err := filesystem.CopyFile(fs, path, result.Backup); err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	if err := filesystem.WriteFileAtomic(fs, path, content, mode); err != nil {
		return nil, fmt.Errorf("fail to save %s: %w", path, err)
	}
	return result, nil
}
