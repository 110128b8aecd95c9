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

package bundle

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

//go:embed bundles
var embedded embed.FS

const embeddedDir = "bundles"

// Artifact is the xz compressed ssh daemon of one architecture
type Artifact struct {
	Name   string
	Arch   string
	Digest string
	Data   []byte
}

// Source returns the artifact of an architecture
type Source interface {
	Artifact(arch string) (*Artifact, error)
}

// Locator looks for artifacts in the embedded bundles and then in folders on disk
type Locator struct {
	embedded fs.FS
	dirs     []string
}

// NewLocator returns a locator for the embedded bundles, the folder named by
// SSHPOD_BUNDLE_DIR and the bundles folder next to the sshpod binary
func NewLocator() *Locator {
	dirs := []string{}
	if v := os.Getenv(config.BundleDirEnvVar); v != "" {
		dirs = append(dirs, v)
	}
	dirs = append(dirs, filepath.Join(filepath.Dir(config.GetBinaryFullPath()), embeddedDir))

	sub, err := fs.Sub(embedded, embeddedDir)
	if err != nil {
		sub = nil
	}
	return &Locator{
		embedded: sub,
		dirs:     dirs,
	}
}

// NewDirLocator returns a locator reading only the given folders
func NewDirLocator(dirs ...string) *Locator {
	return &Locator{dirs: dirs}
}

// ArtifactName returns the file name of the artifact of an architecture
func ArtifactName(arch string) string {
	return fmt.Sprintf("sshd_%s.xz", arch)
}

// Artifact returns the artifact of arch, or ErrDeployFailed if it's missing or invalid
func (l *Locator) Artifact(arch string) (*Artifact, error) {
	name := ArtifactName(arch)
	data, err := l.read(name)
	if err != nil {
		searched := append([]string{"<embedded>"}, l.dirs...)
		return nil, oktetoErrors.UserError{
			E:    fmt.Errorf("%w: no ssh daemon bundle for %s: %w", oktetoErrors.ErrDeployFailed, arch, err),
			Hint: fmt.Sprintf("Place '%s' in one of [%s] or set %s", name, strings.Join(searched, ", "), config.BundleDirEnvVar),
		}
	}
	return NewArtifact(name, arch, data)
}

func (l *Locator) read(name string) ([]byte, error) {
	if l.embedded != nil {
		data, err := fs.ReadFile(l.embedded, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", path.Join(embeddedDir, name), fs.ErrNotExist)
}

// NewArtifact validates data as an xz stream and computes its digest
func NewArtifact(name, arch string, data []byte) (*Artifact, error) {
	if len(data) < xz.HeaderLen || !xz.ValidHeader(data[:xz.HeaderLen]) {
		return nil, fmt.Errorf("%w: '%s' is not an xz file", oktetoErrors.ErrDeployFailed, name)
	}
	sum := blake3.Sum256(data)
	return &Artifact{
		Name:   name,
		Arch:   arch,
		Digest: hex.EncodeToString(sum[:16]),
		Data:   data,
	}, nil
}

// Marker returns the content of the presence marker written after a successful upload
func (a *Artifact) Marker() string {
	return fmt.Sprintf("%s %s", a.Digest, a.Arch)
}
