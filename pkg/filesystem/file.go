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

package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/spf13/afero"
)

// FileExistsWithFilesystem return true if the file exists or if there is an error.
func FileExistsWithFilesystem(path string, fs afero.Fs) bool {
	_, err := fs.Stat(path)
	if os.IsNotExist(err) {
		return false
	}

	if err != nil {
		log.Debugf("failed to check if %s exists: %s", path, err)
	}

	return true
}

// ReadFileIfExists returns the content of path, or nil if it doesn't exist
func ReadFileIfExists(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// WriteFileAtomic writes data to a temporary file in the folder of path and
// renames it over path. Readers see the old content or the new one, never a mix.
func WriteFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	temp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create tempfile: %w", err)
	}
	name := temp.Name()

	if _, err := temp.Write(data); err != nil {
		return cleanup(fs, temp, fmt.Errorf("failed to write %s: %w", name, err))
	}
	if err := temp.Close(); err != nil {
		return cleanup(fs, nil, fmt.Errorf("failed to close %s: %w", name, err), name)
	}
	if err := fs.Chmod(name, perm); err != nil {
		return cleanup(fs, nil, fmt.Errorf("failed to set permissions to %s: %w", name, err), name)
	}
	if err := fs.Rename(name, path); err != nil {
		return cleanup(fs, nil, fmt.Errorf("failed to move %s to %s: %w", name, path, err), name)
	}
	return nil
}

func cleanup(fs afero.Fs, f afero.File, cause error, names ...string) error {
	result := multierror.Append(nil, cause)
	if f != nil {
		names = append(names, f.Name())
		if err := f.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, name := range names {
		if err := fs.Remove(name); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}
	if len(result.Errors) == 1 {
		return cause
	}
	return result
}

// CopyFile copies the file from into to, keeping its permissions
func CopyFile(fs afero.Fs, from, to string) error {
	info, err := fs.Stat(from)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(fs, from)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, to, data, info.Mode().Perm())
}
