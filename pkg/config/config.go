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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const (
	// HomeEnvVar overrides the folder where sshpod keeps keys, locks and logs
	HomeEnvVar = "SSHPOD_HOME"

	// BundleDirEnvVar points to a folder with ssh daemon bundles
	BundleDirEnvVar = "SSHPOD_BUNDLE_DIR"

	// LogFileName is the name of the rotating log file inside the sshpod home
	LogFileName = "sshpod.log"

	// HostSuffix is the hostname suffix handled by sshpod
	HostSuffix = ".sshpod"

	// RemoteBaseDir is the in-container scratch folder
	RemoteBaseDir = "/tmp/sshpod"

	locksFolderName = "locks"
)

// VersionString the version of the cli
var VersionString string

// GetVersion returns the version of the cli
func GetVersion() string {
	if VersionString == "" {
		return "dev"
	}
	return VersionString
}

// GetBinaryName returns the name of the binary
func GetBinaryName() string {
	return filepath.Base(GetBinaryFullPath())
}

// GetBinaryFullPath returns the path of the running binary
func GetBinaryFullPath() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			return resolved
		}
		return exe
	}
	return os.Args[0]
}

// GetUserHomeDir returns the OS home dir
func GetUserHomeDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("couldn't determine your home directory: %w", err)
	}
	return home, nil
}

// GetHomeDisplay returns the sshpod home as it should be written in files read by
// other tools: the default location is rendered with a leading '~'
func GetHomeDisplay() string {
	if v, ok := os.LookupEnv(HomeEnvVar); ok && v != "" {
		return v
	}
	return filepath.ToSlash(filepath.Join("~", ".cache", "sshpod"))
}

// GetHome returns the path of the sshpod folder, creating it with 0700 if missing
func GetHome() (string, error) {
	d, ok := os.LookupEnv(HomeEnvVar)
	if !ok || d == "" {
		home, err := GetUserHomeDir()
		if err != nil {
			return "", err
		}
		d = filepath.Join(home, ".cache", "sshpod")
	}

	if err := os.MkdirAll(d, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", d, err)
	}
	if err := os.Chmod(d, 0700); err != nil {
		return "", fmt.Errorf("failed to set permissions of %s: %w", d, err)
	}
	return d, nil
}

// GetLocksDir returns the folder holding the lock files
func GetLocksDir(home string) string {
	return filepath.Join(home, locksFolderName)
}

// GetLogPath returns the path of the log file
func GetLogPath(home string) string {
	return filepath.Join(home, LogFileName)
}

// GetKubeconfigPath returns the path to the kubeconfig file, taking the KUBECONFIG env var into consideration
func GetKubeconfigPath() string {
	kubeconfigEnv := os.Getenv("KUBECONFIG")
	if len(kubeconfigEnv) > 0 {
		return splitKubeConfigEnv(kubeconfigEnv)
	}
	home, err := GetUserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".kube", "config")
}

func splitKubeConfigEnv(value string) string {
	if runtime.GOOS == "windows" {
		return strings.Split(value, ";")[0]
	}
	return strings.Split(value, ":")[0]
}

// GetRemoteDir returns the in-container scratch folder of a pod container
func GetRemoteDir(podUID, container string) string {
	return fmt.Sprintf("%s/%s/%s", RemoteBaseDir, podUID, container)
}
