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

// Package lock serializes the processes of this machine that work on the same key
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
)

const retryDelay = 100 * time.Millisecond

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Lock is an exclusive lock on a file
type Lock struct {
	flock  *flock.Flock
	logger *log.Logger
	path   string
}

// Path returns the lock file path of key inside dir
func Path(dir, key string) string {
	return filepath.Join(dir, unsafeChars.ReplaceAllString(key, "_")+".lock")
}

// Acquire blocks until the lock of key is held, ctx is done or timeout elapses.
// A timeout of 0 waits as long as ctx allows.
func Acquire(ctx context.Context, dir, key string, timeout time.Duration, logger *log.Logger) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create '%s': %w", dir, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p := Path(dir, key)
	fl := flock.New(p)
	start := time.Now()
	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, oktetoErrors.UserError{
				E:    fmt.Errorf("%w: waited %s for '%s'", oktetoErrors.ErrLockTimeout, time.Since(start).Round(time.Millisecond), p),
				Hint: "Another sshpod process is deploying to the same container. Try again once it finishes",
			}
		}
		return nil, fmt.Errorf("failed to lock '%s': %w", p, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: '%s'", oktetoErrors.ErrLockTimeout, p)
	}
	logger.Debugf("acquired '%s' after %s", p, time.Since(start).Round(time.Millisecond))
	return &Lock{flock: fl, path: p, logger: logger}, nil
}

// Unlock releases the lock. It's safe to call it more than once.
func (l *Lock) Unlock() {
	if l == nil || !l.flock.Locked() {
		return
	}
	if err := l.flock.Unlock(); err != nil {
		l.logger.Warningf("failed to release '%s': %s", l.path, err)
		return
	}
	l.logger.Debugf("released '%s'", l.path)
}
