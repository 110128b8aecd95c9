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

package lock

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("locks", "0b5e-11_app.lock"), Path("locks", "0b5e-11_app"))
	assert.Equal(t, filepath.Join("locks", "a_b_c.lock"), Path("locks", "a/b c"))
}

func TestAcquireIsExclusive(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard)

	var holders, maxHolders int32
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			l, err := Acquire(ctx, dir, "uid_app", 10*time.Second, logger)
			if err != nil {
				return err
			}
			defer l.Unlock()
			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxHolders)
				if n <= m || atomic.CompareAndSwapInt32(&maxHolders, m, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), maxHolders)
}

func TestAcquireTimeout(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(io.Discard)

	held, err := Acquire(context.Background(), dir, "uid_app", time.Second, logger)
	require.NoError(t, err)
	defer held.Unlock()

	_, err = Acquire(context.Background(), dir, "uid_app", 300*time.Millisecond, logger)
	assert.ErrorIs(t, err, oktetoErrors.ErrLockTimeout)
	assert.NotEmpty(t, oktetoErrors.Hint(err))

	other, err := Acquire(context.Background(), dir, "uid_sidecar", 300*time.Millisecond, logger)
	require.NoError(t, err)
	other.Unlock()
}

func TestUnlockTwice(t *testing.T) {
	l, err := Acquire(context.Background(), t.TempDir(), "uid_app", 0, log.New(io.Discard))
	require.NoError(t, err)
	l.Unlock()
	l.Unlock()

	var nilLock *Lock
	nilLock.Unlock()
}
