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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sshConfigExample = `VisualHostKey yes

# dev
Host dev
  HostName 127.0.0.1
  User ubuntu
  Port 22
`
	testBlock = &Block{
		Binary:       "/usr/local/bin/sshpod",
		KnownHosts:   "/home/cindy/.cache/sshpod/known_hosts",
		IdentityFile: "/home/cindy/.cache/sshpod/id_ed25519",
	}
)

func TestBlockString(t *testing.T) {
	expected := `# >>> sshpod start
Host *.sshpod
  ProxyCommand /usr/local/bin/sshpod proxy --host %h --user %r --port %p
  UserKnownHostsFile /home/cindy/.cache/sshpod/known_hosts
  GlobalKnownHostsFile /dev/null
  StrictHostKeyChecking yes
  CheckHostIP no
  IdentityFile /home/cindy/.cache/sshpod/id_ed25519
  IdentitiesOnly yes
  BatchMode yes
  ForwardAgent yes
# <<< sshpod end
`
	assert.Equal(t, expected, testBlock.String())
}

func TestNewBlock(t *testing.T) {
	b := NewBlock("/usr/local/bin/sshpod", "~/.cache/sshpod", "")
	assert.Equal(t, "~/.cache/sshpod/known_hosts", b.KnownHosts)
	assert.Equal(t, "~/.cache/sshpod/id_ed25519", b.IdentityFile)
	assert.NotContains(t, b.ProxyCommand(), "--log-level")
}

func TestProxyCommandQuoting(t *testing.T) {
	b := &Block{Binary: "/Users/Cindy Lou/bin/sshpod", LogLevel: "debug"}
	assert.Equal(t, "'/Users/Cindy Lou/bin/sshpod' proxy --host %h --user %r --port %p --log-level debug", b.ProxyCommand())
}

func TestRender(t *testing.T) {
	content, err := testBlock.Render([]byte(sshConfigExample))
	require.NoError(t, err)
	assert.Equal(t, sshConfigExample+"\n"+testBlock.String(), string(content))

	again, err := testBlock.Render(content)
	require.NoError(t, err)
	assert.Equal(t, string(content), string(again))

	updated := &Block{Binary: "/opt/sshpod", KnownHosts: testBlock.KnownHosts, IdentityFile: testBlock.IdentityFile}
	replaced, err := updated.Render(append(content, []byte("Host *\n  User root\n")...))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(replaced), blockStart))
	assert.Contains(t, string(replaced), "ProxyCommand /opt/sshpod proxy")
	assert.NotContains(t, string(replaced), "/usr/local/bin/sshpod")
	assert.True(t, strings.HasSuffix(string(replaced), "Host *\n  User root\n"))

	content, err = testBlock.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, testBlock.String(), string(content))
}

func TestRenderUnbalancedMarkers(t *testing.T) {
	_, err := testBlock.Render([]byte(blockStart + "\nHost *.sshpod\n"))
	assert.Error(t, err)
	_, err = testBlock.Render([]byte("Host *.sshpod\n" + blockEnd + "\n"))
	assert.Error(t, err)
}

func TestShadowed(t *testing.T) {
	content, err := testBlock.Render([]byte(sshConfigExample))
	require.NoError(t, err)
	shadow, err := testBlock.Shadowed(content)
	require.NoError(t, err)
	assert.Empty(t, shadow)

	content, err = testBlock.Render([]byte("Host *\n  ProxyCommand nc %h %p\n"))
	require.NoError(t, err)
	shadow, err = testBlock.Shadowed(content)
	require.NoError(t, err)
	assert.Equal(t, "nc %h %p", shadow)
}

func TestUpdateConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/cindy/.ssh/config"
	require.NoError(t, afero.WriteFile(fs, path, []byte(sshConfigExample), 0640))
	now := time.Unix(1760000000, 0)

	result, err := UpdateConfig(fs, path, testBlock, now, false)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, "/home/cindy/.ssh/config.bak.1760000000", result.Backup)

	backup, err := afero.ReadFile(fs, result.Backup)
	require.NoError(t, err)
	assert.Equal(t, sshConfigExample, string(backup))

	written, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, string(result.Content), string(written))
	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	result, err = UpdateConfig(fs, path, testBlock, now.Add(time.Hour), false)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Empty(t, result.Backup)
}

func TestUpdateConfigNewFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/cindy/.ssh/config"

	result, err := UpdateConfig(fs, path, testBlock, time.Now(), false)
	require.NoError(t, err)
	assert.Empty(t, result.Backup)
	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestUpdateConfigDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/cindy/.ssh/config"

	result, err := UpdateConfig(fs, path, testBlock, time.Now(), true)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, testBlock.String(), string(result.Content))
	_, err = fs.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
