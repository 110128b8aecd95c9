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

// probeScript prints the presence marker of $1, or nothing
const probeScript = `# sshpod:bundle-probe
cat "$1/bundle/.sshpod-ready" 2>/dev/null || true
`

// toolsScript prints the decompressors available in the container, best first
const toolsScript = `# sshpod:bundle-tools
for tool in xz gzip; do
  if command -v "$tool" >/dev/null 2>&1; then
    echo "$tool"
  fi
done
`

// installScript reads the bundle from stdin, decodes it as $2 and installs it
// under $1. The marker $3 is written last: an interrupted upload never looks cached.
const installScript = `# sshpod:bundle-install
set -eu
umask 077
base="$1"
encoding="$2"
marker="$3"
dir="$base/bundle"

mkdir -p "$dir" "$base/hostkeys"
rm -f "$dir/.sshpod-ready"

if [ -f "$base/sshd.pid" ]; then
  kill "$(cat "$base/sshd.pid")" 2>/dev/null || true
fi
rm -f "$base/sshd.pid" "$base/sshd.port"

tmp="$dir/.sshd.$$"
ready="$dir/.ready.$$"
trap 'rm -f "$tmp" "$ready"' EXIT

case "$encoding" in
  xz) xz -dc > "$tmp" ;;
  gzip) gzip -dc > "$tmp" ;;
  plain) cat > "$tmp" ;;
  *) echo "unknown encoding '$encoding'" >&2; exit 2 ;;
esac

if [ ! -s "$tmp" ]; then
  echo "received an empty bundle" >&2
  exit 1
fi
chmod 700 "$tmp"
mv -f "$tmp" "$dir/sshd"

printf '%s\n' "$marker" > "$ready"
mv -f "$ready" "$dir/.sshpod-ready"
`
