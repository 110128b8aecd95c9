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
	"fmt"
	"path"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/kevinburke/ssh_config"
	"github.com/okteto/sshpod/pkg/config"
)

const (
	blockStart = "# >>> sshpod start"
	blockEnd   = "# <<< sshpod end"

	hostKeyword                  = "Host"
	proxyCommandKeyword          = "ProxyCommand"
	userKnownHostsFileKeyword    = "UserKnownHostsFile"
	globalKnownHostsFileKeyword  = "GlobalKnownHostsFile"
	strictHostKeyCheckingKeyword = "StrictHostKeyChecking"
	checkHostIPKeyword           = "CheckHostIP"
	identityFileKeyword          = "IdentityFile"
	identitiesOnlyKeyword        = "IdentitiesOnly"
	batchModeKeyword             = "BatchMode"
	forwardAgentKeyword          = "ForwardAgent"
)

type param struct {
	keyword string
	value   string
}

// Block is the Host entry sshpod manages in the ssh config of the user
type Block struct {
	Binary       string
	KnownHosts   string
	IdentityFile string
	LogLevel     string
}

// NewBlock returns the block for the sshpod binary keeping its files in home
func NewBlock(binary, home, logLevel string) *Block {
	return &Block{
		Binary:       binary,
		KnownHosts:   path.Join(home, knownHostsFile),
		IdentityFile: path.Join(home, privateKeyFile),
		LogLevel:     logLevel,
	}
}

// HostPattern returns the Host pattern matching every sshpod hostname
func HostPattern() string {
	return "*" + config.HostSuffix
}

// ProxyCommand returns the ProxyCommand value of the block
func (b *Block) ProxyCommand() string {
	args := []string{b.Binary, "proxy", "--host", "%h", "--user", "%r", "--port", "%p"}
	if b.LogLevel != "" {
		args = append(args, "--log-level", b.LogLevel)
	}
	return shellescape.QuoteCommand(args)
}

func (b *Block) params() []param {
	return []param{
		{keyword: proxyCommandKeyword, value: b.ProxyCommand()},
		{keyword: userKnownHostsFileKeyword, value: quote(b.KnownHosts)},
		{keyword: globalKnownHostsFileKeyword, value: "/dev/null"},
		{keyword: strictHostKeyCheckingKeyword, value: "yes"},
		{keyword: checkHostIPKeyword, value: "no"},
		{keyword: identityFileKeyword, value: quote(b.IdentityFile)},
		{keyword: identitiesOnlyKeyword, value: "yes"},
		{keyword: batchModeKeyword, value: "yes"},
		{keyword: forwardAgentKeyword, value: "yes"},
	}
}

func quote(path string) string {
	if strings.ContainsAny(path, " \t") {
		return fmt.Sprintf("%q", path)
	}
	return path
}

// String renders the block, markers included
func (b *Block) String() string {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, blockStart)
	fmt.Fprintf(buf, "%s %s\n", hostKeyword, HostPattern())
	for _, p := range b.params() {
		fmt.Fprintf(buf, "  %s %s\n", p.keyword, p.value)
	}
	fmt.Fprintln(buf, blockEnd)
	return buf.String()
}

// Render returns current with the block replaced, or appended when current has none
func (b *Block) Render(current []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	inBlock := false
	replaced := false
	sc := bufio.NewScanner(bytes.NewReader(current))
	for sc.Scan() {
		line := sc.Text()
		switch strings.TrimSpace(line) {
		case blockStart:
			if inBlock {
				return nil, fmt.Errorf("'%s' found twice without '%s'", blockStart, blockEnd)
			}
			inBlock = true
			continue
		case blockEnd:
			if !inBlock {
				return nil, fmt.Errorf("'%s' found without '%s'", blockEnd, blockStart)
			}
			inBlock = false
			if !replaced {
				buf.WriteString(b.String())
				replaced = true
			}
			continue
		}
		if !inBlock {
			fmt.Fprintln(buf, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if inBlock {
		return nil, fmt.Errorf("'%s' found without '%s'", blockStart, blockEnd)
	}
	if !replaced {
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n\n")) {
			buf.WriteString("\n")
		}
		buf.WriteString(b.String())
	}
	return buf.Bytes(), nil
}

// Shadowed returns the ProxyCommand the ssh client would use for sshpod
// hostnames when content sets a different one before the block, or "" otherwise.
func (b *Block) Shadowed(content []byte) (string, error) {
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to decode the ssh config: %w", err)
	}
	got, err := cfg.Get("pod--probe"+config.HostSuffix, proxyCommandKeyword)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(got) == b.ProxyCommand() {
		return "", nil
	}
	return got, nil
}
