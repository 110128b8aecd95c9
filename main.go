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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/okteto/sshpod/cmd/configure"
	"github.com/okteto/sshpod/cmd/proxy"
	"github.com/okteto/sshpod/cmd/version"
	"github.com/okteto/sshpod/pkg/bundle"
	"github.com/okteto/sshpod/pkg/config"
	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/k8s/client"
	"github.com/okteto/sshpod/pkg/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/runtime"

	// Load the different library for authentication
	_ "k8s.io/client-go/plugin/pkg/client/auth/oidc"
)

func init() {
	// override client-go error handlers so they never write to the ssh client terminal
	runtime.ErrorHandlers = []runtime.ErrorHandler{
		func(_ context.Context, err error, msg string, _ ...interface{}) {
			log.Debugf("unhandled error: %s: %s", msg, err)
		},
	}
}

func main() {
	ctx := context.Background()
	logger := log.Default()

	home, err := config.GetHome()
	if err != nil {
		logger.Fail("%s", err)
		os.Exit(1)
	}
	logger.ConfigureFileLogger(config.GetLogPath(home))
	log.RedirectKubernetesLogs(logger)

	timeouts := config.LoadTimeouts()
	provider := client.NewProvider("", timeouts.Kubernetes, logger)
	fs := afero.NewOsFs()

	var logLevel, kubeconfig string
	root := &cobra.Command{
		Use:           fmt.Sprintf("%s COMMAND [ARG...]", config.GetBinaryName()),
		Short:         "Reach the containers of Kubernetes pods with ssh",
		SilenceErrors: true,
		PersistentPreRunE: func(ccmd *cobra.Command, args []string) error {
			ccmd.SilenceUsage = true
			if err := logger.SetLevel(logLevel); err != nil {
				return oktetoErrors.UserError{
					E:    err,
					Hint: "Use one of debug, info, warn or error",
				}
			}
			provider.SetKubeconfig(kubeconfig)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "l", log.DefaultLevel, "amount of information outputted (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "path to the kubeconfig file (defaults to $KUBECONFIG or ~/.kube/config)")
	root.AddCommand(proxy.NewProxy(fs, provider, bundle.NewLocator(), home, timeouts, logger).Cmd(ctx))
	root.AddCommand(configure.NewConfigure(fs, home, timeouts.Lock, logger).Cmd(ctx))
	root.AddCommand(version.Version())

	if err := root.Execute(); err != nil {
		logger.Fail("%s", err)
		if hint := oktetoErrors.Hint(err); hint != "" {
			logger.Hint("%s", hint)
		}
		os.Exit(1)
	}
}
