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

package deployments

import (
	"context"
	"fmt"

	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/k8s/pods"
	"github.com/okteto/sshpod/pkg/k8s/replicasets"
	appsv1 "k8s.io/api/apps/v1"
	apiv1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Get returns a deployment object by name
func Get(ctx context.Context, name, namespace string, c kubernetes.Interface) (*appsv1.Deployment, error) {
	d, err := c.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8sErrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: deployment '%s' in namespace '%s'", oktetoErrors.ErrNotFound, name, namespace)
		}
		return nil, err
	}
	return d, nil
}

// GetPods returns the pods owned by the replica sets of a deployment
func GetPods(ctx context.Context, d *appsv1.Deployment, c kubernetes.Interface) ([]apiv1.Pod, error) {
	if d.Spec.Selector == nil {
		return nil, fmt.Errorf("deployment '%s' has no selector", d.Name)
	}
	selector, err := metav1.LabelSelectorAsSelector(d.Spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector of deployment '%s': %w", d.Name, err)
	}

	rsUIDs, err := replicasets.ListByDeployment(ctx, d, selector.String(), c)
	if err != nil {
		return nil, err
	}
	if len(rsUIDs) == 0 {
		return []apiv1.Pod{}, nil
	}

	podList, err := pods.ListBySelector(ctx, d.Namespace, selector.String(), c)
	if err != nil {
		return nil, err
	}
	return pods.OwnedBy(podList, rsUIDs...), nil
}
