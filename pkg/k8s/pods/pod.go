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

package pods

import (
	"context"
	"fmt"
	"sort"

	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	apiv1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/kubectl/pkg/util/podutils"
)

// Get returns a pod object by name
func Get(ctx context.Context, name, namespace string, c kubernetes.Interface) (*apiv1.Pod, error) {
	pod, err := c.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8sErrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: pod '%s' in namespace '%s'", oktetoErrors.ErrNotFound, name, namespace)
		}
		return nil, err
	}
	return pod, nil
}

// ListBySelector returns the pods of the namespace matching a label selector
func ListBySelector(ctx context.Context, namespace, selector string, c kubernetes.Interface) ([]apiv1.Pod, error) {
	podList, err := c.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, err
	}
	return podList.Items, nil
}

// OwnedBy returns the pods with an owner reference to any of the given UIDs
func OwnedBy(pods []apiv1.Pod, owners ...types.UID) []apiv1.Pod {
	result := []apiv1.Pod{}
	for i := range pods {
		for _, or := range pods[i].OwnerReferences {
			if containsUID(owners, or.UID) {
				result = append(result, pods[i])
				break
			}
		}
	}
	return result
}

func containsUID(uids []types.UID, uid types.UID) bool {
	for _, u := range uids {
		if u == uid {
			return true
		}
	}
	return false
}

// IsReady returns true if the pod is running, not terminating and its ready condition is true
func IsReady(pod *apiv1.Pod) bool {
	if pod.DeletionTimestamp != nil {
		return false
	}
	if pod.Status.Phase != apiv1.PodRunning {
		return false
	}
	return podutils.IsPodReady(pod)
}

// CheckReady returns ErrNotReady describing why the pod can't take connections
func CheckReady(pod *apiv1.Pod) error {
	switch {
	case pod.DeletionTimestamp != nil:
		return fmt.Errorf("%w: pod '%s' is terminating", oktetoErrors.ErrNotReady, pod.Name)
	case pod.Status.Phase != apiv1.PodRunning:
		return fmt.Errorf("%w: pod '%s' is %s", oktetoErrors.ErrNotReady, pod.Name, phase(pod))
	case !hasReadyContainer(pod):
		return fmt.Errorf("%w: pod '%s' has no ready containers", oktetoErrors.ErrNotReady, pod.Name)
	}
	return nil
}

func phase(pod *apiv1.Pod) string {
	if pod.Status.Phase == "" {
		return "pending"
	}
	return string(pod.Status.Phase)
}

func hasReadyContainer(pod *apiv1.Pod) bool {
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			return true
		}
	}
	return false
}

// SelectReady returns the ready pod with the lexicographically smallest name,
// or nil if no pod is ready. Listing order from the API is not stable, so the
// pick only depends on pod names.
func SelectReady(pods []apiv1.Pod) *apiv1.Pod {
	ready := []apiv1.Pod{}
	for i := range pods {
		if IsReady(&pods[i]) {
			ready = append(ready, pods[i])
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Name < ready[j].Name
	})
	return &ready[0]
}

// ContainerNames returns the names of the regular containers of a pod
func ContainerNames(pod *apiv1.Pod) []string {
	names := make([]string, 0, len(pod.Spec.Containers))
	for _, c := range pod.Spec.Containers {
		names = append(names, c.Name)
	}
	return names
}

// HasContainer returns true if the pod has a regular or ephemeral container with the given name
func HasContainer(pod *apiv1.Pod, name string) bool {
	for _, c := range pod.Spec.Containers {
		if c.Name == name {
			return true
		}
	}
	for _, c := range pod.Spec.EphemeralContainers {
		if c.Name == name {
			return true
		}
	}
	return false
}
